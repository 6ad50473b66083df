package model

import "time"

// Prescription couples a patient, a medicine, a dosage and a weekly schedule
// interpreted in TimeZone. Patient and medicine never change after creation.
type Prescription struct {
	ID         int64     `json:"id"`
	PatientID  int64     `json:"patientId"`
	MedicineID int64     `json:"medicineId"`
	Dosage     Dosage    `json:"dosage"`
	StartDate  Date      `json:"startDate"`
	EndDate    *Date     `json:"endDate,omitempty"`
	TimeZone   string    `json:"timeZone"`
	Schedule   Schedule  `json:"schedule"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsOngoing reports whether the prescription has no end date.
func (p *Prescription) IsOngoing() bool {
	return p.EndDate == nil
}

// CoversDate reports whether d falls within the inclusive date range.
func (p *Prescription) CoversDate(d Date) bool {
	if d.Before(p.StartDate) {
		return false
	}
	return p.EndDate == nil || !d.After(*p.EndDate)
}

type DosageInput struct {
	Amount DecimalString `json:"amount"`
	Unit   string        `json:"unit" binding:"omitempty,dosage_unit"`
}

type ScheduleEntryInput struct {
	DayOfWeek string `json:"dayOfWeek" binding:"omitempty,weekday"`
	TimeOfDay string `json:"timeOfDay" binding:"omitempty,hhmm"`
}

type CreatePrescriptionRequest struct {
	MedicineID int64                `json:"medicineId" binding:"required,gt=0"`
	Dosage     DosageInput          `json:"dosage"`
	StartDate  string               `json:"startDate"`
	EndDate    *string              `json:"endDate"`
	TimeZone   string               `json:"timeZone" binding:"omitempty,iana_tz"`
	Schedule   []ScheduleEntryInput `json:"schedule" binding:"dive"`
}

// UpdatePrescriptionRequest replaces every mutable field of a prescription.
type UpdatePrescriptionRequest struct {
	Dosage    DosageInput          `json:"dosage"`
	StartDate string               `json:"startDate"`
	EndDate   *string              `json:"endDate"`
	TimeZone  string               `json:"timeZone" binding:"omitempty,iana_tz"`
	Schedule  []ScheduleEntryInput `json:"schedule" binding:"dive"`
}

// PrescriptionView is the outbound representation of a prescription.
type PrescriptionView struct {
	ID             int64           `json:"id"`
	MedicineID     int64           `json:"medicineId"`
	MedicineName   string          `json:"medicineName"`
	MedicineActive bool            `json:"medicineActive"`
	DosageAmount   string          `json:"dosageAmount"`
	DosageUnit     DosageUnit      `json:"dosageUnit"`
	StartDate      string          `json:"startDate"`
	EndDate        *string         `json:"endDate"`
	TimeZone       string          `json:"timeZone"`
	Schedule       []ScheduleEntry `json:"schedule"`
}

func NewPrescriptionView(p *Prescription, medicine *Medicine) *PrescriptionView {
	v := &PrescriptionView{
		ID:           p.ID,
		MedicineID:   p.MedicineID,
		DosageAmount: p.Dosage.AmountString(),
		DosageUnit:   p.Dosage.Unit(),
		StartDate:    p.StartDate.String(),
		TimeZone:     p.TimeZone,
		Schedule:     p.Schedule.Entries(),
	}
	if p.EndDate != nil {
		end := p.EndDate.String()
		v.EndDate = &end
	}
	if medicine != nil {
		v.MedicineName = medicine.Name
		v.MedicineActive = medicine.Active
	}
	return v
}

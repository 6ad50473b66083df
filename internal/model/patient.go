package model

// Patient is the profile a user gets while holding the PATIENT role.
type Patient struct {
	Base
	UserID         int64   `json:"userId" db:"user_id"`
	Name           *string `json:"name" db:"name"`
	Gender         *string `json:"gender" db:"gender"`
	DateOfBirth    *Date   `json:"dateOfBirth" db:"date_of_birth"`
	Phone          *string `json:"phone" db:"phone"`
	Address        *string `json:"address" db:"address"`
	BloodType      *string `json:"bloodType" db:"blood_type"`
	Allergies      *string `json:"allergies" db:"allergies"`
	MedicalHistory *string `json:"medicalHistory" db:"medical_history"`
	Active         bool    `json:"active" db:"active"`
}

// UpdatePatientProfileRequest carries a partial update; nil fields are left as is.
type UpdatePatientProfileRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=255"`
	Gender         *string `json:"gender" binding:"omitempty,max=32"`
	DateOfBirth    *string `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	Phone          *string `json:"phone" binding:"omitempty,max=32"`
	Address        *string `json:"address"`
	BloodType      *string `json:"bloodType" binding:"omitempty,max=8"`
	Allergies      *string `json:"allergies"`
	MedicalHistory *string `json:"medicalHistory"`
}

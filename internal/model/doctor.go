package model

// Doctor is the profile a user gets while holding the DOCTOR role.
type Doctor struct {
	Base
	UserID         int64   `json:"userId" db:"user_id"`
	FirstName      *string `json:"firstName" db:"first_name"`
	LastName       *string `json:"lastName" db:"last_name"`
	Specialization *string `json:"specialization" db:"specialization"`
	LicenseNumber  *string `json:"licenseNumber" db:"license_number"`
	Phone          *string `json:"phone" db:"phone"`
	ClinicAddress  *string `json:"clinicAddress" db:"clinic_address"`
	Active         bool    `json:"active" db:"active"`
}

// UpdateDoctorProfileRequest carries a partial update; nil fields are left as is.
type UpdateDoctorProfileRequest struct {
	FirstName      *string `json:"firstName" binding:"omitempty,max=100"`
	LastName       *string `json:"lastName" binding:"omitempty,max=100"`
	Specialization *string `json:"specialization" binding:"omitempty,max=255"`
	LicenseNumber  *string `json:"licenseNumber" binding:"omitempty,max=64"`
	Phone          *string `json:"phone" binding:"omitempty,max=32"`
	ClinicAddress  *string `json:"clinicAddress"`
}

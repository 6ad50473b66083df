package model

// Medicine is a catalogue entry. Discontinued medicines are kept with
// Active=false so existing prescriptions can still show them.
type Medicine struct {
	Base
	Name              string  `json:"name" db:"name"`
	GenericName       *string `json:"genericName" db:"generic_name"`
	Manufacturer      *string `json:"manufacturer" db:"manufacturer"`
	DosageForm        *string `json:"dosageForm" db:"dosage_form"`
	Strength          *string `json:"strength" db:"strength"`
	Description       *string `json:"description" db:"description"`
	SideEffects       *string `json:"sideEffects" db:"side_effects"`
	Contraindications *string `json:"contraindications" db:"contraindications"`
	Active            bool    `json:"active" db:"active"`
}

type CreateMedicineRequest struct {
	Name              string  `json:"name" binding:"required,max=255"`
	GenericName       *string `json:"genericName" binding:"omitempty,max=255"`
	Manufacturer      *string `json:"manufacturer" binding:"omitempty,max=255"`
	DosageForm        *string `json:"dosageForm" binding:"omitempty,max=100"`
	Strength          *string `json:"strength" binding:"omitempty,max=100"`
	Description       *string `json:"description"`
	SideEffects       *string `json:"sideEffects"`
	Contraindications *string `json:"contraindications"`
}

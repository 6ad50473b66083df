package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

const patientColumns = `id, user_id, name, gender, date_of_birth, phone, address,
	blood_type, allergies, medical_history, active, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			user_id, name, gender, date_of_birth, phone, address,
			blood_type, allergies, medical_history, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	patient.Touch(time.Now().UTC())

	row := r.conn(ctx).QueryRowxContext(ctx, query,
		patient.UserID,
		patient.Name,
		patient.Gender,
		patient.DateOfBirth,
		patient.Phone,
		patient.Address,
		patient.BloodType,
		patient.Allergies,
		patient.MedicalHistory,
		patient.Active,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	return translate(row.Scan(&patient.ID), "create patient")
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID int64) (*model.Patient, error) {
	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE user_id = $1`
	if err := sqlxGet(ctx, r.conn(ctx), &patient, query, userID); err != nil {
		return nil, translate(err, "get patient")
	}
	return &patient, nil
}

func (r *patientRepository) GetByUserIDForShare(ctx context.Context, userID int64) (*model.Patient, error) {
	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE user_id = $1 FOR SHARE`
	if err := sqlxGet(ctx, r.conn(ctx), &patient, query, userID); err != nil {
		return nil, translate(err, "get patient")
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, gender = $2, date_of_birth = $3, phone = $4, address = $5,
		    blood_type = $6, allergies = $7, medical_history = $8, updated_at = $9
		WHERE id = $10
	`
	patient.UpdatedAt = time.Now().UTC()
	res, err := r.conn(ctx).ExecContext(ctx, query,
		patient.Name,
		patient.Gender,
		patient.DateOfBirth,
		patient.Phone,
		patient.Address,
		patient.BloodType,
		patient.Allergies,
		patient.MedicalHistory,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return translate(err, "update patient")
	}
	return expectOne(res, "update patient")
}

func (r *patientRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE patients SET active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), id)
	if err != nil {
		return translate(err, "set patient active")
	}
	return expectOne(res, "set patient active")
}

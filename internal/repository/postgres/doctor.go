package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

const doctorColumns = `id, user_id, first_name, last_name, specialization, license_number,
	phone, clinic_address, active, created_at, updated_at`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			user_id, first_name, last_name, specialization, license_number,
			phone, clinic_address, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	doctor.Touch(time.Now().UTC())

	row := r.conn(ctx).QueryRowxContext(ctx, query,
		doctor.UserID,
		doctor.FirstName,
		doctor.LastName,
		doctor.Specialization,
		doctor.LicenseNumber,
		doctor.Phone,
		doctor.ClinicAddress,
		doctor.Active,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	return translate(row.Scan(&doctor.ID), "create doctor")
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID int64) (*model.Doctor, error) {
	var doctor model.Doctor
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE user_id = $1`
	if err := sqlxGet(ctx, r.conn(ctx), &doctor, query, userID); err != nil {
		return nil, translate(err, "get doctor")
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET first_name = $1, last_name = $2, specialization = $3, license_number = $4,
		    phone = $5, clinic_address = $6, updated_at = $7
		WHERE id = $8
	`
	doctor.UpdatedAt = time.Now().UTC()
	res, err := r.conn(ctx).ExecContext(ctx, query,
		doctor.FirstName,
		doctor.LastName,
		doctor.Specialization,
		doctor.LicenseNumber,
		doctor.Phone,
		doctor.ClinicAddress,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return translate(err, "update doctor")
	}
	return expectOne(res, "update doctor")
}

func (r *doctorRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE doctors SET active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), id)
	if err != nil {
		return translate(err, "set doctor active")
	}
	return expectOne(res, "set doctor active")
}

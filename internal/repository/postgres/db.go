package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/meditracker-api/internal/config"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// NewRepositories wires every postgres repository to db.
func NewRepositories(db *sqlx.DB) *repository.Repositories {
	base := NewBaseRepository(db)
	return &repository.Repositories{
		Tx:            NewTransactor(db),
		Users:         NewUserRepository(base),
		Roles:         NewRoleRepository(base),
		Patients:      NewPatientRepository(base),
		Doctors:       NewDoctorRepository(base),
		Medicines:     NewMedicineRepository(base),
		Prescriptions: NewPrescriptionRepository(base),
		Outbox:        NewOutboxRepository(base),
	}
}

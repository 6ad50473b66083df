package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/meditracker-api/internal/model"
)

// ErrNotFound is returned by every repository when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("record already exists")

type (
	// Transactor runs fn inside one transaction. Repositories called with the
	// ctx handed to fn join that transaction; nested calls reuse it.
	Transactor interface {
		WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByID(ctx context.Context, id int64) (*model.User, error)
		// GetByIDForUpdate locks the user row until the surrounding transaction ends.
		GetByIDForUpdate(ctx context.Context, id int64) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context) ([]*model.User, error)
	}

	RoleRepository interface {
		GetByName(ctx context.Context, name model.RoleName) (*model.Role, error)
		List(ctx context.Context) ([]*model.Role, error)
		ListForUser(ctx context.Context, userID int64) ([]model.RoleName, error)
		// ReplaceForUser sets the user's roles to exactly roleIDs.
		ReplaceForUser(ctx context.Context, userID int64, roleIDs []int64) error
		UserHasRole(ctx context.Context, userID int64, name model.RoleName) (bool, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		GetByUserID(ctx context.Context, userID int64) (*model.Patient, error)
		// GetByUserIDForShare keeps the profile from changing until the
		// surrounding transaction ends.
		GetByUserIDForShare(ctx context.Context, userID int64) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		SetActive(ctx context.Context, id int64, active bool) error
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		GetByUserID(ctx context.Context, userID int64) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		SetActive(ctx context.Context, id int64, active bool) error
	}

	MedicineRepository interface {
		Create(ctx context.Context, medicine *model.Medicine) error
		// GetByID returns the medicine whether or not it is active.
		GetByID(ctx context.Context, id int64) (*model.Medicine, error)
		GetActiveByID(ctx context.Context, id int64) (*model.Medicine, error)
		GetActiveByIDForShare(ctx context.Context, id int64) (*model.Medicine, error)
		// FindByNameAndManufacturer matches both case-insensitively. A nil
		// manufacturer matches medicines without one.
		FindByNameAndManufacturer(ctx context.Context, name string, manufacturer *string) (*model.Medicine, error)
		ListActive(ctx context.Context) ([]*model.Medicine, error)
		// Update replaces the descriptive fields. Active is left as it is.
		Update(ctx context.Context, medicine *model.Medicine) error
		SetActive(ctx context.Context, id int64, active bool) error
	}

	PrescriptionRepository interface {
		// Create stores the prescription with its schedule and sets ID and timestamps.
		Create(ctx context.Context, p *model.Prescription) error
		GetByID(ctx context.Context, id int64) (*model.Prescription, error)
		ListByPatient(ctx context.Context, patientID int64) ([]*model.Prescription, error)
		// Update replaces dosage, dates, time zone and schedule.
		Update(ctx context.Context, p *model.Prescription) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

// Repositories bundles one implementation of every repository with its Transactor.
type Repositories struct {
	Tx            Transactor
	Users         UserRepository
	Roles         RoleRepository
	Patients      PatientRepository
	Doctors       DoctorRepository
	Medicines     MedicineRepository
	Prescriptions PrescriptionRepository
	Outbox        OutboxRepository
}

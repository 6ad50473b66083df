package prescription

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	"github.com/jwalitptl/meditracker-api/internal/service/event"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
	"github.com/jwalitptl/meditracker-api/pkg/logger"
	"github.com/jwalitptl/meditracker-api/pkg/metrics"
)

// indexPattern strips list positions from field names used as metric labels.
var indexPattern = regexp.MustCompile(`\[\d+\]`)

type PrescriptionService interface {
	Create(ctx context.Context, userID int64, req *model.CreatePrescriptionRequest) (*model.PrescriptionView, error)
	Update(ctx context.Context, userID, id int64, req *model.UpdatePrescriptionRequest) (*model.PrescriptionView, error)
	List(ctx context.Context, userID int64) ([]*model.PrescriptionView, error)
	Get(ctx context.Context, userID, id int64) (*model.PrescriptionView, error)
}

type Service struct {
	opts          Options
	tx            repository.Transactor
	patients      repository.PatientRepository
	medicines     repository.MedicineRepository
	prescriptions repository.PrescriptionRepository
	events        event.Emitter
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

func NewService(opts Options, tx repository.Transactor, patients repository.PatientRepository,
	medicines repository.MedicineRepository, prescriptions repository.PrescriptionRepository,
	events event.Emitter, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		opts:          opts,
		tx:            tx,
		patients:      patients,
		medicines:     medicines,
		prescriptions: prescriptions,
		events:        events,
		metrics:       m,
		logger:        log,
	}
}

type prescriptionPayload struct {
	PrescriptionID int64  `json:"prescription_id"`
	PatientID      int64  `json:"patient_id"`
	MedicineID     int64  `json:"medicine_id"`
	Dosage         string `json:"dosage"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	TimeZone       string `json:"time_zone"`
	Entries        int    `json:"entries"`
}

func newPayload(p *model.Prescription) prescriptionPayload {
	payload := prescriptionPayload{
		PrescriptionID: p.ID,
		PatientID:      p.PatientID,
		MedicineID:     p.MedicineID,
		Dosage:         p.Dosage.String(),
		StartDate:      p.StartDate.String(),
		TimeZone:       p.TimeZone,
		Entries:        p.Schedule.Len(),
	}
	if p.EndDate != nil {
		payload.EndDate = p.EndDate.String()
	}
	return payload
}

// Create validates req and stores a prescription for the caller's patient
// profile. Only active medicines can be prescribed. The patient and medicine
// rows stay locked until the prescription is written.
func (s *Service) Create(ctx context.Context, userID int64, req *model.CreatePrescriptionRequest) (*model.PrescriptionView, error) {
	var (
		p        *model.Prescription
		medicine *model.Medicine
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		patient, err := s.activePatient(ctx, userID)
		if err != nil {
			return err
		}

		f, err := buildFields(s.opts, req.Dosage, req.StartDate, req.EndDate, req.TimeZone, req.Schedule)
		if err != nil {
			s.rejected(err)
			return err
		}

		medicine, err = s.medicines.GetActiveByIDForShare(ctx, req.MedicineID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFoundf("medicine not found or inactive")
			}
			return apperrors.NewInternal(err)
		}

		p = &model.Prescription{
			PatientID:  patient.ID,
			MedicineID: medicine.ID,
		}
		f.applyTo(p)

		if err := s.prescriptions.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create prescription: %w", err)
		}
		return s.events.Emit(ctx, model.EventPrescriptionCreated, newPayload(p))
	})
	if err != nil {
		return nil, err
	}

	s.written("create")
	s.logger.Info("prescription created",
		"user_id", userID,
		"prescription_id", p.ID,
		"medicine_id", p.MedicineID,
		"entries", p.Schedule.Len(),
	)
	return model.NewPrescriptionView(p, medicine), nil
}

// Update replaces dosage, dates, time zone and schedule of one of the
// caller's prescriptions. Patient and medicine stay as they are.
func (s *Service) Update(ctx context.Context, userID, id int64, req *model.UpdatePrescriptionRequest) (*model.PrescriptionView, error) {
	var p *model.Prescription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		patient, err := s.activePatient(ctx, userID)
		if err != nil {
			return err
		}

		f, err := buildFields(s.opts, req.Dosage, req.StartDate, req.EndDate, req.TimeZone, req.Schedule)
		if err != nil {
			s.rejected(err)
			return err
		}

		if p, err = s.owned(ctx, patient.ID, id); err != nil {
			return err
		}
		f.applyTo(p)
		if err := s.prescriptions.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to update prescription: %w", err)
		}
		return s.events.Emit(ctx, model.EventPrescriptionUpdated, newPayload(p))
	})
	if err != nil {
		return nil, err
	}

	s.written("update")
	s.logger.Info("prescription updated", "user_id", userID, "prescription_id", p.ID)
	return s.view(ctx, p)
}

func (s *Service) List(ctx context.Context, userID int64) ([]*model.PrescriptionView, error) {
	patient, err := s.patient(ctx, userID)
	if err != nil {
		return nil, err
	}

	list, err := s.prescriptions.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	views := make([]*model.PrescriptionView, 0, len(list))
	medicines := make(map[int64]*model.Medicine)
	for _, p := range list {
		m, ok := medicines[p.MedicineID]
		if !ok {
			if m, err = s.medicine(ctx, p.MedicineID); err != nil {
				return nil, err
			}
			medicines[p.MedicineID] = m
		}
		views = append(views, model.NewPrescriptionView(p, m))
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*model.PrescriptionView, error) {
	patient, err := s.patient(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.owned(ctx, patient.ID, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

// patient returns the caller's patient profile, active or not. Historic
// prescriptions stay readable after the PATIENT role is removed.
func (s *Service) patient(ctx context.Context, userID int64) (*model.Patient, error) {
	p, err := s.patients.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewForbidden("caller has no patient profile")
		}
		return nil, apperrors.NewInternal(err)
	}
	return p, nil
}

// activePatient share-locks the caller's patient profile and requires it to
// be active.
func (s *Service) activePatient(ctx context.Context, userID int64) (*model.Patient, error) {
	p, err := s.patients.GetByUserIDForShare(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewForbidden("caller has no patient profile")
		}
		return nil, apperrors.NewInternal(err)
	}
	if !p.Active {
		return nil, apperrors.NewForbidden("patient profile is inactive")
	}
	return p, nil
}

// owned loads a prescription, hiding other patients' prescriptions as not found.
func (s *Service) owned(ctx context.Context, patientID, id int64) (*model.Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("prescription", err)
		}
		return nil, apperrors.NewInternal(err)
	}
	if p.PatientID != patientID {
		return nil, apperrors.NewNotFound("prescription", nil)
	}
	return p, nil
}

func (s *Service) medicine(ctx context.Context, id int64) (*model.Medicine, error) {
	m, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewInternal(err)
	}
	return m, nil
}

func (s *Service) view(ctx context.Context, p *model.Prescription) (*model.PrescriptionView, error) {
	m, err := s.medicine(ctx, p.MedicineID)
	if err != nil {
		return nil, err
	}
	return model.NewPrescriptionView(p, m), nil
}

func (s *Service) rejected(err error) {
	if s.metrics == nil {
		return
	}
	if appErr, ok := apperrors.As(err); ok && appErr.Field != "" {
		s.metrics.ValidationFailures.WithLabelValues(indexPattern.ReplaceAllString(appErr.Field, "[]")).Inc()
	}
}

func (s *Service) written(op string) {
	if s.metrics != nil {
		s.metrics.PrescriptionsWritten.WithLabelValues(op).Inc()
	}
}

package medicine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	"github.com/jwalitptl/meditracker-api/internal/service/event"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
	"github.com/jwalitptl/meditracker-api/pkg/logger"
)

type MedicineService interface {
	ListActive(ctx context.Context) ([]*model.Medicine, error)
	GetActive(ctx context.Context, id int64) (*model.Medicine, error)
	Get(ctx context.Context, id int64) (*model.Medicine, error)
	Create(ctx context.Context, req *model.CreateMedicineRequest) (*model.Medicine, error)
	Discontinue(ctx context.Context, id int64) error
	Import(ctx context.Context, req *model.ImportMedicinesRequest) (*model.ImportResult, error)
}

type Service struct {
	tx        repository.Transactor
	medicines repository.MedicineRepository
	events    event.Emitter
	logger    *logger.Logger
}

func NewService(tx repository.Transactor, medicines repository.MedicineRepository,
	events event.Emitter, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		tx:        tx,
		medicines: medicines,
		events:    events,
		logger:    log,
	}
}

func (s *Service) ListActive(ctx context.Context) ([]*model.Medicine, error) {
	list, err := s.medicines.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return list, nil
}

func (s *Service) GetActive(ctx context.Context, id int64) (*model.Medicine, error) {
	m, err := s.medicines.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundf("medicine not found or inactive")
		}
		return nil, apperrors.NewInternal(err)
	}
	return m, nil
}

// Get returns the medicine even when it has been discontinued.
func (s *Service) Get(ctx context.Context, id int64) (*model.Medicine, error) {
	m, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("medicine", err)
		}
		return nil, apperrors.NewInternal(err)
	}
	return m, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateMedicineRequest) (*model.Medicine, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidation("name", "name required")
	}

	m := &model.Medicine{
		Name:              name,
		GenericName:       req.GenericName,
		Manufacturer:      req.Manufacturer,
		DosageForm:        req.DosageForm,
		Strength:          req.Strength,
		Description:       req.Description,
		SideEffects:       req.SideEffects,
		Contraindications: req.Contraindications,
		Active:            true,
	}
	if err := s.medicines.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("name", "medicine already exists")
		}
		return nil, apperrors.NewInternal(err)
	}

	s.logger.Info("medicine created", "medicine_id", m.ID, "name", m.Name)
	return m, nil
}

// Discontinue marks the medicine inactive. Existing prescriptions keep
// referencing it; new ones cannot.
func (s *Service) Discontinue(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.medicines.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("medicine", err)
			}
			return apperrors.NewInternal(err)
		}
		if !m.Active {
			return nil
		}
		if err := s.medicines.SetActive(ctx, id, false); err != nil {
			return fmt.Errorf("failed to discontinue medicine: %w", err)
		}
		return s.events.Emit(ctx, model.EventMedicineDiscontinued, map[string]interface{}{
			"medicine_id": id,
			"name":        m.Name,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("medicine discontinued", "medicine_id", id)
	return nil
}

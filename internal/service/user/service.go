package user

import (
	"context"
	"errors"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
)

type UserService interface {
	ListUsers(ctx context.Context, filter *model.UserFilter) ([]*model.UserSummary, error)
}

type Service struct {
	users    repository.UserRepository
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
}

func NewService(users repository.UserRepository, patients repository.PatientRepository,
	doctors repository.DoctorRepository) *Service {
	return &Service{
		users:    users,
		patients: patients,
		doctors:  doctors,
	}
}

// ListUsers returns every user, or with filter.Role set those holding that
// role. filter.Only narrows to users whose only role is filter.Role.
func (s *Service) ListUsers(ctx context.Context, filter *model.UserFilter) ([]*model.UserSummary, error) {
	var role model.RoleName
	only := false
	if filter != nil {
		role = model.NormalizeRoleName(string(filter.Role))
		only = filter.Only
	}
	if only && role == "" {
		return nil, apperrors.NewValidation("only", "only requires role")
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	out := make([]*model.UserSummary, 0, len(users))
	for _, u := range users {
		roles := u.RoleSet()
		if role != "" && !roles.Has(role) {
			continue
		}
		if only && roles.Len() != 1 {
			continue
		}

		summary := &model.UserSummary{
			ID:       u.ID,
			Name:     u.Name,
			Username: u.Username,
			Email:    u.Email,
			Roles:    roles.Names(),
		}
		if summary.PatientActive, err = s.patientActive(ctx, u.ID); err != nil {
			return nil, err
		}
		if summary.DoctorActive, err = s.doctorActive(ctx, u.ID); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *Service) patientActive(ctx context.Context, userID int64) (*bool, error) {
	p, err := s.patients.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return &p.Active, nil
}

func (s *Service) doctorActive(ctx context.Context, userID int64) (*bool, error) {
	d, err := s.doctors.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return &d.Active, nil
}

package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID int64) (*model.ProfileView, error)
	UpdatePatientProfile(ctx context.Context, userID int64, req *model.UpdatePatientProfileRequest) (*model.Patient, error)
	UpdateDoctorProfile(ctx context.Context, userID int64, req *model.UpdateDoctorProfileRequest) (*model.Doctor, error)
}

type Service struct {
	tx       repository.Transactor
	users    repository.UserRepository
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
}

func NewService(tx repository.Transactor, users repository.UserRepository,
	patients repository.PatientRepository, doctors repository.DoctorRepository) *Service {
	return &Service{
		tx:       tx,
		users:    users,
		patients: patients,
		doctors:  doctors,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, apperrors.NewInternal(err)
	}

	view := &model.ProfileView{
		User:  user,
		Roles: user.RoleSet().Strings(),
	}

	patient, err := s.patients.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		view.Patient = patient
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewInternal(err)
	}

	doctor, err := s.doctors.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		view.Doctor = doctor
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewInternal(err)
	}

	return view, nil
}

func (s *Service) UpdatePatientProfile(ctx context.Context, userID int64, req *model.UpdatePatientProfileRequest) (*model.Patient, error) {
	var dob *model.Date
	if req.DateOfBirth != nil {
		d, err := model.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, apperrors.NewValidation("dateOfBirth", err.Error())
		}
		dob = &d
	}

	var patient *model.Patient
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewForbidden("no patient profile")
			}
			return apperrors.NewInternal(err)
		}
		if !p.Active {
			return apperrors.NewForbidden("patient profile is inactive")
		}

		assign(&p.Name, req.Name)
		assign(&p.Gender, req.Gender)
		assign(&p.Phone, req.Phone)
		assign(&p.Address, req.Address)
		assign(&p.BloodType, req.BloodType)
		assign(&p.Allergies, req.Allergies)
		assign(&p.MedicalHistory, req.MedicalHistory)
		if dob != nil {
			p.DateOfBirth = dob
		}

		if err := s.patients.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to update patient profile: %w", err)
		}
		patient = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) UpdateDoctorProfile(ctx context.Context, userID int64, req *model.UpdateDoctorProfileRequest) (*model.Doctor, error) {
	var doctor *model.Doctor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.doctors.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewForbidden("no doctor profile")
			}
			return apperrors.NewInternal(err)
		}
		if !d.Active {
			return apperrors.NewForbidden("doctor profile is inactive")
		}

		assign(&d.FirstName, req.FirstName)
		assign(&d.LastName, req.LastName)
		assign(&d.Specialization, req.Specialization)
		assign(&d.LicenseNumber, req.LicenseNumber)
		assign(&d.Phone, req.Phone)
		assign(&d.ClinicAddress, req.ClinicAddress)

		if err := s.doctors.Update(ctx, d); err != nil {
			return fmt.Errorf("failed to update doctor profile: %w", err)
		}
		doctor = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doctor, nil
}

func assign(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

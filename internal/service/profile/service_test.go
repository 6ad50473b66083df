package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/meditracker-api/internal/model"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
)

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repos.Tx, f.repos.Users, f.repos.Patients, f.repos.Doctors)
	user := &model.User{Name: "Gregory House", Username: "house", Email: "house@example.com"}
	require.NoError(t, f.store.SeedUser(user, model.RoleDoctor))
	f.reconcile(t, user, []model.RoleName{model.RoleDoctor}, nil)

	view, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"DOCTOR"}, view.Roles)
	assert.Nil(t, view.Patient)
	require.NotNil(t, view.Doctor)
	assert.Equal(t, strPtr("House"), view.Doctor.LastName)

	_, err = svc.GetProfile(context.Background(), 999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdatePatientProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewService(f.repos.Tx, f.repos.Users, f.repos.Patients, f.repos.Doctors)
	user := f.seedUser(t, "Rebecca Adler")
	f.reconcile(t, user, []model.RoleName{model.RolePatient}, nil)

	updated, err := svc.UpdatePatientProfile(ctx, user.ID, &model.UpdatePatientProfileRequest{
		Allergies:   strPtr("latex"),
		DateOfBirth: strPtr("1980-06-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, strPtr("latex"), updated.Allergies)
	require.NotNil(t, updated.DateOfBirth)
	assert.Equal(t, "1980-06-15", updated.DateOfBirth.String())
	// untouched fields keep their values
	assert.Equal(t, strPtr("Rebecca Adler"), updated.Name)

	_, err = svc.UpdatePatientProfile(ctx, user.ID, &model.UpdatePatientProfileRequest{DateOfBirth: strPtr("15/06/1980")})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "dateOfBirth", appErr.Field)
}

func TestUpdateProfileRequiresActiveProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewService(f.repos.Tx, f.repos.Users, f.repos.Patients, f.repos.Doctors)
	user := f.seedUser(t, "Stacy Warner")

	_, err := svc.UpdatePatientProfile(ctx, user.ID, &model.UpdatePatientProfileRequest{Phone: strPtr("555")})
	assert.True(t, apperrors.IsForbidden(err))

	f.reconcile(t, user, []model.RoleName{model.RoleDoctor}, nil)
	f.reconcile(t, user, nil, []model.RoleName{model.RoleDoctor})

	_, err = svc.UpdateDoctorProfile(ctx, user.ID, &model.UpdateDoctorProfileRequest{Phone: strPtr("555")})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Equal(t, "doctor profile is inactive", err.Error())
}

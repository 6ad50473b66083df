package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
)

func TestListUsers(t *testing.T) {
	store := memory.NewStore()
	repos := memory.NewRepositories(store)
	ctx := context.Background()

	seed := func(email string, roles ...model.RoleName) int64 {
		u := &model.User{Name: email, Username: email, Email: email}
		require.NoError(t, store.SeedUser(u, roles...))
		return u.ID
	}
	patientOnly := seed("p@example.com", model.RolePatient)
	both := seed("pd@example.com", model.RolePatient, model.RoleDoctor)
	seed("a@example.com", model.RoleAdmin)

	require.NoError(t, repos.Patients.Create(ctx, &model.Patient{UserID: patientOnly, Active: true}))
	require.NoError(t, repos.Patients.Create(ctx, &model.Patient{UserID: both, Active: false}))

	svc := NewService(repos.Users, repos.Patients, repos.Doctors)

	all, err := svc.ListUsers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	patients, err := svc.ListUsers(ctx, &model.UserFilter{Role: "patient"})
	require.NoError(t, err)
	require.Len(t, patients, 2)
	assert.Equal(t, patientOnly, patients[0].ID)
	require.NotNil(t, patients[0].PatientActive)
	assert.True(t, *patients[0].PatientActive)
	assert.Nil(t, patients[0].DoctorActive)
	require.NotNil(t, patients[1].PatientActive)
	assert.False(t, *patients[1].PatientActive)

	only, err := svc.ListUsers(ctx, &model.UserFilter{Role: model.RolePatient, Only: true})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, patientOnly, only[0].ID)
	assert.Equal(t, []model.RoleName{model.RolePatient}, only[0].Roles)

	_, err = svc.ListUsers(ctx, &model.UserFilter{Only: true})
	assert.True(t, apperrors.IsValidation(err))
}

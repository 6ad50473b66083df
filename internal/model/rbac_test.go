package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleSet(t *testing.T) {
	a := NewRoleSet(RolePatient, RoleDoctor)
	b := NewRoleSet(RoleDoctor, RoleAdmin)

	assert.Equal(t, []RoleName{RolePatient}, a.Minus(b).Names())
	assert.Equal(t, []RoleName{RoleAdmin}, b.Minus(a).Names())
	assert.True(t, a.Equal(NewRoleSet(RoleDoctor, RolePatient, RolePatient)))
	assert.False(t, a.Equal(b))
	assert.Equal(t, []string{"DOCTOR", "PATIENT"}, a.Strings())
}

func TestNormalizeRoleName(t *testing.T) {
	assert.Equal(t, RolePatient, NormalizeRoleName(" patient "))
	assert.Equal(t, RoleName(""), NormalizeRoleName("   "))
}

func TestProfileStateOf(t *testing.T) {
	assert.Equal(t, ProfileAbsent, ProfileStateOf(false, true))
	assert.Equal(t, ProfileActive, ProfileStateOf(true, true))
	assert.Equal(t, ProfileInactive, ProfileStateOf(true, false))
	assert.Equal(t, "inactive", ProfileInactive.String())
}

func TestProfileEventType(t *testing.T) {
	assert.Equal(t, "patient.profile.reactivated", ProfileEventType(ProfilePatient, ActionReactivate))
	assert.Equal(t, "doctor.profile.created", ProfileEventType(ProfileDoctor, ActionCreate))
}

func TestOutboxEventRetryable(t *testing.T) {
	e := &OutboxEvent{Status: OutboxStatusPending}
	assert.True(t, e.Retryable())

	e.Status = OutboxStatusFailed
	e.RetryCount = OutboxMaxAttempts - 1
	assert.True(t, e.Retryable())

	e.RetryCount = OutboxMaxAttempts
	assert.False(t, e.Retryable())

	e.Status = OutboxStatusProcessed
	assert.False(t, e.Retryable())
}

package profile

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	"github.com/jwalitptl/meditracker-api/internal/repository/memory"
	"github.com/jwalitptl/meditracker-api/internal/service/event"
	"github.com/jwalitptl/meditracker-api/pkg/logger"
	"github.com/jwalitptl/meditracker-api/pkg/metrics"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		state   model.ProfileState
		added   bool
		removed bool
		want    model.TransitionAction
	}{
		{"add to absent", model.ProfileAbsent, true, false, model.ActionCreate},
		{"add to inactive", model.ProfileInactive, true, false, model.ActionReactivate},
		{"add to active", model.ProfileActive, true, false, model.ActionNone},
		{"remove from active", model.ProfileActive, false, true, model.ActionDeactivate},
		{"remove from inactive", model.ProfileInactive, false, true, model.ActionNone},
		{"remove from absent", model.ProfileAbsent, false, true, model.ActionNone},
		{"untouched", model.ProfileActive, false, false, model.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.state, tt.added, tt.removed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Transition(model.ProfileActive, true, true)
	assert.ErrorIs(t, err, ErrConflictingDiff)
}

func TestSplitDisplayName(t *testing.T) {
	tests := []struct {
		in    string
		first *string
		last  *string
	}{
		{"Gregory House", strPtr("Gregory"), strPtr("House")},
		{"  Mary   Jane  Watson ", strPtr("Mary"), strPtr("Jane  Watson")},
		{"Cher", strPtr("Cher"), nil},
		{"", nil, nil},
		{"   ", nil, nil},
	}

	for _, tt := range tests {
		first, last := SplitDisplayName(tt.in)
		assert.Equal(t, tt.first, first, "first name of %q", tt.in)
		assert.Equal(t, tt.last, last, "last name of %q", tt.in)
	}
}

func strPtr(s string) *string { return &s }

type fixture struct {
	store   *memory.Store
	repos   *repository.Repositories
	metrics *metrics.Metrics
	rec     *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := memory.NewRepositories(store)
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	return &fixture{
		store:   store,
		repos:   repos,
		metrics: m,
		rec:     NewReconciler(repos.Patients, repos.Doctors, event.NewService(repos.Outbox), m, logger.Nop()),
	}
}

func (f *fixture) seedUser(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Username: "u", Email: name + "@example.com"}
	require.NoError(t, f.store.SeedUser(u))
	return u
}

func (f *fixture) reconcile(t *testing.T, user *model.User, added, removed []model.RoleName) []model.ProfileTransition {
	t.Helper()
	diff := model.RoleDiff{Added: model.NewRoleSet(added...), Removed: model.NewRoleSet(removed...)}
	var out []model.ProfileTransition
	err := f.store.WithinTx(context.Background(), func(ctx context.Context) error {
		var err error
		out, err = f.rec.Reconcile(ctx, user, diff)
		return err
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) events(t *testing.T) []*model.OutboxEvent {
	t.Helper()
	events, err := f.repos.Outbox.GetPendingEventsWithLock(context.Background(), 100)
	require.NoError(t, err)
	return events
}

func TestReconcileCreatesProfilesFromDisplayName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "Gregory House")

	transitions := f.reconcile(t, user, []model.RoleName{model.RolePatient, model.RoleDoctor}, nil)
	require.Len(t, transitions, 2)
	assert.Equal(t, model.ProfileTransition{
		Kind: model.ProfilePatient, From: "absent", To: "active", Action: model.ActionCreate,
	}, transitions[0])
	assert.Equal(t, model.ProfileDoctor, transitions[1].Kind)

	patient, err := f.repos.Patients.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, patient.Active)
	require.NotNil(t, patient.Name)
	assert.Equal(t, "Gregory House", *patient.Name)

	doctor, err := f.repos.Doctors.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, doctor.Active)
	assert.Equal(t, strPtr("Gregory"), doctor.FirstName)
	assert.Equal(t, strPtr("House"), doctor.LastName)

	var types []string
	for _, e := range f.events(t) {
		types = append(types, e.EventType)
	}
	assert.ElementsMatch(t, []string{"patient.profile.created", "doctor.profile.created"}, types)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ProfileTransitions.WithLabelValues("doctor", "created")))
}

func TestReconcileBlankNameLeavesNamesEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "  ")

	f.reconcile(t, user, []model.RoleName{model.RolePatient, model.RoleDoctor}, nil)

	patient, err := f.repos.Patients.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, patient.Name)

	doctor, err := f.repos.Doctors.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, doctor.FirstName)
	assert.Nil(t, doctor.LastName)
}

func TestReconcileReactivationKeepsProfileData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "Lisa Cuddy")

	f.reconcile(t, user, []model.RoleName{model.RolePatient}, nil)
	patient, err := f.repos.Patients.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	patient.Allergies = strPtr("penicillin")
	require.NoError(t, f.repos.Patients.Update(ctx, patient))

	transitions := f.reconcile(t, user, nil, []model.RoleName{model.RolePatient})
	require.Len(t, transitions, 1)
	assert.Equal(t, model.ActionDeactivate, transitions[0].Action)

	deactivated, err := f.repos.Patients.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
	assert.Equal(t, patient.ID, deactivated.ID)

	transitions = f.reconcile(t, user, []model.RoleName{model.RolePatient}, nil)
	require.Len(t, transitions, 1)
	assert.Equal(t, model.ProfileTransition{
		Kind: model.ProfilePatient, From: "inactive", To: "active", Action: model.ActionReactivate,
	}, transitions[0])

	reactivated, err := f.repos.Patients.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reactivated.Active)
	assert.Equal(t, patient.ID, reactivated.ID)
	assert.Equal(t, strPtr("penicillin"), reactivated.Allergies)
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "James Wilson")

	f.reconcile(t, user, []model.RoleName{model.RoleDoctor}, nil)
	before := len(f.events(t))

	// the doctor profile is already active, so nothing is written
	transitions := f.reconcile(t, user, []model.RoleName{model.RoleDoctor}, nil)
	assert.Empty(t, transitions)
	assert.Len(t, f.events(t), before)

	// removing a role whose profile never existed is a no-op too
	transitions = f.reconcile(t, user, nil, []model.RoleName{model.RolePatient})
	assert.Empty(t, transitions)
	assert.Len(t, f.events(t), before)
}

func TestReconcileIgnoresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "Admin")

	transitions := f.reconcile(t, user, []model.RoleName{model.RoleAdmin}, nil)
	assert.Empty(t, transitions)

	_, err := f.repos.Patients.GetByUserID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.repos.Doctors.GetByUserID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReconcileRejectsConflictingDiff(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "Eric Foreman")

	diff := model.RoleDiff{
		Added:   model.NewRoleSet(model.RolePatient),
		Removed: model.NewRoleSet(model.RolePatient),
	}
	_, err := f.rec.Reconcile(context.Background(), user, diff)
	assert.ErrorIs(t, err, ErrConflictingDiff)
}

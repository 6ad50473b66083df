package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	"github.com/jwalitptl/meditracker-api/internal/service/event"
	"github.com/jwalitptl/meditracker-api/pkg/logger"
	"github.com/jwalitptl/meditracker-api/pkg/metrics"
)

// ErrConflictingDiff is returned when a role is both added and removed in one diff.
var ErrConflictingDiff = errors.New("role both added and removed")

// Transition decides the write for one profile kind. added and removed say
// whether the kind's role appears in the diff's Added and Removed sets.
func Transition(state model.ProfileState, added, removed bool) (model.TransitionAction, error) {
	if added && removed {
		return model.ActionNone, ErrConflictingDiff
	}
	switch {
	case added && state == model.ProfileAbsent:
		return model.ActionCreate, nil
	case added && state == model.ProfileInactive:
		return model.ActionReactivate, nil
	case removed && state == model.ProfileActive:
		return model.ActionDeactivate, nil
	}
	return model.ActionNone, nil
}

// Reconciler keeps patient and doctor profiles in step with a user's roles.
type Reconciler struct {
	kinds   []profileStore
	events  event.Emitter
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewReconciler(patients repository.PatientRepository, doctors repository.DoctorRepository,
	events event.Emitter, m *metrics.Metrics, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{
		kinds: []profileStore{
			&patientStore{repo: patients},
			&doctorStore{repo: doctors},
		},
		events:  events,
		metrics: m,
		logger:  log,
	}
}

type transitionPayload struct {
	UserID    int64                  `json:"user_id"`
	ProfileID int64                  `json:"profile_id"`
	Kind      model.ProfileKind      `json:"kind"`
	Action    model.TransitionAction `json:"action"`
}

// Reconcile applies diff to the user's profiles and returns the transitions
// it performed. Kinds already in the desired state are left untouched. It
// must run inside the caller's transaction.
func (r *Reconciler) Reconcile(ctx context.Context, user *model.User, diff model.RoleDiff) ([]model.ProfileTransition, error) {
	var applied []model.ProfileTransition
	for _, store := range r.kinds {
		role := store.role()
		added, removed := diff.Added.Has(role), diff.Removed.Has(role)
		if !added && !removed {
			continue
		}

		id, state, err := store.state(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s profile: %w", store.kind(), err)
		}

		action, err := Transition(state, added, removed)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", role, err)
		}

		var to model.ProfileState
		switch action {
		case model.ActionNone:
			continue
		case model.ActionCreate:
			if id, err = store.create(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to create %s profile: %w", store.kind(), err)
			}
			to = model.ProfileActive
		case model.ActionReactivate:
			if err := store.setActive(ctx, id, true); err != nil {
				return nil, fmt.Errorf("failed to reactivate %s profile: %w", store.kind(), err)
			}
			to = model.ProfileActive
		case model.ActionDeactivate:
			if err := store.setActive(ctx, id, false); err != nil {
				return nil, fmt.Errorf("failed to deactivate %s profile: %w", store.kind(), err)
			}
			to = model.ProfileInactive
		}

		if err := r.events.Emit(ctx, model.ProfileEventType(store.kind(), action), transitionPayload{
			UserID:    user.ID,
			ProfileID: id,
			Kind:      store.kind(),
			Action:    action,
		}); err != nil {
			return nil, err
		}

		if r.metrics != nil {
			r.metrics.ProfileTransitions.WithLabelValues(string(store.kind()), string(action)).Inc()
		}
		r.logger.Info("profile reconciled",
			"user_id", user.ID,
			"profile", string(store.kind()),
			"transition", string(action),
		)

		applied = append(applied, model.ProfileTransition{
			Kind:   store.kind(),
			From:   state.String(),
			To:     to.String(),
			Action: action,
		})
	}
	return applied, nil
}

// profileStore adapts one profile repository to the reconcile loop.
type profileStore interface {
	kind() model.ProfileKind
	role() model.RoleName
	state(ctx context.Context, userID int64) (int64, model.ProfileState, error)
	create(ctx context.Context, user *model.User) (int64, error)
	setActive(ctx context.Context, id int64, active bool) error
}

type patientStore struct {
	repo repository.PatientRepository
}

func (s *patientStore) kind() model.ProfileKind { return model.ProfilePatient }
func (s *patientStore) role() model.RoleName    { return model.RolePatient }

func (s *patientStore) state(ctx context.Context, userID int64) (int64, model.ProfileState, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, model.ProfileAbsent, nil
	}
	if err != nil {
		return 0, model.ProfileAbsent, err
	}
	return p.ID, model.ProfileStateOf(true, p.Active), nil
}

func (s *patientStore) create(ctx context.Context, user *model.User) (int64, error) {
	p := &model.Patient{
		UserID: user.ID,
		Name:   nonBlank(user.Name),
		Active: true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (s *patientStore) setActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

type doctorStore struct {
	repo repository.DoctorRepository
}

func (s *doctorStore) kind() model.ProfileKind { return model.ProfileDoctor }
func (s *doctorStore) role() model.RoleName    { return model.RoleDoctor }

func (s *doctorStore) state(ctx context.Context, userID int64) (int64, model.ProfileState, error) {
	d, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, model.ProfileAbsent, nil
	}
	if err != nil {
		return 0, model.ProfileAbsent, err
	}
	return d.ID, model.ProfileStateOf(true, d.Active), nil
}

func (s *doctorStore) create(ctx context.Context, user *model.User) (int64, error) {
	first, last := SplitDisplayName(user.Name)
	d := &model.Doctor{
		UserID:    user.ID,
		FirstName: first,
		LastName:  last,
		Active:    true,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return 0, err
	}
	return d.ID, nil
}

func (s *doctorStore) setActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// SplitDisplayName splits name at its first whitespace run. A blank name
// yields two nils; a single word yields only a first name.
func SplitDisplayName(name string) (first, last *string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return nil, nil
	}
	head := fields[0]
	first = &head
	trimmed := strings.TrimSpace(name)
	if rest := strings.TrimSpace(trimmed[len(head):]); rest != "" {
		last = &rest
	}
	return first, last
}

func nonBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

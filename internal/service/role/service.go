package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	"github.com/jwalitptl/meditracker-api/internal/service/event"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
	"github.com/jwalitptl/meditracker-api/pkg/logger"
	"github.com/jwalitptl/meditracker-api/pkg/metrics"
)

type RoleService interface {
	UpdateUserRoles(ctx context.Context, userID int64, names []string) (*model.RoleChange, error)
	ListRoles(ctx context.Context) ([]*model.Role, error)
	HasRole(ctx context.Context, userID int64, name model.RoleName) (bool, error)
}

// Reconciler brings a user's profiles in line with a role diff.
type Reconciler interface {
	Reconcile(ctx context.Context, user *model.User, diff model.RoleDiff) ([]model.ProfileTransition, error)
}

type Service struct {
	tx         repository.Transactor
	users      repository.UserRepository
	roles      repository.RoleRepository
	resolver   *Resolver
	reconciler Reconciler
	events     event.Emitter
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

func NewService(tx repository.Transactor, users repository.UserRepository, roles repository.RoleRepository,
	resolver *Resolver, reconciler Reconciler, events event.Emitter, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		tx:         tx,
		users:      users,
		roles:      roles,
		resolver:   resolver,
		reconciler: reconciler,
		events:     events,
		metrics:    m,
		logger:     log,
	}
}

type rolesUpdatedPayload struct {
	UserID  int64            `json:"user_id"`
	Roles   []model.RoleName `json:"roles"`
	Added   []model.RoleName `json:"added"`
	Removed []model.RoleName `json:"removed"`
}

// UpdateUserRoles replaces the user's role set with names and reconciles
// profiles. Role rows, profiles and the outbox event commit together.
func (s *Service) UpdateUserRoles(ctx context.Context, userID int64, names []string) (*model.RoleChange, error) {
	change, err := s.updateUserRoles(ctx, userID, names)
	s.observe(change, err)
	return change, err
}

func (s *Service) updateUserRoles(ctx context.Context, userID int64, names []string) (*model.RoleChange, error) {
	if len(names) == 0 {
		return nil, apperrors.NewValidation("roles", "roles list cannot be empty")
	}

	resolved, requested, err := s.resolver.ResolveAll(ctx, names)
	if err != nil {
		return nil, err
	}

	var change *model.RoleChange
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("user", err)
			}
			return apperrors.NewInternal(err)
		}

		diff := DiffRoles(user.RoleSet(), requested)
		change = &model.RoleChange{
			UserID:  userID,
			Roles:   requested.Names(),
			Added:   diff.Added.Names(),
			Removed: diff.Removed.Names(),
		}
		if diff.IsEmpty() {
			return nil
		}

		ids := make([]int64, len(resolved))
		for i, r := range resolved {
			ids[i] = r.ID
		}
		if err := s.roles.ReplaceForUser(ctx, userID, ids); err != nil {
			return fmt.Errorf("failed to replace user roles: %w", err)
		}
		user.Roles = requested.Names()

		transitions, err := s.reconciler.Reconcile(ctx, user, diff)
		if err != nil {
			return err
		}
		change.Transitions = transitions

		return s.events.Emit(ctx, model.EventUserRolesUpdated, rolesUpdatedPayload{
			UserID:  userID,
			Roles:   change.Roles,
			Added:   change.Added,
			Removed: change.Removed,
		})
	})
	if err != nil {
		return nil, err
	}

	if len(change.Added)+len(change.Removed) > 0 {
		s.logger.Info("user roles updated",
			"user_id", userID,
			"roles", requested.Strings(),
			"transitions", len(change.Transitions),
		)
	}
	return change, nil
}

func (s *Service) observe(change *model.RoleChange, err error) {
	if s.metrics == nil {
		return
	}
	result := "updated"
	switch {
	case err != nil:
		result = apperrors.CodeOf(err).String()
	case len(change.Added)+len(change.Removed) == 0:
		result = "unchanged"
	}
	s.metrics.RoleUpdates.WithLabelValues(result).Inc()
}

func (s *Service) ListRoles(ctx context.Context) ([]*model.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return roles, nil
}

func (s *Service) HasRole(ctx context.Context, userID int64, name model.RoleName) (bool, error) {
	ok, err := s.roles.UserHasRole(ctx, userID, name)
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return ok, nil
}

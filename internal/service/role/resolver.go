package role

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
)

// Resolver maps role names to stored roles. Hits are cached since the
// vocabulary rarely changes; misses are never cached.
type Resolver struct {
	roles repository.RoleRepository
	cache *cache.Cache
}

func NewResolver(roles repository.RoleRepository, ttl, cleanup time.Duration) *Resolver {
	return &Resolver{
		roles: roles,
		cache: cache.New(ttl, cleanup),
	}
}

func (r *Resolver) Resolve(ctx context.Context, name model.RoleName) (*model.Role, error) {
	if cached, found := r.cache.Get(string(name)); found {
		return cached.(*model.Role), nil
	}

	role, err := r.roles.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundf("role %q not found", name)
		}
		return nil, apperrors.NewInternal(err)
	}

	r.cache.SetDefault(string(name), role)
	return role, nil
}

// ResolveAll normalizes and resolves every name. It fails on the first blank
// or unknown name, so callers can resolve before writing anything.
func (r *Resolver) ResolveAll(ctx context.Context, names []string) ([]*model.Role, model.RoleSet, error) {
	set := model.NewRoleSet()
	var roles []*model.Role
	for _, raw := range names {
		name := model.NormalizeRoleName(raw)
		if name == "" {
			return nil, nil, apperrors.NewValidation("roles", "role name cannot be blank")
		}
		if set.Has(name) {
			continue
		}
		role, err := r.Resolve(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		set[name] = struct{}{}
		roles = append(roles, role)
	}
	return roles, set, nil
}

// Flush drops all cached roles.
func (r *Resolver) Flush() {
	r.cache.Flush()
}

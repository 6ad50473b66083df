package role

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	"github.com/jwalitptl/meditracker-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
)

type countingRoles struct {
	repository.RoleRepository
	lookups int
}

func (c *countingRoles) GetByName(ctx context.Context, name model.RoleName) (*model.Role, error) {
	c.lookups++
	return c.RoleRepository.GetByName(ctx, name)
}

func TestResolverCachesHits(t *testing.T) {
	roles := &countingRoles{RoleRepository: memory.NewRoleRepository(memory.NewStore())}
	r := NewResolver(roles, time.Minute, time.Minute)
	ctx := context.Background()

	first, err := r.Resolve(ctx, model.RolePatient)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, model.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, roles.lookups)

	r.Flush()
	_, err = r.Resolve(ctx, model.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, 2, roles.lookups)
}

func TestResolverDoesNotCacheMisses(t *testing.T) {
	roles := &countingRoles{RoleRepository: memory.NewRoleRepository(memory.NewStore())}
	r := NewResolver(roles, time.Minute, time.Minute)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "NURSE")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = r.Resolve(ctx, "NURSE")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, 2, roles.lookups)
}

func TestResolveAllDeduplicates(t *testing.T) {
	r := NewResolver(memory.NewRoleRepository(memory.NewStore()), time.Minute, time.Minute)

	resolved, set, err := r.ResolveAll(context.Background(), []string{"admin", "ADMIN", " Admin "})
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
	assert.Equal(t, []model.RoleName{model.RoleAdmin}, set.Names())
}

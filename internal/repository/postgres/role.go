package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

type roleRepository struct {
	BaseRepository
}

func NewRoleRepository(base BaseRepository) repository.RoleRepository {
	return &roleRepository{base}
}

func sqlxGet(ctx context.Context, q sqlx.QueryerContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

func sqlxSelect(ctx context.Context, q sqlx.QueryerContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

func splitRoleNames(s string) []model.RoleName {
	if s == "" {
		return []model.RoleName{}
	}
	parts := strings.Split(s, ",")
	out := make([]model.RoleName, len(parts))
	for i, p := range parts {
		out[i] = model.RoleName(p)
	}
	return out
}

func listRoleNames(ctx context.Context, q sqlx.QueryerContext, userID int64) ([]model.RoleName, error) {
	query := `
		SELECT r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`
	names := []model.RoleName{}
	if err := sqlxSelect(ctx, q, &names, query, userID); err != nil {
		return nil, translate(err, "list user roles")
	}
	return names, nil
}

func (r *roleRepository) GetByName(ctx context.Context, name model.RoleName) (*model.Role, error) {
	var role model.Role
	query := `SELECT id, name, description FROM roles WHERE name = $1`
	if err := sqlxGet(ctx, r.conn(ctx), &role, query, name); err != nil {
		return nil, translate(err, "get role")
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]*model.Role, error) {
	var roles []*model.Role
	query := `SELECT id, name, description FROM roles ORDER BY id`
	if err := sqlxSelect(ctx, r.conn(ctx), &roles, query); err != nil {
		return nil, translate(err, "list roles")
	}
	return roles, nil
}

func (r *roleRepository) ListForUser(ctx context.Context, userID int64) ([]model.RoleName, error) {
	var exists bool
	if err := sqlxGet(ctx, r.conn(ctx), &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID); err != nil {
		return nil, translate(err, "check user")
	}
	if !exists {
		return nil, repository.ErrNotFound
	}
	return listRoleNames(ctx, r.conn(ctx), userID)
}

// ReplaceForUser deletes and re-inserts the membership rows. Callers wanting
// atomicity with other writes run it inside WithinTx.
func (r *roleRepository) ReplaceForUser(ctx context.Context, userID int64, roleIDs []int64) error {
	return r.WithinTx(ctx, func(ctx context.Context) error {
		conn := r.conn(ctx)
		if _, err := conn.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return translate(err, "clear user roles")
		}
		if len(roleIDs) == 0 {
			return nil
		}
		query := `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`
		if _, err := conn.ExecContext(ctx, query, userID, pq.Array(roleIDs)); err != nil {
			return translate(err, "insert user roles")
		}
		return nil
	})
}

func (r *roleRepository) UserHasRole(ctx context.Context, userID int64, name model.RoleName) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1 AND r.name = $2
		)
	`
	var has bool
	if err := sqlxGet(ctx, r.conn(ctx), &has, query, userID, name); err != nil {
		return false, translate(err, "check user role")
	}
	return has, nil
}

package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

const userColumns = `id, name, username, email, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (name, username, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	user.Touch(time.Now().UTC())

	row := r.conn(ctx).QueryRowxContext(ctx, query,
		user.Name,
		user.Username,
		user.Email,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return translate(row.Scan(&user.ID), "create user")
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *userRepository) get(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	if err := sqlxGet(ctx, r.conn(ctx), &user, query, arg); err != nil {
		return nil, translate(err, "get user")
	}
	roles, err := listRoleNames(ctx, r.conn(ctx), user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT u.id, u.name, u.username, u.email, u.created_at, u.updated_at,
		       COALESCE(string_agg(ro.name, ',' ORDER BY ro.name), '') AS role_names
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles ro ON ro.id = ur.role_id
		GROUP BY u.id
		ORDER BY u.id
	`
	var rows []struct {
		model.User
		RoleNames string `db:"role_names"`
	}
	if err := sqlxSelect(ctx, r.conn(ctx), &rows, query); err != nil {
		return nil, translate(err, "list users")
	}

	users := make([]*model.User, 0, len(rows))
	for i := range rows {
		u := rows[i].User
		u.Roles = splitRoleNames(rows[i].RoleNames)
		users = append(users, &u)
	}
	return users, nil
}

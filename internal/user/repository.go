package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gfourspa/fit-clase-api/internal/auth"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("user not found")

const userColumns = `id, external_id, name, email, password_hash, role, gym_id, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	query := `
		INSERT INTO users (external_id, name, email, password_hash, role, gym_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	var created User
	err := r.db.GetContext(ctx, &created, query, u.ExternalID, u.Name, u.Email, u.PasswordHash, u.Role, u.GymID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`, email)
}

func (r *repository) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1 AND deleted_at IS NULL`, externalID)
}

func (r *repository) LinkExternal(ctx context.Context, id uuid.UUID, externalID, name string) (*User, error) {
	query := `
		UPDATE users
		SET external_id = $2, name = COALESCE(NULLIF($3, ''), name), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	return r.findOne(ctx, query, id, externalID, name)
}

func (r *repository) UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role, gymID *uuid.UUID) (*User, error) {
	query := `
		UPDATE users
		SET role = $2, gym_id = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	return r.findOne(ctx, query, id, role, gymID)
}

func (r *repository) AssignGym(ctx context.Context, id, gymID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET gym_id = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id, gymID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListByGym returns the gym's users; an empty role matches every role.
func (r *repository) ListByGym(ctx context.Context, gymID uuid.UUID, role auth.Role) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE gym_id = $1 AND deleted_at IS NULL AND ($2::text = '' OR role = $2::text)
		ORDER BY name ASC`

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, gymID, string(role)); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

package discipline

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gfourspa/fit-clase-api/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("discipline not found")

const disciplineColumns = `id, name, description, gym_id, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, d *Discipline) (*Discipline, error) {
	query := `
		INSERT INTO disciplines (name, description, gym_id)
		VALUES ($1, $2, $3)
		RETURNING ` + disciplineColumns

	var created Discipline
	if err := r.db.GetContext(ctx, &created, query, d.Name, d.Description, d.GymID); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Discipline, error) {
	query := `SELECT ` + disciplineColumns + ` FROM disciplines WHERE id = $1 AND deleted_at IS NULL`

	var d Discipline
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// List returns the gym's disciplines whose name contains name, ignoring case.
func (r *repository) List(ctx context.Context, gymID uuid.UUID, name string) ([]Discipline, error) {
	query := `
		SELECT ` + disciplineColumns + `
		FROM disciplines
		WHERE gym_id = $1 AND deleted_at IS NULL AND name ILIKE $2
		ORDER BY name ASC`

	disciplines := []Discipline{}
	if err := r.db.SelectContext(ctx, &disciplines, query, gymID, likePattern(name)); err != nil {
		return nil, err
	}
	return disciplines, nil
}

func (r *repository) Update(ctx context.Context, d *Discipline) (*Discipline, error) {
	query := `
		UPDATE disciplines
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + disciplineColumns

	var updated Discipline
	if err := r.db.GetContext(ctx, &updated, query, d.ID, d.Name, d.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE disciplines SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) HasClasses(ctx context.Context, id uuid.UUID) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM classes WHERE discipline_id = $1)`, id)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

package gym

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gfourspa/fit-clase-api/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("gym not found")

const gymColumns = `id, name, address, contact, owner_id, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, g *Gym) (*Gym, error) {
	query := `
		INSERT INTO gyms (name, address, contact, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + gymColumns

	var created Gym
	if err := r.db.GetContext(ctx, &created, query, g.Name, g.Address, g.Contact, g.OwnerID); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Gym, error) {
	query := `SELECT ` + gymColumns + ` FROM gyms WHERE id = $1`

	var g Gym
	if err := r.db.GetContext(ctx, &g, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) List(ctx context.Context) ([]Gym, error) {
	query := `SELECT ` + gymColumns + ` FROM gyms ORDER BY name ASC`

	gyms := []Gym{}
	if err := r.db.SelectContext(ctx, &gyms, query); err != nil {
		return nil, err
	}
	return gyms, nil
}

func (r *repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Gym, error) {
	query := `SELECT ` + gymColumns + ` FROM gyms WHERE id = ANY($1::uuid[]) ORDER BY name ASC`

	gyms := []Gym{}
	if err := r.db.SelectContext(ctx, &gyms, query, db.UUIDArray(ids)); err != nil {
		return nil, err
	}
	return gyms, nil
}

func (r *repository) Update(ctx context.Context, g *Gym) (*Gym, error) {
	query := `
		UPDATE gyms
		SET name = $2, address = $3, contact = $4, owner_id = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + gymColumns

	var updated Gym
	if err := r.db.GetContext(ctx, &updated, query, g.ID, g.Name, g.Address, g.Contact, g.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM gyms WHERE id = $1`, id)
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
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM classes WHERE gym_id = $1)`, id)
}

func (r *repository) IsOwner(ctx context.Context, gymID, userID uuid.UUID) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM gyms WHERE id = $1 AND owner_id = $2)`, gymID, userID)
}

func (r *repository) OwnedGymIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM gyms WHERE owner_id = $1 ORDER BY name ASC`, userID); err != nil {
		return nil, err
	}
	return ids, nil
}

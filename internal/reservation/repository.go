package reservation

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gfourspa/fit-clase-api/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound        = errors.New("reservation not found")
	ErrStatusChanged   = errors.New("reservation is no longer active")
	ErrAlreadyReserved = errors.New("student already holds a seat in this class")
	ErrNoSeats         = errors.New("class is full")
	ErrClassMissing    = errors.New("class not found")
)

const reservationColumns = `id, class_id, student_id, status, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	var res Reservation
	err := r.db.GetContext(ctx, &res, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *repository) FindActive(ctx context.Context, classID, studentID uuid.UUID) (*Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE class_id = $1 AND student_id = $2 AND status = 'RESERVED'`

	var res Reservation
	if err := r.db.GetContext(ctx, &res, query, classID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *repository) CountActive(ctx context.Context, classID uuid.UUID) (int, error) {
	return countActive(ctx, r.db, classID)
}

func (r *repository) CreateWithinCapacity(ctx context.Context, classID, studentID uuid.UUID) (*Reservation, error) {
	var created Reservation
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		capacity, err := lockClass(ctx, tx, classID)
		if err != nil {
			return err
		}

		held, err := db.Exists(ctx, tx,
			`SELECT EXISTS(SELECT 1 FROM reservations WHERE class_id = $1 AND student_id = $2 AND status = 'RESERVED')`,
			classID, studentID,
		)
		if err != nil {
			return err
		}
		if held {
			return ErrAlreadyReserved
		}

		taken, err := countActive(ctx, tx, classID)
		if err != nil {
			return err
		}
		if taken >= capacity {
			return ErrNoSeats
		}

		return tx.GetContext(ctx, &created, `
			INSERT INTO reservations (class_id, student_id, status)
			VALUES ($1, $2, 'RESERVED')
			RETURNING `+reservationColumns,
			classID, studentID,
		)
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyReserved
		}
		return nil, err
	}
	return &created, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id, classID uuid.UUID, to Status) (*Reservation, error) {
	var updated Reservation
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockClass(ctx, tx, classID); err != nil {
			return err
		}

		err := tx.GetContext(ctx, &updated, `
			UPDATE reservations
			SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'RESERVED'
			RETURNING `+reservationColumns,
			id, to,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStatusChanged
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID, gymID uuid.UUID) ([]WithClass, error) {
	query := `
		SELECT r.id, r.class_id, r.student_id, r.status, r.created_at, r.updated_at,
			c.gym_id, c.discipline_id, d.name AS discipline_name, c.teacher_id,
			to_char(c.date, 'YYYY-MM-DD') AS date,
			to_char(c.start_time, 'HH24:MI') AS start_time,
			to_char(c.end_time, 'HH24:MI') AS end_time
		FROM reservations r
		JOIN classes c ON c.id = r.class_id
		JOIN disciplines d ON d.id = c.discipline_id
		WHERE r.student_id = $1 AND c.gym_id = $2
		ORDER BY r.created_at DESC`

	list := []WithClass{}
	if err := r.db.SelectContext(ctx, &list, query, studentID, gymID); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) ListByClass(ctx context.Context, classID uuid.UUID) ([]RosterEntry, error) {
	query := `
		SELECT r.id, r.class_id, r.student_id, r.status, r.created_at, r.updated_at,
			u.name AS student_name, u.email AS student_email
		FROM reservations r
		JOIN users u ON u.id = r.student_id
		WHERE r.class_id = $1
		ORDER BY r.created_at ASC`

	roster := []RosterEntry{}
	if err := r.db.SelectContext(ctx, &roster, query, classID); err != nil {
		return nil, err
	}
	return roster, nil
}

func lockClass(ctx context.Context, tx *sqlx.Tx, classID uuid.UUID) (int, error) {
	var capacity int
	err := tx.GetContext(ctx, &capacity, `SELECT capacity FROM classes WHERE id = $1 FOR UPDATE`, classID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrClassMissing
	}
	return capacity, err
}

func countActive(ctx context.Context, q sqlx.QueryerContext, classID uuid.UUID) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n,
		`SELECT COUNT(*) FROM reservations WHERE class_id = $1 AND status = 'RESERVED'`, classID)
	return n, err
}

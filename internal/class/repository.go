package class

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gfourspa/fit-clase-api/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("class not found")

const (
	scheduleColumns = `
		to_char(c.date, 'YYYY-MM-DD') AS date,
		to_char(c.start_time, 'HH24:MI') AS start_time,
		to_char(c.end_time, 'HH24:MI') AS end_time`

	reservedColumn = `
		(SELECT COUNT(*) FROM reservations r WHERE r.class_id = c.id AND r.status = 'RESERVED') AS reserved`

	classSelect = `
		SELECT c.id, c.gym_id, c.discipline_id, c.teacher_id,` + scheduleColumns + `,
			c.capacity, c.created_at, c.updated_at,` + reservedColumn + `
		FROM classes c`
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Class) (*Class, error) {
	query := `
		INSERT INTO classes AS c (gym_id, discipline_id, teacher_id, date, start_time, end_time, capacity)
		VALUES ($1, $2, $3, $4::date, $5::time, $6::time, $7)
		RETURNING c.id, c.gym_id, c.discipline_id, c.teacher_id,` + scheduleColumns + `,
			c.capacity, c.created_at, c.updated_at, 0 AS reserved`

	var created Class
	err := r.db.GetContext(ctx, &created, query,
		c.GymID, c.DisciplineID, c.TeacherID, c.Date, c.StartTime, c.EndTime, c.Capacity,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Class, error) {
	var c Class
	if err := r.db.GetContext(ctx, &c, classSelect+` WHERE c.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, f Filter) ([]Class, error) {
	where, args := buildWhere(f)
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`%s WHERE %s
		ORDER BY c.date ASC, c.start_time ASC, c.id ASC
		LIMIT $%d OFFSET $%d`, classSelect, where, len(args)-1, len(args))

	classes := []Class{}
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *repository) Count(ctx context.Context, f Filter) (int, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM classes c WHERE `+where, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) ListByTeacher(ctx context.Context, teacherID uuid.UUID, f Filter) ([]Class, error) {
	where, args := buildWhere(f)
	args = append(args, teacherID)
	query := fmt.Sprintf(`%s WHERE %s AND c.teacher_id = $%d
		ORDER BY c.date ASC, c.start_time ASC, c.id ASC`, classSelect, where, len(args))

	classes := []Class{}
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, apply func(c *Class) error) (*Class, error) {
	lockQuery := `
		SELECT c.id, c.gym_id, c.discipline_id, c.teacher_id,` + scheduleColumns + `,
			c.capacity, c.created_at, c.updated_at, 0 AS reserved
		FROM classes c
		WHERE c.id = $1
		FOR UPDATE`

	updateQuery := `
		UPDATE classes AS c
		SET discipline_id = $2, teacher_id = $3, date = $4::date,
			start_time = $5::time, end_time = $6::time, capacity = $7, updated_at = NOW()
		WHERE c.id = $1
		RETURNING c.id, c.gym_id, c.discipline_id, c.teacher_id,` + scheduleColumns + `,
			c.capacity, c.created_at, c.updated_at,` + reservedColumn

	var updated Class
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var current Class
		if err := tx.GetContext(ctx, &current, lockQuery, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		err := tx.GetContext(ctx, &current.Reserved,
			`SELECT COUNT(*) FROM reservations WHERE class_id = $1 AND status = 'RESERVED'`, id)
		if err != nil {
			return err
		}

		if err := apply(&current); err != nil {
			return err
		}

		return tx.GetContext(ctx, &updated, updateQuery,
			current.ID, current.DisciplineID, current.TeacherID,
			current.Date, current.StartTime, current.EndTime, current.Capacity,
		)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
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

func (r *repository) HasReservations(ctx context.Context, id uuid.UUID) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM reservations WHERE class_id = $1)`, id)
}

func buildWhere(f Filter) (string, []any) {
	conds := []string{"TRUE"}
	var args []any

	if !f.AllGyms {
		args = append(args, db.UUIDArray(f.GymIDs))
		conds = append(conds, fmt.Sprintf("c.gym_id = ANY($%d::uuid[])", len(args)))
	}
	if f.Date != "" {
		args = append(args, f.Date)
		conds = append(conds, fmt.Sprintf("c.date = $%d::date", len(args)))
	}
	if f.DisciplineID != nil {
		args = append(args, *f.DisciplineID)
		conds = append(conds, fmt.Sprintf("c.discipline_id = $%d", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

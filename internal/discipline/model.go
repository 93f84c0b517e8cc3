package discipline

import (
	"time"

	"github.com/google/uuid"
)

type Discipline struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	GymID       uuid.UUID `db:"gym_id" json:"gym_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CreateDisciplineRequest struct {
	Name        string     `json:"name" binding:"required,max=255"`
	Description string     `json:"description" binding:"max=2000"`
	GymID       *uuid.UUID `json:"gym_id"`
}

type UpdateDisciplineRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// ListQuery filters disciplines. GymID defaults to the caller's gym.
type ListQuery struct {
	GymID string `form:"gym_id" binding:"omitempty,uuid"`
	Name  string `form:"name" binding:"max=255"`
}

func (q ListQuery) Gym() *uuid.UUID {
	id, err := uuid.Parse(q.GymID)
	if err != nil {
		return nil
	}
	return &id
}

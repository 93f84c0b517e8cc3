package gym

import (
	"time"

	"github.com/google/uuid"
)

type Gym struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Address   string     `db:"address" json:"address"`
	Contact   string     `db:"contact" json:"contact"`
	OwnerID   *uuid.UUID `db:"owner_id" json:"owner_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateGymRequest struct {
	Name    string     `json:"name" binding:"required,max=255"`
	Address string     `json:"address" binding:"required,max=255"`
	Contact string     `json:"contact" binding:"max=255"`
	OwnerID *uuid.UUID `json:"owner_id"`
}

// UpdateGymRequest changes only the fields that are present.
type UpdateGymRequest struct {
	Name    *string    `json:"name" binding:"omitempty,min=1,max=255"`
	Address *string    `json:"address" binding:"omitempty,min=1,max=255"`
	Contact *string    `json:"contact" binding:"omitempty,max=255"`
	OwnerID *uuid.UUID `json:"owner_id"`
}

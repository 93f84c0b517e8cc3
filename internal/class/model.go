package class

import (
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Class is a scheduled session. Date and times are wall-clock values in the
// service time zone.
type Class struct {
	ID           uuid.UUID `db:"id" json:"id"`
	GymID        uuid.UUID `db:"gym_id" json:"gym_id"`
	DisciplineID uuid.UUID `db:"discipline_id" json:"discipline_id"`
	TeacherID    uuid.UUID `db:"teacher_id" json:"teacher_id"`
	Date         string    `db:"date" json:"date" example:"2025-03-14"`
	StartTime    string    `db:"start_time" json:"start_time" example:"18:30"`
	EndTime      string    `db:"end_time" json:"end_time" example:"19:30"`
	Capacity     int       `db:"capacity" json:"capacity"`
	Reserved     int       `db:"reserved" json:"reserved"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (c *Class) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, c.Date+" "+c.StartTime, loc)
}

func (c *Class) SeatsLeft() int {
	if c.Reserved >= c.Capacity {
		return 0
	}
	return c.Capacity - c.Reserved
}

type CreateClassRequest struct {
	GymID        *uuid.UUID `json:"gym_id"`
	DisciplineID uuid.UUID  `json:"discipline_id" binding:"required"`
	TeacherID    uuid.UUID  `json:"teacher_id" binding:"required"`
	Date         string     `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime    string     `json:"start_time" binding:"required,datetime=15:04"`
	EndTime      string     `json:"end_time" binding:"required,datetime=15:04"`
	Capacity     int        `json:"capacity" binding:"required,min=1,max=1000"`
}

type UpdateClassRequest struct {
	DisciplineID *uuid.UUID `json:"discipline_id"`
	TeacherID    *uuid.UUID `json:"teacher_id"`
	Date         *string    `json:"date" binding:"omitempty,datetime=2006-01-02"`
	StartTime    *string    `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime      *string    `json:"end_time" binding:"omitempty,datetime=15:04"`
	Capacity     *int       `json:"capacity" binding:"omitempty,min=1,max=1000"`
}

type ListQuery struct {
	Date         string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	DisciplineID string `form:"discipline_id" binding:"omitempty,uuid"`
	GymID        string `form:"gym_id" binding:"omitempty,uuid"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type ListResult struct {
	Classes []Class `json:"classes"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	Limit   int     `json:"limit"`
}

// Filter is a validated ListQuery restricted to what the caller may see.
type Filter struct {
	Date         string
	DisciplineID *uuid.UUID
	GymIDs       []uuid.UUID
	AllGyms      bool
	Limit        int
	Offset       int
}

package reservation

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusReserved Status = "RESERVED"
	StatusCanceled Status = "CANCELED"
	StatusAttended Status = "ATTENDED"
	StatusMissed   Status = "MISSED"
)

// Active reports whether the reservation still holds a seat. Every other
// status is terminal.
func (s Status) Active() bool {
	return s == StatusReserved
}

type Reservation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ClassID   uuid.UUID `db:"class_id" json:"class_id"`
	StudentID uuid.UUID `db:"student_id" json:"student_id"`
	Status    Status    `db:"status" json:"status" example:"RESERVED"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WithClass is a student's reservation joined with its class schedule.
type WithClass struct {
	Reservation
	GymID          uuid.UUID `db:"gym_id" json:"gym_id"`
	DisciplineID   uuid.UUID `db:"discipline_id" json:"discipline_id"`
	DisciplineName string    `db:"discipline_name" json:"discipline_name"`
	TeacherID      uuid.UUID `db:"teacher_id" json:"teacher_id"`
	Date           string    `db:"date" json:"date" example:"2025-03-14"`
	StartTime      string    `db:"start_time" json:"start_time" example:"18:30"`
	EndTime        string    `db:"end_time" json:"end_time" example:"19:30"`
}

// RosterEntry is one line of a class roster.
type RosterEntry struct {
	Reservation
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
}

type CreateReservationRequest struct {
	ClassID uuid.UUID `json:"class_id" binding:"required"`
}

type AttendanceQuery struct {
	Attended *bool `form:"attended" binding:"required"`
}

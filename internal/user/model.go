package user

import (
	"time"

	"github.com/gfourspa/fit-clase-api/internal/auth"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ExternalID   *string    `db:"external_id" json:"-"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	Role         auth.Role  `db:"role" json:"role"`
	GymID        *uuid.UUID `db:"gym_id" json:"gym_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

func (u *User) Principal() *auth.Principal {
	return &auth.Principal{ID: u.ID, Role: u.Role, GymID: u.GymID}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type AssignRoleRequest struct {
	Role  auth.Role  `json:"role" binding:"required,oneof=SUPER_ADMIN GYM_ADMIN TEACHER STUDENT"`
	GymID *uuid.UUID `json:"gym_id"`
}

type AddUsersRequest struct {
	Emails []string `json:"emails" binding:"required,min=1,max=100,dive,required,email"`
}

type FailedEmail struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type AddUsersResponse struct {
	Added  []string      `json:"added"`
	Failed []FailedEmail `json:"failed"`
}

type ListUsersQuery struct {
	Role auth.Role `form:"role" binding:"omitempty,oneof=SUPER_ADMIN GYM_ADMIN TEACHER STUDENT"`
}

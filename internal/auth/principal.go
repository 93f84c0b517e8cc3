package auth

import (
	"slices"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleGymAdmin   Role = "GYM_ADMIN"
	RoleTeacher    Role = "TEACHER"
	RoleStudent    Role = "STUDENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleGymAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// Principal is the authenticated caller. GymID is nil only for super admins
// and for users that have not been assigned to a gym yet.
type Principal struct {
	ID    uuid.UUID  `json:"id"`
	Role  Role       `json:"role"`
	GymID *uuid.UUID `json:"gym_id,omitempty"`
}

func (p *Principal) HasRole(roles ...Role) bool {
	return slices.Contains(roles, p.Role)
}

func (p *Principal) InGym(gymID uuid.UUID) bool {
	return p.GymID != nil && *p.GymID == gymID
}

func (p *Principal) IsSuperAdmin() bool {
	return p.Role == RoleSuperAdmin
}

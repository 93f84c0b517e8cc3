package user

import (
	"context"
	"errors"
	"strings"

	"github.com/gfourspa/fit-clase-api/internal/apperr"
	"github.com/gfourspa/fit-clase-api/internal/auth"
	"github.com/gfourspa/fit-clase-api/internal/db"
	"github.com/gfourspa/fit-clase-api/internal/logger"

	"github.com/google/uuid"
)

var (
	ErrEmailExists        = apperr.Conflict("email already registered")
	ErrInvalidCredentials = apperr.Unauthenticated("invalid email or password")
	ErrInvalidRefresh     = apperr.Unauthenticated("invalid or expired refresh token")
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrMissingEmail       = apperr.Unauthenticated("identity has no email")
	ErrGymRequired        = apperr.BadRequest("gym_id is required for this role")
	ErrRoleDenied         = apperr.Unauthorized("not allowed to assign this role")
	ErrSuperAdminOnly     = apperr.Unauthorized("only a super admin can do this")
	ErrUnknownGym         = apperr.NotFound("gym not found")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error)
	Me(ctx context.Context, p *auth.Principal) (*User, error)
	ResolveExternal(ctx context.Context, id auth.ExternalIdentity) (*auth.Principal, error)
	AssignRole(ctx context.Context, p *auth.Principal, userID uuid.UUID, req AssignRoleRequest) (*User, error)
	AddUsersToGym(ctx context.Context, p *auth.Principal, gymID uuid.UUID, emails []string) (*AddUsersResponse, error)
	ListGymUsers(ctx context.Context, p *auth.Principal, gymID uuid.UUID, role auth.Role) ([]User, error)
	RemoveUser(ctx context.Context, p *auth.Principal, id uuid.UUID) error
}

type service struct {
	repo          Repository
	policy        *auth.Policy
	accessSecret  string
	refreshSecret string
}

func NewService(repo Repository, policy *auth.Policy, accessSecret, refreshSecret string) Service {
	return &service{
		repo:          repo,
		policy:        policy,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u, err := s.repo.Create(ctx, &User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: &passwordHash,
		Role:         auth.RoleStudent,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, apperr.Internal(err)
	}

	logger.Info("User registered", "user_id", u.ID.String())
	return s.issue(u)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Internal(err)
	}

	if u.PasswordHash == nil || !auth.CheckPassword(*u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(u)
}

// Refresh reloads the user so role or gym changes since login are reflected.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	claims, err := auth.ValidateToken(refreshToken, s.refreshSecret)
	if err != nil || claims.TokenType != auth.TokenTypeRefresh {
		return nil, ErrInvalidRefresh
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	accessToken, err := auth.GenerateAccessToken(*u.Principal(), u.Email, s.accessSecret)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &RefreshResponse{AccessToken: accessToken}, nil
}

func (s *service) Me(ctx context.Context, p *auth.Principal) (*User, error) {
	return s.find(ctx, p.ID)
}

func (s *service) ResolveExternal(ctx context.Context, id auth.ExternalIdentity) (*auth.Principal, error) {
	u, err := s.repo.FindByExternalID(ctx, id.Subject)
	if err == nil {
		return u.Principal(), nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	if id.Email == "" {
		return nil, ErrMissingEmail
	}

	existing, err := s.repo.FindByEmail(ctx, id.Email)
	switch {
	case err == nil:
		u, err = s.repo.LinkExternal(ctx, existing.ID, id.Subject, id.Name)
	case errors.Is(err, ErrNotFound):
		externalID := id.Subject
		u, err = s.repo.Create(ctx, &User{
			ExternalID: &externalID,
			Name:       id.Name,
			Email:      strings.ToLower(id.Email),
			Role:       auth.RoleStudent,
		})
	}
	if err != nil {
		// A concurrent request may have provisioned the same identity.
		if db.IsUniqueViolation(err) {
			if u, err := s.repo.FindByExternalID(ctx, id.Subject); err == nil {
				return u.Principal(), nil
			}
		}
		return nil, apperr.Internal(err)
	}

	logger.Info("External identity provisioned", "user_id", u.ID.String())
	return u.Principal(), nil
}

func (s *service) AssignRole(ctx context.Context, p *auth.Principal, userID uuid.UUID, req AssignRoleRequest) (*User, error) {
	gymID := req.GymID
	switch {
	case req.Role == auth.RoleSuperAdmin:
		if !p.IsSuperAdmin() {
			return nil, ErrRoleDenied
		}
		gymID = nil
	case gymID == nil:
		return nil, ErrGymRequired
	}

	if !p.IsSuperAdmin() {
		if req.Role != auth.RoleTeacher && req.Role != auth.RoleStudent {
			return nil, ErrRoleDenied
		}
		if err := s.policy.ManageGym(ctx, p, *gymID); err != nil {
			return nil, err
		}
	}

	target, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	// A gym admin cannot take users away from another gym or demote admins.
	if !p.IsSuperAdmin() {
		if target.Role == auth.RoleSuperAdmin || target.Role == auth.RoleGymAdmin {
			return nil, ErrRoleDenied
		}
		if target.GymID != nil && *target.GymID != *gymID {
			return nil, ErrRoleDenied
		}
	}

	u, err := s.repo.UpdateRole(ctx, userID, req.Role, gymID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrUserNotFound
		case db.IsForeignKeyViolation(err):
			return nil, ErrUnknownGym
		}
		return nil, apperr.Internal(err)
	}

	logger.Info("Role assigned",
		"user_id", u.ID.String(),
		"role", string(u.Role),
		"by", p.ID.String(),
	)
	return u, nil
}

func (s *service) AddUsersToGym(ctx context.Context, p *auth.Principal, gymID uuid.UUID, emails []string) (*AddUsersResponse, error) {
	if err := s.policy.ManageGym(ctx, p, gymID); err != nil {
		return nil, err
	}

	resp := &AddUsersResponse{Added: []string{}, Failed: []FailedEmail{}}
	for _, email := range emails {
		u, err := s.repo.FindByEmail(ctx, email)
		if err != nil {
			reason := "user not found"
			if !errors.Is(err, ErrNotFound) {
				reason = "lookup failed"
				logger.Errorf("Failed to look up %s: %v", email, err)
			}
			resp.Failed = append(resp.Failed, FailedEmail{Email: email, Reason: reason})
			continue
		}

		if u.GymID != nil && *u.GymID != gymID {
			resp.Failed = append(resp.Failed, FailedEmail{Email: email, Reason: "user belongs to another gym"})
			continue
		}

		if err := s.repo.AssignGym(ctx, u.ID, gymID); err != nil {
			if db.IsForeignKeyViolation(err) {
				return nil, ErrUnknownGym
			}
			logger.Errorf("Failed to add %s to gym %s: %v", email, gymID, err)
			resp.Failed = append(resp.Failed, FailedEmail{Email: email, Reason: "update failed"})
			continue
		}
		resp.Added = append(resp.Added, email)
	}

	return resp, nil
}

func (s *service) ListGymUsers(ctx context.Context, p *auth.Principal, gymID uuid.UUID, role auth.Role) ([]User, error) {
	if err := s.policy.ManageGym(ctx, p, gymID); err != nil {
		return nil, err
	}

	users, err := s.repo.ListByGym(ctx, gymID, role)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *service) RemoveUser(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if !p.IsSuperAdmin() {
		return ErrSuperAdminOnly
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUserNotFound
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *service) issue(u *User) (*LoginResponse, error) {
	accessToken, refreshToken, err := auth.GenerateTokens(*u.Principal(), u.Email, s.accessSecret, s.refreshSecret)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *u,
	}, nil
}

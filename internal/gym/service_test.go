package gym

import (
	"context"
	"errors"
	"testing"

	"github.com/gfourspa/fit-clase-api/internal/apperr"
	"github.com/gfourspa/fit-clase-api/internal/auth"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, g *Gym) (*Gym, error) {
	args := m.Called(ctx, g)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Gym, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]Gym, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Gym), args.Error(1)
}

func (m *MockRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Gym, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Gym), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, g *Gym) (*Gym, error) {
	args := m.Called(ctx, g)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) HasClasses(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) IsOwner(ctx context.Context, gymID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, gymID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) OwnedGymIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func superAdmin() *auth.Principal {
	return &auth.Principal{ID: uuid.New(), Role: auth.RoleSuperAdmin}
}

func member(role auth.Role, gymID uuid.UUID) *auth.Principal {
	return &auth.Principal{ID: uuid.New(), Role: role, GymID: &gymID}
}

func newTestService(repo *MockRepository) Service {
	return NewService(repo, auth.NewPolicy(auth.OwnershipByMembership, repo))
}

func TestService_CreateGym(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo)
	req := CreateGymRequest{Name: "Gym A", Address: "Calle 1"}

	repo.On("Create", ctx, mock.MatchedBy(func(g *Gym) bool { return g.Name == "Gym A" })).
		Return(&Gym{ID: uuid.New(), Name: "Gym A", Address: "Calle 1"}, nil)

	g, err := svc.CreateGym(ctx, superAdmin(), req)
	require.NoError(t, err)
	assert.Equal(t, "Gym A", g.Name)

	_, err = svc.CreateGym(ctx, member(auth.RoleGymAdmin, uuid.New()), req)
	assert.ErrorIs(t, err, ErrSuperAdminOnly)
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestService_CreateGymUnknownOwner(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo)
	owner := uuid.New()

	repo.On("Create", ctx, mock.Anything).Return(nil, &pq.Error{Code: "23503"})

	_, err := svc.CreateGym(ctx, superAdmin(), CreateGymRequest{Name: "Gym A", Address: "x", OwnerID: &owner})
	assert.ErrorIs(t, err, ErrOwnerNotFound)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestService_ListGymsScoped(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo)
	gymID := uuid.New()

	repo.On("List", ctx).Return([]Gym{{ID: gymID}, {ID: uuid.New()}}, nil)
	repo.On("ListByIDs", ctx, []uuid.UUID{gymID}).Return([]Gym{{ID: gymID}}, nil)

	all, err := svc.ListGyms(ctx, superAdmin())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListGyms(ctx, member(auth.RoleStudent, gymID))
	require.NoError(t, err)
	assert.Len(t, own, 1)

	_, err = svc.ListGyms(ctx, &auth.Principal{ID: uuid.New(), Role: auth.RoleStudent})
	assert.ErrorIs(t, err, auth.ErrNoTenant)
}

func TestService_GetGym(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo)
	gymID, otherID := uuid.New(), uuid.New()

	repo.On("GetByID", ctx, gymID).Return(&Gym{ID: gymID, Name: "Gym A"}, nil)
	repo.On("GetByID", ctx, otherID).Return(nil, ErrNotFound)

	g, err := svc.GetGym(ctx, member(auth.RoleTeacher, gymID), gymID)
	require.NoError(t, err)
	assert.Equal(t, gymID, g.ID)

	_, err = svc.GetGym(ctx, member(auth.RoleTeacher, gymID), otherID)
	assert.ErrorIs(t, err, auth.ErrGymReadDenied)

	_, err = svc.GetGym(ctx, superAdmin(), otherID)
	assert.ErrorIs(t, err, ErrGymNotFound)
}

func TestService_UpdateGym(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo)
	gymID := uuid.New()
	name := "Gym Renamed"
	owner := uuid.New()

	repo.On("GetByID", ctx, gymID).Return(&Gym{ID: gymID, Name: "Gym A", Address: "x"}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(g *Gym) bool {
		return g.Name == name && g.Address == "x"
	})).Return(&Gym{ID: gymID, Name: name, Address: "x"}, nil)

	admin := member(auth.RoleGymAdmin, gymID)
	g, err := svc.UpdateGym(ctx, admin, gymID, UpdateGymRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, g.Name)

	_, err = svc.UpdateGym(ctx, admin, gymID, UpdateGymRequest{OwnerID: &owner})
	assert.ErrorIs(t, err, ErrOwnerChangeDenied)

	_, err = svc.UpdateGym(ctx, member(auth.RoleGymAdmin, uuid.New()), gymID, UpdateGymRequest{Name: &name})
	assert.ErrorIs(t, err, auth.ErrGymManageDenied)
}

func TestService_DeleteGym(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo)
	busy, empty, missing := uuid.New(), uuid.New(), uuid.New()

	repo.On("HasClasses", ctx, busy).Return(true, nil)
	repo.On("HasClasses", ctx, empty).Return(false, nil)
	repo.On("HasClasses", ctx, missing).Return(false, nil)
	repo.On("Delete", ctx, empty).Return(nil)
	repo.On("Delete", ctx, missing).Return(ErrNotFound)

	assert.ErrorIs(t, svc.DeleteGym(ctx, superAdmin(), busy), ErrGymHasClasses)
	assert.NoError(t, svc.DeleteGym(ctx, superAdmin(), empty))
	assert.ErrorIs(t, svc.DeleteGym(ctx, superAdmin(), missing), ErrGymNotFound)
	assert.ErrorIs(t, svc.DeleteGym(ctx, member(auth.RoleGymAdmin, empty), empty), ErrSuperAdminOnly)
}

func TestService_StorageFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("List", ctx).Return(nil, errors.New("connection reset"))

	_, err := svc.ListGyms(ctx, superAdmin())
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

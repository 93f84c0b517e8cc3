package reservation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gfourspa/fit-clase-api/internal/api"
	"github.com/gfourspa/fit-clase-api/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, p *auth.Principal, classID uuid.UUID) (*Reservation, error) {
	args := m.Called(ctx, p, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockService) Cancel(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Reservation, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockService) MarkAttendance(ctx context.Context, p *auth.Principal, classID, studentID uuid.UUID, attended bool) (*Reservation, error) {
	args := m.Called(ctx, p, classID, studentID, attended)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockService) ListMine(ctx context.Context, p *auth.Principal) ([]WithClass, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]WithClass), args.Error(1)
}

func (m *MockService) ListByClass(ctx context.Context, p *auth.Principal, classID uuid.UUID) ([]RosterEntry, error) {
	args := m.Called(ctx, p, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RosterEntry), args.Error(1)
}

func setupRouter(svc Service, p *auth.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if p != nil {
			auth.SetPrincipal(c, p)
		}
		c.Next()
	})
	router.POST("/reservations", h.CreateReservation)
	router.GET("/reservations/me", h.ListMyReservations)
	router.PUT("/reservations/:id/cancel", h.CancelReservation)
	router.PUT("/classes/:id/students/:studentId/attendance", h.MarkAttendance)
	router.GET("/classes/:id/reservations", h.ListClassReservations)
	return router
}

func testPrincipal(role auth.Role) *auth.Principal {
	gymID := uuid.New()
	return &auth.Principal{ID: uuid.New(), Role: role, GymID: &gymID}
}

func TestHandler_CreateReservation(t *testing.T) {
	svc := new(MockService)
	p := testPrincipal(auth.RoleStudent)
	router := setupRouter(svc, p)
	classID := uuid.New()

	svc.On("Create", mock.Anything, p, classID).
		Return(&Reservation{ID: uuid.New(), ClassID: classID, StudentID: p.ID, Status: StatusReserved}, nil)

	body := `{"class_id":"` + classID.String() + `"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusCreated, w.Code)
	var got Reservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, StatusReserved, got.Status)
	assert.Equal(t, classID, got.ClassID)
}

func TestHandler_CreateReservationErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"full", ErrClassFull, http.StatusBadRequest, "no seats available"},
		{"duplicate", ErrAlreadyBooked, http.StatusConflict, "already reserved"},
		{"cross tenant", ErrCrossTenant, http.StatusForbidden, "cross-tenant booking"},
		{"past class", ErrPastClass, http.StatusBadRequest, "cannot book past class"},
		{"missing class", ErrClassNotFound, http.StatusNotFound, "class not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			p := testPrincipal(auth.RoleStudent)
			router := setupRouter(svc, p)
			classID := uuid.New()

			svc.On("Create", mock.Anything, p, classID).Return(nil, tt.err)

			body := `{"class_id":"` + classID.String() + `"}`
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(body)))

			assert.Equal(t, tt.status, w.Code)
			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.message, resp.Error)
		})
	}
}

func TestHandler_CreateReservationValidation(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc, testPrincipal(auth.RoleStudent))

	for _, body := range []string{`{}`, `{"class_id":"nope"}`, `not json`} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Unauthenticated(t *testing.T) {
	router := setupRouter(new(MockService), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_ListMyReservations(t *testing.T) {
	svc := new(MockService)
	p := testPrincipal(auth.RoleStudent)
	router := setupRouter(svc, p)

	svc.On("ListMine", mock.Anything, p).Return([]WithClass{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandler_CancelReservation(t *testing.T) {
	svc := new(MockService)
	p := testPrincipal(auth.RoleStudent)
	router := setupRouter(svc, p)
	id := uuid.New()

	svc.On("Cancel", mock.Anything, p, id).Return(nil, ErrWindowPassed)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/reservations/"+id.String()+"/cancel", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cancellation window passed")
}

func TestHandler_CancelReservationBadID(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc, testPrincipal(auth.RoleStudent))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/reservations/42/cancel", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_MarkAttendance(t *testing.T) {
	svc := new(MockService)
	p := testPrincipal(auth.RoleTeacher)
	router := setupRouter(svc, p)
	classID, studentID := uuid.New(), uuid.New()

	svc.On("MarkAttendance", mock.Anything, p, classID, studentID, false).
		Return(&Reservation{ID: uuid.New(), Status: StatusMissed}, nil)

	url := "/classes/" + classID.String() + "/students/" + studentID.String() + "/attendance?attended=false"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, url, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"MISSED"`)
}

func TestHandler_MarkAttendanceRequiresFlag(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc, testPrincipal(auth.RoleTeacher))

	url := "/classes/" + uuid.NewString() + "/students/" + uuid.NewString() + "/attendance"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, url, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "MarkAttendance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_ListClassReservations(t *testing.T) {
	svc := new(MockService)
	p := testPrincipal(auth.RoleGymAdmin)
	router := setupRouter(svc, p)
	classID := uuid.New()

	svc.On("ListByClass", mock.Anything, p, classID).Return([]RosterEntry{{StudentName: "Ana"}}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes/"+classID.String()+"/reservations", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"student_name":"Ana"`)
}

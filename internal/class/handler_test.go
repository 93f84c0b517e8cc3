package class

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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

func (m *MockService) CreateClass(ctx context.Context, p *auth.Principal, req CreateClassRequest) (*Class, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Class), args.Error(1)
}

func (m *MockService) ListClasses(ctx context.Context, p *auth.Principal, q ListQuery) (*ListResult, error) {
	args := m.Called(ctx, p, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ListResult), args.Error(1)
}

func (m *MockService) GetClass(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Class, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Class), args.Error(1)
}

func (m *MockService) UpdateClass(ctx context.Context, p *auth.Principal, id uuid.UUID, req UpdateClassRequest) (*Class, error) {
	args := m.Called(ctx, p, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Class), args.Error(1)
}

func (m *MockService) DeleteClass(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

func (m *MockService) ListClassesByTeacher(ctx context.Context, p *auth.Principal, teacherID uuid.UUID) ([]Class, error) {
	args := m.Called(ctx, p, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Class), args.Error(1)
}

func setupRouter(svc Service, p *auth.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		auth.SetPrincipal(c, p)
		c.Next()
	})
	router.POST("/classes", h.CreateClass)
	router.GET("/classes", h.ListClasses)
	router.GET("/classes/:id", h.GetClass)
	router.PUT("/classes/:id", h.UpdateClass)
	router.DELETE("/classes/:id", h.DeleteClass)
	router.GET("/teachers/:id/classes", h.ListClassesByTeacher)
	return router
}

func testPrincipal(role auth.Role) *auth.Principal {
	gymID := uuid.New()
	return &auth.Principal{ID: uuid.New(), Role: role, GymID: &gymID}
}

func TestHandler_CreateClassValidation(t *testing.T) {
	router := setupRouter(new(MockService), testPrincipal(auth.RoleGymAdmin))
	valid := map[string]any{
		"discipline_id": uuid.NewString(),
		"teacher_id":    uuid.NewString(),
		"date":          "2025-03-14",
		"start_time":    "18:30",
		"end_time":      "19:30",
		"capacity":      10,
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"bad date", func(m map[string]any) { m["date"] = "14/03/2025" }},
		{"bad time", func(m map[string]any) { m["start_time"] = "6pm" }},
		{"zero capacity", func(m map[string]any) { m["capacity"] = 0 }},
		{"missing teacher", func(m map[string]any) { delete(m, "teacher_id") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]any{}
			for k, v := range valid {
				body[k] = v
			}
			tt.mutate(body)
			data, _ := json.Marshal(body)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/classes", bytes.NewBuffer(data)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandler_CreateClass(t *testing.T) {
	svc := new(MockService)
	p := testPrincipal(auth.RoleGymAdmin)
	router := setupRouter(svc, p)

	svc.On("CreateClass", mock.Anything, p, mock.MatchedBy(func(req CreateClassRequest) bool {
		return req.Capacity == 10 && req.StartTime == "18:30"
	})).Return(&Class{ID: uuid.New(), Capacity: 10}, nil)

	body := `{"discipline_id":"` + uuid.NewString() + `","teacher_id":"` + uuid.NewString() +
		`","date":"2025-03-14","start_time":"18:30","end_time":"19:30","capacity":10}`

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/classes", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_ListClassesQuery(t *testing.T) {
	svc := new(MockService)
	p := testPrincipal(auth.RoleStudent)
	router := setupRouter(svc, p)

	svc.On("ListClasses", mock.Anything, p, ListQuery{Date: "2025-03-14", Page: 2, Limit: 5}).
		Return(&ListResult{Classes: []Class{}, Total: 0, Page: 2, Limit: 5}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes?date=2025-03-14&page=2&limit=5", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var got ListResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Page)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_GetClassCrossTenant(t *testing.T) {
	svc := new(MockService)
	p := testPrincipal(auth.RoleStudent)
	router := setupRouter(svc, p)
	id := uuid.New()

	svc.On("GetClass", mock.Anything, p, id).Return(nil, auth.ErrGymReadDenied)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes/"+id.String(), nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_DeleteClassWithReservations(t *testing.T) {
	svc := new(MockService)
	p := testPrincipal(auth.RoleGymAdmin)
	router := setupRouter(svc, p)
	id := uuid.New()

	svc.On("DeleteClass", mock.Anything, p, id).Return(ErrClassHasBookings)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/classes/"+id.String(), nil))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_ListClassesByTeacher(t *testing.T) {
	svc := new(MockService)
	p := testPrincipal(auth.RoleTeacher)
	router := setupRouter(svc, p)

	svc.On("ListClassesByTeacher", mock.Anything, p, p.ID).Return([]Class{{ID: uuid.New()}}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/teachers/"+p.ID.String()+"/classes", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

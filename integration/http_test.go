package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gfourspa/fit-clase-api/internal/auth"
	"github.com/gfourspa/fit-clase-api/internal/class"
	"github.com/gfourspa/fit-clase-api/internal/config"
	"github.com/gfourspa/fit-clase-api/internal/discipline"
	"github.com/gfourspa/fit-clase-api/internal/gym"
	"github.com/gfourspa/fit-clase-api/internal/reservation"
	"github.com/gfourspa/fit-clase-api/internal/server"
	"github.com/gfourspa/fit-clase-api/internal/user"

	"github.com/gin-gonic/gin"
)

func (s *Suite) newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Port:           "0",
		AuthProvider:   config.AuthProviderLocal,
		JWTSecret:      accessSecret,
		ServiceName:    "fit-clase-api-it",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
	srv := server.New(cfg, s.db, auth.NewLocalProvider(accessSecret), server.Handlers{
		User:        user.NewHandler(s.users),
		Gym:         gym.NewHandler(s.gyms),
		Discipline:  discipline.NewHandler(s.disciplines),
		Class:       class.NewHandler(s.classes),
		Reservation: reservation.NewHandler(s.reservations),
	})
	s.T().Cleanup(func() { _ = srv.Shutdown(s.ctx) })
	return srv.Router()
}

func (s *Suite) do(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func (s *Suite) TestBookingOverHTTP() {
	router := s.newRouter()
	t := s.newTenant("http")
	c := s.newClass(t, tomorrow(), "12:00", "13:00", 1)

	w := s.do(router, http.MethodPost, "/auth/register", "", user.RegisterRequest{
		Name: "Carla", Email: "carla@fitclase.test", Password: "password123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var registered user.LoginResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &registered))

	gymID := t.gym.ID
	_, err := s.users.AssignRole(s.ctx, t.admin, registered.User.ID, user.AssignRoleRequest{Role: auth.RoleStudent, GymID: &gymID})
	s.Require().NoError(err)

	w = s.do(router, http.MethodPost, "/auth/login", "", user.LoginRequest{Email: "carla@fitclase.test", Password: "password123"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var login user.LoginResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &login))

	w = s.do(router, http.MethodPost, "/reservations", login.AccessToken, reservation.CreateReservationRequest{ClassID: c.ID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(router, http.MethodPost, "/reservations", login.AccessToken, reservation.CreateReservationRequest{ClassID: c.ID})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(router, http.MethodGet, "/reservations/me", login.AccessToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var mine []reservation.WithClass
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &mine))
	s.Require().Len(mine, 1)
	s.Equal(c.ID, mine[0].ClassID)

	w = s.do(router, http.MethodGet, "/classes/"+c.ID.String(), login.AccessToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var got class.Class
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	s.Equal(1, got.Reserved)

	w = s.do(router, http.MethodGet, "/reservations/me", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gfourspa/fit-clase-api/internal/auth"
	"github.com/gfourspa/fit-clase-api/internal/class"
	"github.com/gfourspa/fit-clase-api/internal/config"
	"github.com/gfourspa/fit-clase-api/internal/discipline"
	"github.com/gfourspa/fit-clase-api/internal/gym"
	"github.com/gfourspa/fit-clase-api/internal/reservation"
	"github.com/gfourspa/fit-clase-api/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// Handlers groups the HTTP handlers mounted by the server.
type Handlers struct {
	User        *user.Handler
	Gym         *gym.Handler
	Discipline  *discipline.Handler
	Class       *class.Handler
	Reservation *reservation.Handler
}

type Server struct {
	router  *gin.Engine
	http    *http.Server
	db      *sqlx.DB
	limiter *RateLimiter
}

func New(cfg *config.Config, database *sqlx.DB, provider auth.Provider, h Handlers) *Server {
	registerValidation()

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		corsMiddleware(),
		TracingMiddleware(cfg.ServiceName),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
	)

	s := &Server{
		router:  router,
		db:      database,
		limiter: limiter,
	}

	router.GET("/health", s.Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	if cfg.AuthProvider == config.AuthProviderLocal {
		public := router.Group("/auth")
		public.Use(limiter.Middleware())
		{
			public.POST("/register", h.User.Register)
			public.POST("/login", h.User.Login)
			public.POST("/refresh", h.User.RefreshToken)
		}
	}

	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware(provider), limiter.Middleware())
	{
		protected.GET("/me", h.User.GetMe)

		protected.POST("/gyms", auth.RequireRole(auth.RoleSuperAdmin), h.Gym.CreateGym)
		protected.GET("/gyms", h.Gym.ListGyms)
		protected.GET("/gyms/:id", h.Gym.GetGym)
		protected.PUT("/gyms/:id", auth.RequireRole(auth.RoleSuperAdmin, auth.RoleGymAdmin), h.Gym.UpdateGym)
		protected.DELETE("/gyms/:id", auth.RequireRole(auth.RoleSuperAdmin), h.Gym.DeleteGym)
		protected.GET("/gyms/:id/users", h.User.ListGymUsers)
		protected.POST("/gyms/:id/users", h.User.AddUsersToGym)

		protected.PUT("/users/:id/role", auth.RequireRole(auth.RoleSuperAdmin, auth.RoleGymAdmin), h.User.AssignRole)
		protected.DELETE("/users/:id", auth.RequireRole(auth.RoleSuperAdmin), h.User.RemoveUser)

		protected.POST("/disciplines", h.Discipline.CreateDiscipline)
		protected.GET("/disciplines", h.Discipline.ListDisciplines)
		protected.GET("/disciplines/:id", h.Discipline.GetDiscipline)
		protected.PUT("/disciplines/:id", h.Discipline.UpdateDiscipline)
		protected.DELETE("/disciplines/:id", h.Discipline.DeleteDiscipline)

		protected.POST("/classes", h.Class.CreateClass)
		protected.GET("/classes", h.Class.ListClasses)
		protected.GET("/classes/:id", h.Class.GetClass)
		protected.PUT("/classes/:id", h.Class.UpdateClass)
		protected.DELETE("/classes/:id", h.Class.DeleteClass)
		protected.GET("/classes/:id/reservations", h.Reservation.ListClassReservations)
		protected.PUT("/classes/:id/students/:studentId/attendance", h.Reservation.MarkAttendance)
		protected.GET("/teachers/:id/classes", h.Class.ListClassesByTeacher)

		protected.POST("/reservations", auth.RequireRole(auth.RoleStudent), h.Reservation.CreateReservation)
		protected.GET("/reservations/me", h.Reservation.ListMyReservations)
		protected.PUT("/reservations/:id/cancel", h.Reservation.CancelReservation)
	}

	s.http = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks until the server stops. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.http.Shutdown(ctx)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gfourspa/fit-clase-api/internal/auth"
	"github.com/gfourspa/fit-clase-api/internal/class"
	"github.com/gfourspa/fit-clase-api/internal/config"
	"github.com/gfourspa/fit-clase-api/internal/db"
	"github.com/gfourspa/fit-clase-api/internal/discipline"
	"github.com/gfourspa/fit-clase-api/internal/events"
	"github.com/gfourspa/fit-clase-api/internal/gym"
	"github.com/gfourspa/fit-clase-api/internal/logger"
	"github.com/gfourspa/fit-clase-api/internal/reservation"
	"github.com/gfourspa/fit-clase-api/internal/server"
	"github.com/gfourspa/fit-clase-api/internal/tracing"
	"github.com/gfourspa/fit-clase-api/internal/user"

	"github.com/redis/go-redis/v9"
)

// @title Fit Clase API
// @version 1.0
// @description Multi-tenant gym class booking API.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting fit-clase-api")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitTracerProvider(ctx, cfg.ServiceName, cfg.OtelEndpoint)
	if err != nil {
		logger.Fatalf("Failed to init tracing: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	gymRepo := gym.NewRepository(database)
	userRepo := user.NewRepository(database)
	disciplineRepo := discipline.NewRepository(database)
	classRepo := class.NewRepository(database)
	reservationRepo := reservation.NewRepository(database)

	policy := auth.NewPolicy(auth.OwnershipStrategy(cfg.OwnershipStrategy), gymRepo)

	userService := user.NewService(userRepo, policy, cfg.JWTSecret, cfg.JWTRefreshSecret)
	gymService := gym.NewService(gymRepo, policy)
	disciplineService := discipline.NewService(disciplineRepo, policy)
	classService := class.NewService(classRepo, gymRepo, disciplineRepo, userRepo, policy)

	provider, err := newProvider(ctx, cfg, userService)
	if err != nil {
		logger.Fatalf("Failed to init auth provider: %v", err)
	}

	publisher, closeEvents := newPublisher(ctx, cfg)
	defer closeEvents()

	reservationService := reservation.NewService(reservationRepo, classRepo, policy, publisher, reservation.Options{
		CancellationWindow: cfg.CancellationWindow,
		Location:           cfg.Location(),
	})

	srv := server.New(cfg, database, provider, server.Handlers{
		User:        user.NewHandler(userService),
		Gym:         gym.NewHandler(gymService),
		Discipline:  discipline.NewHandler(disciplineService),
		Class:       class.NewHandler(classService),
		Reservation: reservation.NewHandler(reservationService),
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Errorf("Error flushing traces: %v", err)
	}

	logger.Info("Server stopped")
}

func newProvider(ctx context.Context, cfg *config.Config, dir auth.Directory) (auth.Provider, error) {
	if cfg.AuthProvider != config.AuthProviderJWKS {
		logger.Info("Using local token provider")
		return auth.NewLocalProvider(cfg.JWTSecret), nil
	}

	kf, err := auth.NewRemoteKeyfunc(ctx, cfg.JWKSURL)
	if err != nil {
		return nil, err
	}
	logger.Info("Using JWKS token provider", "jwks_url", cfg.JWKSURL, "issuer", cfg.JWKSIssuer)
	return auth.NewJWKSProvider(kf.Keyfunc, cfg.JWKSIssuer, cfg.JWKSAudience, dir), nil
}

// newPublisher starts the Redis backed event queue when REDIS_ADDR is set.
// Without it events are dropped.
func newPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("Event queue disabled")
		return events.NopPublisher{}, func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, events will be dropped", "addr", cfg.RedisAddr, "error", err.Error())
		rdb.Close()
		return events.NopPublisher{}, func() {}
	}

	var sink events.Sink = events.LogSink{}
	var natsSink *events.NatsSink
	if cfg.NatsURL != "" {
		s, err := events.NewNatsSink(cfg.NatsURL)
		if err != nil {
			logger.Warn("NATS unreachable, delivering events to the log", "error", err.Error())
		} else {
			natsSink = s
			sink = s
		}
	}

	queue := events.NewQueue(rdb, sink)
	go queue.Start(ctx)
	logger.Info("Event queue started", "redis_addr", cfg.RedisAddr)

	return queue, func() {
		if natsSink != nil {
			natsSink.Close()
		}
		if err := queue.Close(); err != nil {
			logger.Errorf("Error closing event queue: %v", err)
		}
	}
}

package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"review-simulator/internal/backend"
	"review-simulator/internal/services/health"
	"review-simulator/internal/sessions"
	"review-simulator/internal/shared/config"
	"review-simulator/internal/shared/server"
	"review-simulator/internal/shared/server/middleware"
	"review-simulator/internal/shared/storage/db"
	"review-simulator/internal/shared/telemetry"
)

// App holds the wired service.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Backend  backend.Client
	Sessions sessions.Repo
	Manager  *sessions.Manager
	Sweeper  *sessions.Sweeper
}

// Build connects dependencies and wires routes. In dev-like environments a
// missing or unreachable database falls back to in-memory sessions.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	client, err := backend.NewHTTPClient(backend.Options{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.BackendTimeout,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	return BuildWithBackend(ctx, cfg, client)
}

// BuildWithBackend is Build with a caller-provided backend client.
func BuildWithBackend(ctx context.Context, cfg config.Config, client backend.Client) (*App, error) {
	if client == nil {
		return nil, errors.New("nil backend client")
	}
	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo sessions.Repo
	if sqlDB != nil {
		repo = &sessions.PGRepo{DB: sqlDB}
	} else {
		repo = sessions.NewMemoryRepo()
	}
	manager := sessions.NewManager(repo, client, nil)

	sweeper, err := sessions.NewSweeper(manager, cfg.SessionTTL, cfg.SweepInterval)
	if err != nil {
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, err
	}

	checks := map[string]health.Checker{
		"backend": client.Health,
	}
	if sqlDB != nil {
		checks["database"] = db.Ping(sqlDB)
	}

	router := server.NewRouter(server.RouterDeps{
		Env:            cfg.Env,
		AllowedOrigins: cfg.AllowedOrigins(),
		Health:         health.NewService(checks),
		RateLimits:     rateLimits(cfg),
		Features:       []server.RouteRegistrar{sessions.NewHandler(manager)},
	})

	return &App{
		Config:   cfg,
		Router:   router,
		DB:       sqlDB,
		Backend:  client,
		Sessions: repo,
		Manager:  manager,
		Sweeper:  sweeper,
	}, nil
}

// Close releases the database pool and stops the sweeper.
func (a *App) Close() error {
	var errs []error
	if a.Sweeper != nil {
		errs = append(errs, a.Sweeper.Stop())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func rateLimits(cfg config.Config) map[string]middleware.RateLimitRule {
	if cfg.GenerationPerMinute <= 0 || cfg.GenerationBurst <= 0 {
		return nil
	}
	return map[string]middleware.RateLimitRule{
		middleware.GroupGeneration: {Rate: cfg.GenerationPerMinute / 60, Burst: cfg.GenerationBurst},
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_sessions", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_sessions", map[string]any{"reason": "database unavailable", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func isDevLike(env string) bool {
	switch env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// Package app is the composition root: it builds the store, services and
// HTTP server from a Config and runs them until a shutdown signal.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/bubingachat/internal/auth"
	"github.com/Tyrowin/bubingachat/internal/config"
	"github.com/Tyrowin/bubingachat/internal/logging"
	"github.com/Tyrowin/bubingachat/internal/server"
	"github.com/Tyrowin/bubingachat/internal/store/badgerstore"
	"github.com/Tyrowin/bubingachat/internal/store/gormstore"
	"github.com/Tyrowin/bubingachat/internal/store/memory"
	"github.com/Tyrowin/bubingachat/internal/store/postgres"
	"github.com/Tyrowin/bubingachat/internal/users"
)

type App struct {
	cfg        *config.Config
	logger     logging.Logger
	hub        *server.Hub
	handler    http.Handler
	closeStore func() error
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if !cfg.IsProduction() {
		logger.Info(ctx, "running in development mode", "env", cfg.Env)
	}
	if cfg.UsingDevSecret {
		logger.Warn(ctx, "JWT_SECRET is not set; signing tokens with the insecure development secret")
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	svc := users.NewService(store, auth.NewBcryptHasher(cfg.BcryptCost), tokens, logger.With("component", "users"))
	hub := server.NewHub(logger)

	srv := server.New(hub, svc, tokens, logger.With("component", "http"), server.Options{
		AllowedOrigins:    cfg.AllowedOrigins,
		MaxMessageSize:    cfg.MaxMessageSize,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	})

	return &App{
		cfg:        cfg,
		logger:     logger,
		hub:        hub,
		handler:    srv.Handler(),
		closeStore: closeStore,
	}, nil
}

// openStore builds the users.Store named by cfg.StoreDriver and a func that
// releases it.
func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (users.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), noop, nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.New(db), db.Close, nil

	case config.DriverBadger:
		db, err := badgerstore.Open(cfg.BadgerPath, cfg.LogLevel == "debug")
		if err != nil {
			return nil, nil, err
		}
		return badgerstore.New(db), db.Close, nil

	case config.DriverGorm:
		db, err := gormstore.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		if err := gormstore.Migrate(db); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		return gormstore.New(db), sqlDB.Close, nil

	default:
		logger.Error(ctx, "unknown store driver", "driver", cfg.StoreDriver)
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Handler exposes the HTTP surface, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx ends or SIGINT/SIGTERM arrives, then shuts down the
// HTTP server, the hub and the store in that order.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.hub.Run()

	httpServer := server.CreateServer(a.cfg.Port, a.handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer, a.logger)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info(context.Background(), "shutdown signal received")
	case runErr = <-errCh:
		if runErr != nil {
			a.logger.Error(context.Background(), "http server failed", "error", runErr)
		}
	}

	var errs []error
	errs = append(errs, runErr)

	if err := server.ShutdownServer(httpServer, a.cfg.ShutdownTimeout, a.logger); err != nil {
		errs = append(errs, err)
	}
	if err := a.hub.Shutdown(a.cfg.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("hub shutdown: %w", err))
	}
	if err := a.closeStore(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	a.logger.Info(context.Background(), "server stopped")
	return errors.Join(errs...)
}

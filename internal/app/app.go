package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/config"
	"github.com/roomcast/roomcast-server/internal/engine"
	"github.com/roomcast/roomcast-server/internal/store"
	"github.com/roomcast/roomcast-server/internal/store/sqlite"
	transporthttp "github.com/roomcast/roomcast-server/internal/transport/http"
)

// App wires together engine, storage and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	gateway         *engine.Gateway
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	authService := auth.NewService(st, &auth.Config{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	gateway := engine.NewGateway(engine.Options{
		TypingTTL:            cfg.TypingTTL,
		EventBuffer:          cfg.EventBuffer,
		HistoryLimit:         cfg.HistoryLimit,
		OfflineNotifications: cfg.OfflineNotifications,
	}, store.NewEngineAdapter(st), logger)

	server := transporthttp.NewServer(gateway, authService, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		gateway:         gateway,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.gateway.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}

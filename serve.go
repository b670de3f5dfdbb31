package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/vignesh0909/adbond.net-sub002/config"
	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/middleware"
	"github.com/vignesh0909/adbond.net-sub002/ws"
)

// runServe wires every layer, serves until SIGINT/SIGTERM and shuts down in
// reverse order.
func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	mainLog.Info().Int("port", cfg.Server.Port).Msg("adbond server starting")
	if cfg.Security.KeyDerived {
		mainLog.Warn().Msg("ENCRYPTION_KEY not set, deriving the document key from JWT_SECRET")
	}

	db, err := database.New(cfg.Database.Path, database.MigrationsFS())
	if err != nil {
		return err
	}
	defer db.Close()

	repos := initRepositories(db.Conn)

	// Nobody is connected right after a restart.
	if err := repos.User.ResetAllStatuses(ctx); err != nil {
		mainLog.Warn().Err(err).Msg("failed to reset user statuses")
	}

	hub := ws.NewHub()

	svcs, limiters, err := initServices(db.Conn, repos, hub, cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()
	defer limiters.Stop()

	registerHubCallbacks(hub, svcs.User)
	go hub.Run()

	h := initHandlers(db.Conn, svcs, limiters, hub, cfg)
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User, cfg.Upload.MaxSize)

	svcs.Janitor.Start()
	defer svcs.Janitor.Stop()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           buildHandler(mux, cfg, limiters),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		mainLog.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		mainLog.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Close sockets first so clients see the going-away frame, then drain HTTP.
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	mainLog.Info().Msg("server stopped gracefully")
	return nil
}

// buildHandler wraps the mux: cors, request id, access log, API rate limit,
// metrics. Metrics stays innermost because it reads the matched pattern.
func buildHandler(mux *http.ServeMux, cfg *config.Config, limiters *RateLimiters) http.Handler {
	var handler http.Handler = mux
	handler = middleware.Metrics(handler)
	handler = middleware.APIRateLimit(limiters.API, limiters.ClientIP)(handler)
	handler = middleware.RequestLogger(handler)
	handler = middleware.RequestID(handler)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
	})
	return c.Handler(handler)
}

// Command halaqah runs the halaqah API server.
//
// Usage:
//
//	halaqah [serve]   run migrations, seed lessons and serve HTTP (default)
//	halaqah migrate   apply migrations and exit
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/halaqah-app/halaqah/internal/account"
	"github.com/halaqah-app/halaqah/internal/attendance"
	"github.com/halaqah-app/halaqah/internal/auth"
	"github.com/halaqah-app/halaqah/internal/curriculum"
	"github.com/halaqah-app/halaqah/internal/dashboard"
	"github.com/halaqah-app/halaqah/internal/httpapi"
	"github.com/halaqah-app/halaqah/internal/platform/cache"
	"github.com/halaqah-app/halaqah/internal/platform/config"
	"github.com/halaqah-app/halaqah/internal/platform/database"
	"github.com/halaqah-app/halaqah/internal/platform/logging"
	"github.com/halaqah-app/halaqah/internal/progress"
	"github.com/halaqah-app/halaqah/internal/role"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("halaqah failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd, err := command(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, syncLogs, err := logging.New(cfg.Env, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	defer func() { _ = syncLogs() }()

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		return err
	}
	if cmd == "migrate" {
		return nil
	}
	return serve(ctx, cfg, db)
}

// command picks the subcommand from args. No argument means serve.
func command(args []string) (string, error) {
	if len(args) == 0 {
		return "serve", nil
	}
	switch args[0] {
	case "serve", "migrate":
		return args[0], nil
	}
	return "", fmt.Errorf("unknown command %q, want serve or migrate", args[0])
}

func serve(ctx context.Context, cfg *config.Config, db *database.DB) error {
	var revoker auth.Revoker = auth.NewMemoryRevoker()
	checks := []httpapi.Check{{Name: "database", Ping: db.HealthCheck}}

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		revoker = cache.NewDenylist(c.Client)
		checks = append(checks, httpapi.Check{Name: "cache", Ping: c.HealthCheck})
	} else {
		slog.Warn("cache disabled, logouts are only remembered by this process")
	}

	lessons := curriculum.NewCatalogue(curriculum.NewPostgresStore(db.Pool))
	if cfg.Content.Seed {
		cat, err := curriculum.LoadCatalog(cfg.Content.SeedPath)
		if err != nil {
			return err
		}
		if _, err := lessons.Seed(ctx, cat); err != nil {
			return err
		}
	}

	ledger := progress.NewLedger(progress.NewPostgresStore(db.Pool))
	att := attendance.NewPostgres(db.Pool)
	gate := auth.NewGate(
		auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL),
		revoker,
		auth.WithDeny(httpapi.Deny),
	)

	api := httpapi.New(httpapi.Deps{
		Accounts:   account.NewDirectory(account.NewPostgresStore(db.Pool), role.NewResolver(cfg.Roles.Codes)),
		Lessons:    lessons,
		Ledger:     ledger,
		Dashboard:  dashboard.NewAggregator(ledger, att),
		Attendance: att,
		Gate:       gate,
		Checks:     checks,
	})

	srv := newHTTPServer(cfg.Server.Addr(), api.Handler())

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

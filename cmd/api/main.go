// cmd/api/main.go
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

	"github.com/dangerclosesec/bizcontrol/internal/app"
	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/config"
	"github.com/dangerclosesec/bizcontrol/internal/email"
	"github.com/dangerclosesec/bizcontrol/internal/email/mailer"
	"github.com/dangerclosesec/bizcontrol/internal/handler"
	"github.com/dangerclosesec/bizcontrol/internal/metrics"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/dangerclosesec/bizcontrol/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Initialize database
	db, err := repository.Open(cfg, gormLogLevel())
	if err != nil {
		return fmt.Errorf("setting up database: %w", err)
	}
	if err := repository.AutoMigrate(context.Background(), db); err != nil {
		return err
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize email service
	emailService, err := email.NewEmailService(cfg, email.Provider(cfg.Mail.Provider))
	if err != nil {
		return fmt.Errorf("initializing email service: %w", err)
	}

	deps := app.Deps{
		Mailer:  mailer.NewInviteMailer(emailService, cfg.AppTitle, cfg.BaseURL),
		Metrics: m,
	}
	if cfg.Permify.Host != "" {
		permify, err := auth.NewPermifyMirror(cfg.Permify.Host, auth.WithTenant(cfg.Permify.Tenant))
		if err != nil {
			return fmt.Errorf("initializing permify mirror: %w", err)
		}
		deps.Mirror = permify
		logger.Info("relationship mirror enabled", "host", cfg.Permify.Host)
	}

	a := app.New(db, cfg, deps)

	if cfg.FirstSuperuser.Email != "" {
		user, created, err := a.Users.EnsureSuperuser(context.Background(), cfg.FirstSuperuser.Email, cfg.FirstSuperuser.Password)
		if err != nil {
			return fmt.Errorf("ensuring first superuser: %w", err)
		}
		logger.Info("first superuser ready", "email", user.Email, "created", created)
	}

	// Scheduler
	sched := scheduler.New(
		scheduler.WithMetrics(m),
		scheduler.WithLogger(logger),
		scheduler.WithMisfireGrace(cfg.Scheduler.MisfireGrace),
	)
	if cfg.Scheduler.Enabled {
		if err := a.RegisterJobs(sched, cfg.Scheduler.CleanupCron, cfg.Scheduler.AuditCron, cfg.Audit.Retention); err != nil {
			return fmt.Errorf("registering jobs: %w", err)
		}
		sched.Start()
	}

	r := handler.NewRouter(a.Services(), handler.RouterOptions{
		Logger:            logger,
		Metrics:           m,
		MetricsHandler:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminCookieSecure: cfg.Admin.CookieSecure,
		AdminSessionTTL:   cfg.JWT.ExpiryPeriod,
	})

	// Create server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server error channel
	serverErrors := make(chan error, 1)

	// Start server
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Shutdown channel
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Wait for shutdown or error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown started", "signal", sig)

		// Give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := sched.Stop(ctx); err != nil {
			logger.Error("scheduler did not stop in time", "error", err)
		}

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			// If shutdown times out, forcefully close
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		a.Invites.Wait()
	}

	return nil
}

func gormLogLevel() logger.LogLevel {
	if os.Getenv("DB_DEBUG") == "true" {
		return logger.Info
	}
	return logger.Warn
}

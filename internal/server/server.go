// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires the account services together and serves the local
// JSON API the desktop UI talks to.
package server

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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pbruhn/accountd/internal/config"
	"github.com/pbruhn/accountd/internal/database"
	"github.com/pbruhn/accountd/internal/handlers"
	"github.com/pbruhn/accountd/internal/repository"
	"github.com/pbruhn/accountd/internal/services/auth"
	"github.com/pbruhn/accountd/internal/services/email"
	"github.com/pbruhn/accountd/internal/services/lockout"
	"github.com/pbruhn/accountd/internal/services/password"
	"github.com/pbruhn/accountd/internal/services/reset"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log)

	slog.Info("starting accountd",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// Repository and services
	repo := repository.New(db)

	// Tokens expire after five minutes, so anything left over from a
	// previous run is dead weight. Clear it out before serving.
	if removed, sweepErr := repo.DeleteExpiredResetTokens(ctx); sweepErr != nil {
		slog.Warn("failed to sweep expired reset tokens", "error", sweepErr)
	} else if removed > 0 {
		slog.Info("swept expired reset tokens", "count", removed)
	}

	hasher := password.NewHasher()

	var mailer email.Sender = email.LogSender{}
	if cfg.SMTP.Host != "" {
		mailer, err = email.NewSMTPSender(&cfg.SMTP)
		if err != nil {
			return fmt.Errorf("failed to create mail sender: %w", err)
		}
	}

	var authOpts []auth.Option
	if cfg.Auth.LoginDelayMS > 0 {
		delay := time.Duration(cfg.Auth.LoginDelayMS) * time.Millisecond
		authOpts = append(authOpts, auth.WithDelay(func(ctx context.Context) {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
		}))
	}

	authSvc := auth.NewService(repo, hasher, authOpts...)
	resetSvc := reset.NewService(repo, hasher, mailer)
	tracker := lockout.NewTracker()

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e)
	setupRoutes(e, handlers.New(repo, authSvc, resetSvc, tracker))

	return startWithGracefulShutdown(e, cfg)
}

func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.BodyLimit("1M"))
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers) {
	e.GET("/health", h.Health)

	g := e.Group("/auth")
	g.POST("/login", h.Login)
	g.POST("/signup", h.Signup)
	g.POST("/forgot-password", h.ForgotPassword)
	g.POST("/reset-password", h.ResetPassword)
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			slog.Default().LogAttrs(context.Background(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("server running", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

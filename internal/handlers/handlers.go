// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers exposes the account operations over a local JSON API.
// The handlers own the caller-side orchestration: lockout bookkeeping
// around login attempts and the multi-step reset protocol.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pbruhn/accountd/internal/repository"
	"github.com/pbruhn/accountd/internal/services/auth"
	"github.com/pbruhn/accountd/internal/services/lockout"
	"github.com/pbruhn/accountd/internal/services/reset"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo    *repository.Repository
	auth    *auth.Service
	reset   *reset.Service
	lockout *lockout.Tracker
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, authSvc *auth.Service, resetSvc *reset.Service, tracker *lockout.Tracker) *Handlers {
	return &Handlers{
		repo:    repo,
		auth:    authSvc,
		reset:   resetSvc,
		lockout: tracker,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// logAction writes a best-effort audit row.
func (h *Handlers) logAction(c echo.Context, userID *int64, action string) {
	ip := c.RealIP()
	_ = h.repo.LogAction(c.Request().Context(), userID, action, &ip)
}

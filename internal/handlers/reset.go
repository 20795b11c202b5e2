// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pbruhn/accountd/internal/services/reset"
)

// ForgotPasswordRequest is the request body for requesting a reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword creates and mails a reset code. The response is the same
// whether or not the email is registered.
func (h *Handlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Please enter your email address."})
	}

	if err := h.reset.RequestReset(c.Request().Context(), req.Email); err != nil {
		slog.Error("reset_request_failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to send reset email. Please try again."})
	}

	h.logAction(c, nil, "reset_requested")

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "If an account exists for that address, a reset code has been sent.",
	})
}

// ResetPasswordRequest is the request body for completing a reset.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword completes the reset protocol: the token is validated, the
// new password written, and only then is the token consumed.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	err := h.reset.CompleteReset(c.Request().Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, reset.ErrTokenNotFound),
			errors.Is(err, reset.ErrTokenExpired),
			errors.Is(err, reset.ErrTokenUsed):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid or expired reset code."})
		case errors.Is(err, reset.ErrPasswordTooShort):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Password must be at least 8 characters."})
		default:
			slog.Error("reset_failed", "error", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to reset password. Please try again."})
		}
	}

	h.logAction(c, nil, "password_reset")

	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated."})
}

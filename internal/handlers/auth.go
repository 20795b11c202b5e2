// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pbruhn/accountd/internal/services/auth"
)

// invalidCredentialsMessage is shown for both unknown identities and wrong
// passwords so callers cannot probe which emails are registered.
const invalidCredentialsMessage = "Invalid email or password."

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the user summary returned on successful login or signup.
type UserResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Login authenticates credentials. Lockout is checked before the attempt;
// both failure kinds count toward the lockout budget, and a lockout takes
// precedence even over correct credentials.
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if err := auth.ValidateLoginInput(req.Email, req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": inputMessage(err)})
	}

	identity := strings.ToLower(strings.TrimSpace(req.Email))

	if h.lockout.IsLockedOut(identity) {
		minutes := h.lockout.RemainingMinutes(identity)
		return c.JSON(http.StatusLocked, map[string]string{
			"error": fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", minutes),
		})
	}

	user, err := h.auth.Authenticate(c.Request().Context(), identity, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
			h.lockout.RecordFailure(identity)
			h.logAction(c, nil, "login_failed")
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": invalidCredentialsMessage})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	h.lockout.RecordSuccess(identity)
	h.logAction(c, &user.ID, "login_success")

	return c.JSON(http.StatusOK, UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	})
}

// SignupRequest is the request body for account creation.
type SignupRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Signup creates a new account.
func (h *Handlers) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	user, err := h.auth.Register(c.Request().Context(), auth.RegisterParams{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": inputMessage(err)})
		case errors.Is(err, auth.ErrUserExists):
			return c.JSON(http.StatusConflict, map[string]string{"error": "An account with this email already exists."})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create user. Please try again."})
		}
	}

	h.logAction(c, &user.ID, "signup")

	return c.JSON(http.StatusCreated, UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	})
}

// inputMessage strips the sentinel prefix from a validation error, leaving
// the human-readable part.
func inputMessage(err error) string {
	msg := err.Error()
	if cut, ok := strings.CutPrefix(msg, auth.ErrInvalidInput.Error()+": "); ok {
		return cut
	}
	return msg
}

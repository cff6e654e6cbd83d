package api

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/tsanders-rh/analyticsctl/internal/auth"
	"github.com/tsanders-rh/analyticsctl/internal/store"
	"github.com/tsanders-rh/analyticsctl/pkg/types"
)

// UserSource looks up users for credential checks
type UserSource interface {
	GetByEmail(ctx context.Context, email string) (*types.User, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	users UserSource
	auth  *auth.Auth
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users UserSource, authService *auth.Auth) *AuthHandler {
	return &AuthHandler{
		users: users,
		auth:  authService,
	}
}

// LoginRequest is the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the login response payload
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	User        *types.User `json:"user"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return ErrorBadRequest(c, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return ErrorBadRequest(c, err.Error())
	}

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrorUnauthorized(c, "Invalid email or password")
		}
		return ErrorInternal(c, "Failed to look up user")
	}

	if err := auth.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return ErrorUnauthorized(c, "Invalid email or password")
	}

	token, err := h.auth.GenerateAccessToken(user)
	if err != nil {
		return ErrorInternal(c, "Failed to generate token")
	}

	return SuccessOK(c, &LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(h.auth.GetAccessTTL().Seconds()),
		User:        user,
	})
}

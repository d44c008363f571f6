// Package api is the client's view of the TeamLoop backend: the operation
// set the auth core depends on, a concrete HTTP/JSON implementation, and the
// error taxonomy callers branch on.
package api

import (
	"context"

	"github.com/teamloop/teamloop-cli/internal/client/models"
)

// Client defines the backend operations used by the auth core.
//
// All methods honor context cancellation/timeouts. Backend-provided messages
// travel on *APIError; use ErrorMessage to surface them with a fallback.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Login(ctx context.Context, email, password string) (LoginResult, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, req RegisterRequest) (string, error)
	GetCurrentUser(ctx context.Context) (*models.User, error)

	RequestPasswordReset(ctx context.Context, email string) (ResetRequestResult, error)
	CheckResetToken(ctx context.Context, token string) error
	SubmitPasswordReset(ctx context.Context, token, password string) (string, error)

	RedeemVerificationToken(ctx context.Context, token string) (string, error)
	ResendVerificationEmail(ctx context.Context, email string) (string, error)
}

// LoginResult is a successful login response.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// RegisterRequest carries the fields of a new account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetRequestResult is the response to a password-reset request. ResetToken
// and ResetURL are development-mode previews; production responses omit
// them, and the flows must branch on the environment, never on presence.
type ResetRequestResult struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
	ResetURL   string `json:"resetUrl,omitempty"`
}

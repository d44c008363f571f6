// Package services contains the client-side application services: the
// session controller and the email-verification and password-reset flows.
package services

import (
	"context"
	"fmt"

	"github.com/teamloop/teamloop-cli/internal/client/api"
	"github.com/teamloop/teamloop-cli/internal/client/models"
	"github.com/teamloop/teamloop-cli/internal/client/session"
	"github.com/teamloop/teamloop-cli/internal/logging"
)

// AuthService drives the session lifecycle.
//
// Contract:
//   - Login: authenticate and persist the session; an unverified account is
//     reported as api.ErrNeedsVerification, distinct from invalid credentials.
//   - Logout: invalidate the server session best-effort, always clear locally.
//   - Bootstrap: resolve a persisted token into a definitive session status.
//   - Register: create an account; the caller stays anonymous until the email
//     is verified.
//   - ResendVerification: request a fresh verification email.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Bootstrap(ctx context.Context) (session.Session, error)
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
	ResendVerification(ctx context.Context, email string) (string, error)
	Session() session.Session
}

type authService struct {
	client api.Client
	store  *session.Store
	log    logging.Logger
}

func NewAuthService(client api.Client, store *session.Store, log logging.Logger) AuthService {
	return &authService{client: client, store: store, log: log.With("component", "auth")}
}

// Login authenticates against the backend and, on success, persists the
// session. On any failure the session is left untouched (anonymous); the
// error is returned as-is so callers can route api.ErrNeedsVerification to
// the verification entry instead of a plain error message.
func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	res, err := a.client.Login(ctx, email, password)
	if err != nil {
		a.log.Debug(ctx, "login rejected", "err", err)
		return nil, err
	}

	user := res.User
	if err := a.store.Save(ctx, res.Token, &user); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return &user, nil
}

// Logout invalidates the server-side session when it can, and clears the
// local session unconditionally: logout must be effective locally even when
// the network call fails.
func (a *authService) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		a.log.Warn(ctx, "logout request failed, clearing local session anyway", "err", err)
	}
	return a.store.Clear(ctx)
}

// Bootstrap resolves the persisted token (if any) into a definitive session:
// a backend-confirmed user, or a fully cleared anonymous state. An invalid
// or expired token must not linger as "authenticated".
func (a *authService) Bootstrap(ctx context.Context) (session.Session, error) {
	sess := a.store.Load(ctx)
	if sess.Status != session.StatusAuthenticated {
		return sess, nil
	}

	user, err := a.client.GetCurrentUser(ctx)
	if err != nil {
		a.log.Info(ctx, "persisted token rejected, clearing session", "err", err)
		if clearErr := a.store.Clear(ctx); clearErr != nil {
			return a.store.Current(), clearErr
		}
		return a.store.Current(), nil
	}

	if err := a.store.Save(ctx, sess.Token, user); err != nil {
		return a.store.Current(), fmt.Errorf("failed to hydrate session: %w", err)
	}
	return a.store.Current(), nil
}

// Register creates the account but does not authenticate: the backend
// requires email verification first. Returns the backend's confirmation
// message, with a generic fallback.
func (a *authService) Register(ctx context.Context, req api.RegisterRequest) (string, error) {
	msg, err := a.client.Register(ctx, req)
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "registration received, check your email to verify your account"
	}
	return msg, nil
}

func (a *authService) ResendVerification(ctx context.Context, email string) (string, error) {
	msg, err := a.client.ResendVerificationEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "verification email sent"
	}
	return msg, nil
}

func (a *authService) Session() session.Session {
	return a.store.Current()
}

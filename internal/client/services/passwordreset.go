package services

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/teamloop/teamloop-cli/internal/client/api"
	"github.com/teamloop/teamloop-cli/internal/logging"
)

// Client-side validation failures. These never generate a network call.
var (
	ErrInvalidEmail      = errors.New("enter a valid email address")
	ErrPasswordTooShort  = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrResetNotValidated = errors.New("reset token has not been validated")
)

const minPasswordLen = 6

// A deliberately loose local@domain shape; the backend owns real validation.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// RequestState tracks stage A of the reset flow (asking for the email).
type RequestState int

const (
	RequestIdle RequestState = iota
	RequestSent
	RequestFailed
)

// TokenValidation tracks stage B (checking the token from the link).
type TokenValidation int

const (
	TokenUnchecked TokenValidation = iota
	TokenValidating
	TokenValid
	TokenInvalid
)

// SubmitState tracks stage C (submitting the new password).
type SubmitState int

const (
	SubmitIdle SubmitState = iota
	SubmitInFlight
	SubmitSucceeded
	SubmitFailed
)

// ResetPreview is the development-mode echo of the issued reset token.
// Never populated outside the development environment.
type ResetPreview struct {
	Token string
	URL   string
}

// ResetStatus is a read-only snapshot of the flow.
type ResetStatus struct {
	Email           string
	RequestState    RequestState
	RequestMessage  string
	Token           string
	TokenValidation TokenValidation
	SubmitState     SubmitState
	SubmitMessage   string
	Preview         *ResetPreview
}

// PasswordResetFlow drives the three-stage password reset: request a reset
// email, validate the token on the emailed link, submit the new password.
//
// Unlike verification, stage C failures are retryable: resubmitting with a
// corrected password is legitimate until the token expires server-side.
type PasswordResetFlow struct {
	client api.Client
	log    logging.Logger
	// dev controls whether backend reset previews are surfaced. Branching
	// happens on this flag, not on field presence: a production backend
	// omitting the field and a withheld preview are indistinguishable.
	dev bool

	mu     sync.Mutex
	status ResetStatus
}

func NewPasswordResetFlow(client api.Client, log logging.Logger, dev bool) *PasswordResetFlow {
	return &PasswordResetFlow{
		client: client,
		log:    log.With("component", "password-reset"),
		dev:    dev,
	}
}

// RequestReset validates email locally and asks the backend to send a reset
// link. Validation failures return immediately without touching the network.
func (f *PasswordResetFlow) RequestReset(ctx context.Context, email string) error {
	if email == "" || !emailShape.MatchString(email) {
		return ErrInvalidEmail
	}

	res, err := f.client.RequestPasswordReset(ctx, email)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Email = email

	if err != nil {
		f.log.Info(ctx, "reset request failed", "err", err)
		f.status.RequestState = RequestFailed
		f.status.RequestMessage = api.ErrorMessage(err, "unable to request a password reset")
		return err
	}

	f.status.RequestState = RequestSent
	f.status.RequestMessage = res.Message
	if f.status.RequestMessage == "" {
		f.status.RequestMessage = "if the address exists, a reset link has been sent"
	}
	if f.dev && res.ResetToken != "" {
		f.status.Preview = &ResetPreview{Token: res.ResetToken, URL: res.ResetURL}
	}
	return nil
}

// ValidateLink extracts the token from a reset link and checks it with the
// backend. A link without a token short-circuits to TokenInvalid without a
// network call.
func (f *PasswordResetFlow) ValidateLink(ctx context.Context, link string) TokenValidation {
	token := tokenFromResetLink(link)
	if token == "" {
		f.mu.Lock()
		f.status.Token = ""
		f.status.TokenValidation = TokenInvalid
		f.mu.Unlock()
		return TokenInvalid
	}

	f.mu.Lock()
	f.status.Token = token
	f.status.TokenValidation = TokenValidating
	f.mu.Unlock()

	result := TokenValid
	if err := f.client.CheckResetToken(ctx, token); err != nil {
		f.log.Info(ctx, "reset token rejected", "err", err)
		result = TokenInvalid
	}

	f.mu.Lock()
	f.status.TokenValidation = result
	f.mu.Unlock()
	return result
}

// SubmitNewPassword submits the replacement password. Only reachable once
// the token validated; local validation failures return before any network
// call. A backend failure leaves the flow in SubmitFailed and the user may
// resubmit.
func (f *PasswordResetFlow) SubmitNewPassword(ctx context.Context, password, confirm string) error {
	f.mu.Lock()
	if f.status.TokenValidation != TokenValid {
		f.mu.Unlock()
		return ErrResetNotValidated
	}
	token := f.status.Token
	f.mu.Unlock()

	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	f.mu.Lock()
	f.status.SubmitState = SubmitInFlight
	f.mu.Unlock()

	msg, err := f.client.SubmitPasswordReset(ctx, token, password)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.log.Info(ctx, "password reset rejected", "err", err)
		f.status.SubmitState = SubmitFailed
		f.status.SubmitMessage = api.ErrorMessage(err, "unable to reset password")
		return err
	}

	f.status.SubmitState = SubmitSucceeded
	f.status.SubmitMessage = msg
	if f.status.SubmitMessage == "" {
		f.status.SubmitMessage = "password updated, you can now sign in"
	}
	return nil
}

// Status returns a snapshot of the flow's state.
func (f *PasswordResetFlow) Status() ResetStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.status
	if f.status.Preview != nil {
		preview := *f.status.Preview
		st.Preview = &preview
	}
	return st
}

// Dispose discards transient flow state; the flow object must not be used
// afterwards.
func (f *PasswordResetFlow) Dispose() {
	f.mu.Lock()
	f.status = ResetStatus{}
	f.mu.Unlock()
}

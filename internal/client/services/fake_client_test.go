package services

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/teamloop/teamloop-cli/internal/client/api"
	"github.com/teamloop/teamloop-cli/internal/client/models"
	"github.com/teamloop/teamloop-cli/internal/logging"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeClient implements api.Client for unit tests. Configure the XxxRet /
// XxxErr fields; the LastXxx fields and call counters record what the
// service under test actually did.
type fakeClient struct {
	LoginRet  api.LoginResult
	LoginErr  error
	LogoutErr error

	RegisterMsg string
	RegisterErr error

	UserRet *models.User
	UserErr error

	ResetRet api.ResetRequestResult
	ResetErr error

	CheckErr error

	SubmitMsg string
	SubmitErr error

	RedeemMsg string
	RedeemErr error

	ResendMsg string
	ResendErr error

	PingErr error

	LoginCalls  atomic.Int32
	LogoutCalls atomic.Int32
	UserCalls   atomic.Int32
	ResetCalls  atomic.Int32
	CheckCalls  atomic.Int32
	SubmitCalls atomic.Int32
	RedeemCalls atomic.Int32

	LastLoginEmail     string
	LastLoginPassword  string
	LastRegister       api.RegisterRequest
	LastResetEmail     string
	LastCheckToken     string
	LastSubmitToken    string
	LastSubmitPassword string
	LastRedeemToken    string
	LastResendEmail    string
}

func (f *fakeClient) Close() error                     { return nil }
func (f *fakeClient) Ping(ctx context.Context) error   { return f.PingErr }
func (f *fakeClient) Logout(ctx context.Context) error { f.LogoutCalls.Add(1); return f.LogoutErr }

func (f *fakeClient) Login(ctx context.Context, email, password string) (api.LoginResult, error) {
	f.LoginCalls.Add(1)
	f.LastLoginEmail = email
	f.LastLoginPassword = password
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) Register(ctx context.Context, req api.RegisterRequest) (string, error) {
	f.LastRegister = req
	return f.RegisterMsg, f.RegisterErr
}

func (f *fakeClient) GetCurrentUser(ctx context.Context) (*models.User, error) {
	f.UserCalls.Add(1)
	return f.UserRet, f.UserErr
}

func (f *fakeClient) RequestPasswordReset(ctx context.Context, email string) (api.ResetRequestResult, error) {
	f.ResetCalls.Add(1)
	f.LastResetEmail = email
	return f.ResetRet, f.ResetErr
}

func (f *fakeClient) CheckResetToken(ctx context.Context, token string) error {
	f.CheckCalls.Add(1)
	f.LastCheckToken = token
	return f.CheckErr
}

func (f *fakeClient) SubmitPasswordReset(ctx context.Context, token, password string) (string, error) {
	f.SubmitCalls.Add(1)
	f.LastSubmitToken = token
	f.LastSubmitPassword = password
	return f.SubmitMsg, f.SubmitErr
}

func (f *fakeClient) RedeemVerificationToken(ctx context.Context, token string) (string, error) {
	f.RedeemCalls.Add(1)
	f.LastRedeemToken = token
	return f.RedeemMsg, f.RedeemErr
}

func (f *fakeClient) ResendVerificationEmail(ctx context.Context, email string) (string, error) {
	f.LastResendEmail = email
	return f.ResendMsg, f.ResendErr
}

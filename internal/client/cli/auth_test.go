package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teamloop/teamloop-cli/internal/client/api"
	"github.com/teamloop/teamloop-cli/internal/client/config"
	"github.com/teamloop/teamloop-cli/internal/client/models"
	"github.com/teamloop/teamloop-cli/internal/client/services"
	"github.com/teamloop/teamloop-cli/internal/client/session"
	"github.com/teamloop/teamloop-cli/internal/dedup"
	"github.com/teamloop/teamloop-cli/internal/logging"
)

// stubAuth implements services.AuthService with canned results.
type stubAuth struct {
	loginUser *models.User
	loginErr  error
	logoutErr error
	sess      session.Session

	lastEmail    string
	lastPassword string
	lastRegister api.RegisterRequest
	resendMsg    string
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (*models.User, error) {
	s.lastEmail = email
	s.lastPassword = password
	return s.loginUser, s.loginErr
}
func (s *stubAuth) Logout(ctx context.Context) error { return s.logoutErr }
func (s *stubAuth) Bootstrap(ctx context.Context) (session.Session, error) {
	return s.sess, nil
}
func (s *stubAuth) Register(ctx context.Context, req api.RegisterRequest) (string, error) {
	s.lastRegister = req
	return "check your inbox", nil
}
func (s *stubAuth) ResendVerification(ctx context.Context, email string) (string, error) {
	s.lastEmail = email
	return s.resendMsg, nil
}
func (s *stubAuth) Session() session.Session { return s.sess }

func testApp(auth services.AuthService) *App {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return &App{
		config: cfg,
		auth:   auth,
		ledger: dedup.NewLedger(),
		log:    logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		reader: bufio.NewReader(strings.NewReader("")),
	}
}

// stubInput replaces the interactive input seams for the duration of the test.
func stubInput(t *testing.T, texts []string, password string) {
	t.Helper()

	origText, origPw := getSimpleText, getPassword
	t.Cleanup(func() { getSimpleText, getPassword = origText, origPw })

	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(texts) {
			return "", io.EOF
		}
		v := texts[i]
		i++
		return v, nil
	}
	getPassword = func(_ string, _ io.Writer) ([]byte, error) {
		return []byte(password), nil
	}
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	orig := printlnFn
	t.Cleanup(func() { printlnFn = orig })

	var lines []string
	printlnFn = func(args ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(args...)))
		return 0, nil
	}
	return &lines
}

func TestLoginCommand_Success(t *testing.T) {
	out := captureOutput(t)
	stubInput(t, []string{"a@b.com"}, "secret123")

	auth := &stubAuth{loginUser: &models.User{Username: "alice"}}
	app := testApp(auth)

	require.NoError(t, app.Login(context.Background()))
	require.Equal(t, "a@b.com", auth.lastEmail)
	require.Equal(t, "secret123", auth.lastPassword)
	require.Contains(t, (*out)[len(*out)-1], "alice")
}

func TestLoginCommand_UnverifiedAccount_SuggestsResend(t *testing.T) {
	out := captureOutput(t)
	stubInput(t, []string{"a@b.com"}, "secret123")

	auth := &stubAuth{loginErr: &api.APIError{
		Status:            401,
		Message:           "please verify your email",
		NeedsVerification: true,
		Base:              api.ErrNeedsVerification,
	}}
	app := testApp(auth)

	err := app.Login(context.Background())
	require.ErrorIs(t, err, api.ErrNeedsVerification)

	joined := strings.Join(*out, "\n")
	require.Contains(t, joined, "please verify your email")
	require.Contains(t, joined, "resend")
}

func TestRegisterCommand_CollectsAllFields(t *testing.T) {
	captureOutput(t)
	stubInput(t, []string{"alice", "a@b.com"}, "secret123")

	auth := &stubAuth{}
	app := testApp(auth)

	require.NoError(t, app.Register(context.Background()))
	require.Equal(t, api.RegisterRequest{
		Username: "alice",
		Email:    "a@b.com",
		Password: "secret123",
	}, auth.lastRegister)
}

func TestWhoAmICommand(t *testing.T) {
	out := captureOutput(t)

	t.Run("anonymous", func(t *testing.T) {
		app := testApp(&stubAuth{sess: session.Session{Status: session.StatusAnonymous}})
		require.NoError(t, app.WhoAmI(context.Background()))
		require.Contains(t, (*out)[len(*out)-1], "Not logged in")
	})

	t.Run("authenticated", func(t *testing.T) {
		app := testApp(&stubAuth{sess: session.Session{
			Status: session.StatusAuthenticated,
			User:   &models.User{Username: "alice", Email: "a@b.com", Role: "member"},
		}})
		require.NoError(t, app.WhoAmI(context.Background()))
		require.Contains(t, (*out)[len(*out)-1], "alice")
	})
}

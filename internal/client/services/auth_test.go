package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teamloop/teamloop-cli/internal/client/api"
	"github.com/teamloop/teamloop-cli/internal/client/models"
	"github.com/teamloop/teamloop-cli/internal/client/session"
	"github.com/teamloop/teamloop-cli/internal/client/storage"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
DELETE FROM metadata;
`)
	require.NoError(t, err)
	return db
}

func newAuth(t *testing.T, name string, fc *fakeClient) (AuthService, *session.Store, *sql.DB) {
	t.Helper()
	db := setupDB(t, name)
	store := session.NewStore(db, session.NewObscurer(storage.NewSQLiteRepository(db)))
	return NewAuthService(fc, store, discardLogger()), store, db
}

func persistedTokenCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata WHERE key = ?`, session.TokenStorageKey).Scan(&n))
	return n
}

func TestLogin_Success_SavesSession(t *testing.T) {
	fc := &fakeClient{LoginRet: api.LoginResult{
		Token: "tok-1",
		User:  models.User{ID: "u1", Username: "alice", Email: "a@b.com"},
	}}
	svc, store, db := newAuth(t, "auth_login_ok", fc)

	user, err := svc.Login(context.Background(), "a@b.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)

	cur := store.Current()
	require.Equal(t, session.StatusAuthenticated, cur.Status)
	require.Equal(t, "tok-1", cur.Token)
	require.Equal(t, 1, persistedTokenCount(t, db))

	require.Equal(t, "a@b.com", fc.LastLoginEmail)
	require.Equal(t, "secret123", fc.LastLoginPassword)
}

func TestLogin_UnverifiedAccount_IsDistinguishableAndStaysAnonymous(t *testing.T) {
	fc := &fakeClient{LoginErr: &api.APIError{
		Status:            401,
		Message:           "please verify your email",
		NeedsVerification: true,
		Base:              api.ErrNeedsVerification,
	}}
	svc, store, _ := newAuth(t, "auth_login_unverified", fc)
	store.Load(context.Background())

	_, err := svc.Login(context.Background(), "a@b.com", "short")
	require.ErrorIs(t, err, api.ErrNeedsVerification)
	require.NotErrorIs(t, err, api.ErrInvalidCredentials)
	require.Equal(t, session.StatusAnonymous, store.Current().Status)
}

func TestLogin_InvalidCredentials_StaysAnonymous(t *testing.T) {
	fc := &fakeClient{LoginErr: &api.APIError{Status: 401, Base: api.ErrInvalidCredentials}}
	svc, store, db := newAuth(t, "auth_login_bad", fc)
	store.Load(context.Background())

	_, err := svc.Login(context.Background(), "a@b.com", "nope")
	require.ErrorIs(t, err, api.ErrInvalidCredentials)
	require.Equal(t, session.StatusAnonymous, store.Current().Status)
	require.Equal(t, 0, persistedTokenCount(t, db))
}

func TestLogout_BackendFailure_StillClearsLocally(t *testing.T) {
	fc := &fakeClient{LogoutErr: errors.New("network down")}
	svc, store, db := newAuth(t, "auth_logout_net", fc)

	require.NoError(t, store.Save(context.Background(), "tok", nil))
	require.NoError(t, svc.Logout(context.Background()))

	require.Equal(t, session.StatusAnonymous, store.Current().Status)
	require.Equal(t, 0, persistedTokenCount(t, db))
	require.Equal(t, int32(1), fc.LogoutCalls.Load())
}

func TestBootstrap_NoPersistedToken_AnonymousWithoutNetworkCall(t *testing.T) {
	fc := &fakeClient{}
	svc, _, _ := newAuth(t, "auth_boot_empty", fc)

	sess, err := svc.Bootstrap(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.StatusAnonymous, sess.Status)
	require.Equal(t, int32(0), fc.UserCalls.Load())
}

func TestBootstrap_ValidToken_HydratesUser(t *testing.T) {
	fc := &fakeClient{UserRet: &models.User{ID: "u1", Username: "alice"}}
	svc, store, _ := newAuth(t, "auth_boot_ok", fc)

	require.NoError(t, store.Save(context.Background(), "tok", nil))

	sess, err := svc.Bootstrap(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.StatusAuthenticated, sess.Status)
	require.NotNil(t, sess.User)
	require.Equal(t, "alice", sess.User.Username)
}

func TestBootstrap_RejectedToken_ClearsSessionAndStorage(t *testing.T) {
	fc := &fakeClient{UserErr: &api.APIError{Status: 401, Base: api.ErrUnauthorized}}
	svc, store, db := newAuth(t, "auth_boot_rejected", fc)

	require.NoError(t, store.Save(context.Background(), "stale", nil))

	sess, err := svc.Bootstrap(context.Background())
	require.NoError(t, err)
	require.Equal(t, session.StatusAnonymous, sess.Status)
	require.Empty(t, sess.Token)
	require.Equal(t, 0, persistedTokenCount(t, db), "rejected token must be removed from storage")
}

func TestRegister_DoesNotAuthenticate(t *testing.T) {
	fc := &fakeClient{RegisterMsg: "check your inbox"}
	svc, store, _ := newAuth(t, "auth_register", fc)
	store.Load(context.Background())

	msg, err := svc.Register(context.Background(), api.RegisterRequest{
		Username: "alice", Email: "a@b.com", Password: "secret123",
	})
	require.NoError(t, err)
	require.Equal(t, "check your inbox", msg)
	require.Equal(t, session.StatusAnonymous, store.Current().Status)
	require.Equal(t, "alice", fc.LastRegister.Username)
}

func TestRegister_FallbackMessageWhenBackendSilent(t *testing.T) {
	fc := &fakeClient{}
	svc, _, _ := newAuth(t, "auth_register_silent", fc)

	msg, err := svc.Register(context.Background(), api.RegisterRequest{Username: "a", Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, msg)
}

func TestResendVerification_Delegates(t *testing.T) {
	fc := &fakeClient{ResendMsg: "sent"}
	svc, _, _ := newAuth(t, "auth_resend", fc)

	msg, err := svc.ResendVerification(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.Equal(t, "sent", msg)
	require.Equal(t, "a@b.com", fc.LastResendEmail)
}

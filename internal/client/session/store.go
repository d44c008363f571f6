package session

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/teamloop/teamloop-cli/internal/client/models"
	"github.com/teamloop/teamloop-cli/internal/client/storage"
	"github.com/teamloop/teamloop-cli/internal/dbx"
)

// TokenStorageKey is where the obscured session token lives in local storage.
const TokenStorageKey = "session.token"

// Status is the authentication status observed by the rest of the client.
type Status int

const (
	// StatusUnknown is the zero value: Load or Bootstrap has not completed
	// yet. Callers must not treat it as anonymous.
	StatusUnknown Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the current credential state. User may be nil while
// authenticated: a persisted token is loaded before the profile is fetched.
type Session struct {
	Token  string
	User   *models.User
	Status Status
}

// Store owns the one Session per client process. It is the only component
// besides the Obscurer that touches persistent storage, and it does so only
// through the storage repository.
type Store struct {
	db  *sql.DB
	obs *Obscurer

	mu  sync.Mutex
	cur Session
}

func NewStore(db *sql.DB, obs *Obscurer) *Store {
	return &Store{db: db, obs: obs}
}

func (s *Store) repo() storage.Repository {
	return storage.NewSQLiteRepository(s.db)
}

// Load reads the persisted token and sets the in-memory session accordingly.
// It never fails: storage errors degrade to an anonymous session.
func (s *Store) Load(ctx context.Context) Session {
	raw, err := s.repo().Get(ctx, TokenStorageKey)
	if err != nil || len(raw) == 0 {
		return s.replace(Session{Status: StatusAnonymous})
	}

	token := s.obs.Reveal(ctx, string(raw))
	return s.replace(Session{Token: token, Status: StatusAuthenticated})
}

// Save obscures and persists the token and replaces the in-memory session.
func (s *Store) Save(ctx context.Context, token string, user *models.User) error {
	obscured := s.obs.Obscure(ctx, token)
	if err := s.repo().Set(ctx, TokenStorageKey, []byte(obscured)); err != nil {
		return fmt.Errorf("failed to persist session token: %w", err)
	}

	s.replace(Session{Token: token, User: user, Status: StatusAuthenticated})
	return nil
}

// Clear removes the persisted token and the obscuring secret in one
// transaction and resets the in-memory session to anonymous. The in-memory
// reset happens even when the storage delete fails: logout must be effective
// locally no matter what.
func (s *Store) Clear(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := storage.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, TokenStorageKey); err != nil {
			return err
		}
		return repo.Delete(ctx, SecretStorageKey)
	})

	s.obs.forgetSecret()
	s.replace(Session{Status: StatusAnonymous})

	if err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}
	return nil
}

// Current returns a copy of the in-memory session.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Token returns the current token, or "" when not authenticated. Shaped as a
// supplier for the API client's bearer header.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.Status != StatusAuthenticated {
		return ""
	}
	return s.cur.Token
}

func (s *Store) replace(sess Session) Session {
	s.mu.Lock()
	s.cur = sess
	s.mu.Unlock()
	return sess
}

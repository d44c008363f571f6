package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/teamloop/teamloop-cli/internal/client/api"
	"github.com/teamloop/teamloop-cli/internal/client/config"
	"github.com/teamloop/teamloop-cli/internal/client/services"
	"github.com/teamloop/teamloop-cli/internal/client/session"
	"github.com/teamloop/teamloop-cli/internal/client/storage"
	"github.com/teamloop/teamloop-cli/internal/dedup"
	"github.com/teamloop/teamloop-cli/internal/logging"

	_ "modernc.org/sqlite"
)

// App wires the TeamLoop CLI together: the local session database, the API
// client, the auth service and the verification/reset flows.
type App struct {
	config *config.Config
	client api.Client
	auth   services.AuthService
	store  *session.Store
	ledger *dedup.Ledger
	log    logging.Logger
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	db, err := storage.Open(ctx, "teamloop.db")
	if err != nil {
		log.Error(ctx, "failed to initialize local database", "err", err)
		return nil, err
	}

	store := session.NewStore(db, session.NewObscurer(storage.NewSQLiteRepository(db)))

	// The client reads the token per request, so a login or logout in this
	// process is picked up immediately.
	apiClient := api.NewHTTPClient(c.ServerURL, c.RequestTimeout, store.Token)

	return &App{
		config: c,
		client: apiClient,
		auth:   services.NewAuthService(apiClient, store, log),
		store:  store,
		ledger: dedup.NewLedger(),
		log:    log,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

// Run bootstraps the persisted session and enters the REPL.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	sess, err := a.auth.Bootstrap(ctx)
	if err != nil {
		a.log.Warn(ctx, "session bootstrap failed", "err", err)
	}
	if sess.Status == session.StatusAuthenticated && sess.User != nil {
		printlnFn("Welcome back,", sess.User.Username)
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.auth.Session().Status == session.StatusAuthenticated
}

func (a *App) getStatus() string {
	sess := a.auth.Session()
	if sess.Status == session.StatusAuthenticated && sess.User != nil {
		return "(" + sess.User.Username + ")"
	}
	return ""
}

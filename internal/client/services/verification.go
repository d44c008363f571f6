package services

import (
	"context"
	"sync"

	"github.com/teamloop/teamloop-cli/internal/client/api"
	"github.com/teamloop/teamloop-cli/internal/dedup"
	"github.com/teamloop/teamloop-cli/internal/logging"
)

// VerificationState is the lifecycle of one verification attempt.
// Transitions are monotonic: Verifying settles into Success or Error and
// never goes back.
type VerificationState int

const (
	StateVerifying VerificationState = iota
	StateSuccess
	StateError
)

func (s VerificationState) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "verifying"
	}
}

// VerificationFlow redeems the email-verification token carried by a link.
// One flow instance exists per opened link.
//
// Redemption goes through the dedup ledger keyed by the token, so opening
// the same link twice in one process (double click, link-preview fetch, a
// remount of the hosting view) issues exactly one network call; later
// attempts observe the first outcome. Verification tokens are single-use
// server-side, so a second real attempt would spuriously fail.
type VerificationFlow struct {
	client api.Client
	ledger *dedup.Ledger
	log    logging.Logger

	mu       sync.Mutex
	token    string
	state    VerificationState
	message  string
	disposed bool
}

// NewVerificationFlow extracts the token from link. With no token present
// the flow settles into StateError immediately and Run makes no network
// call.
func NewVerificationFlow(client api.Client, ledger *dedup.Ledger, log logging.Logger, link string) *VerificationFlow {
	f := &VerificationFlow{
		client: client,
		ledger: ledger,
		log:    log.With("component", "verification"),
		token:  tokenFromVerificationLink(link),
		state:  StateVerifying,
	}
	if f.token == "" {
		f.state = StateError
		f.message = "no token provided"
	}
	return f
}

// Run drives the attempt to settlement and returns the final state and
// message. Calling Run on a settled flow returns the recorded outcome.
func (f *VerificationFlow) Run(ctx context.Context) (VerificationState, string) {
	f.mu.Lock()
	if f.state != StateVerifying {
		state, message := f.state, f.message
		f.mu.Unlock()
		return state, message
	}
	token := f.token
	f.mu.Unlock()

	v, err := f.ledger.Run(ctx, token, func(ctx context.Context) (any, error) {
		return f.client.RedeemVerificationToken(ctx, token)
	})
	if err != nil {
		f.log.Info(ctx, "verification failed", "err", err)
		f.settle(StateError, api.ErrorMessage(err, "verification failed"))
	} else {
		message, _ := v.(string)
		if message == "" {
			message = "email verified"
		}
		f.settle(StateSuccess, message)
	}

	return f.State()
}

// State returns the current state and message.
func (f *VerificationFlow) State() (VerificationState, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.message
}

// Token returns the token this flow is bound to ("" when the link had none).
func (f *VerificationFlow) Token() string {
	return f.token
}

// Dispose detaches the flow from its view host. A redemption still in
// flight settles in the ledger regardless, but this instance stops
// mutating its observable state.
func (f *VerificationFlow) Dispose() {
	f.mu.Lock()
	f.disposed = true
	f.mu.Unlock()
}

func (f *VerificationFlow) settle(state VerificationState, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed || f.state != StateVerifying {
		return
	}
	f.state = state
	f.message = message
}

package cli

import (
	"context"
	"os"

	"github.com/teamloop/teamloop-cli/internal/client/api"
	"github.com/teamloop/teamloop-cli/internal/client/services"
)

// Verify redeems an email-verification link. With no link argument the user
// is prompted for one. The flow goes through the shared dedup ledger, so
// pasting the same link twice in one session does not burn the token with a
// second redemption attempt.
func (a *App) Verify(ctx context.Context, link string) error {
	if link == "" {
		var err error
		link, err = getSimpleText(a.reader, "Paste the verification link", os.Stdout)
		if err != nil {
			return err
		}
	}

	flow := services.NewVerificationFlow(a.client, a.ledger, a.log, link)
	defer flow.Dispose()

	state, message := flow.Run(ctx)
	printlnFn(message)
	if state != services.StateSuccess {
		return api.ErrTokenInvalid
	}
	return nil
}

// ResendVerification prompts for the account email and requests a fresh
// verification message.
func (a *App) ResendVerification(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	msg, err := a.auth.ResendVerification(ctx, email)
	if err != nil {
		printlnFn(api.ErrorMessage(err, "unable to resend the verification email"))
		return err
	}
	printlnFn(msg)
	return nil
}

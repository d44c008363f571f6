package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/teamloop/teamloop-cli/internal/client/api"
	"github.com/teamloop/teamloop-cli/internal/client/services"
)

// ForgotPassword prompts for an email and asks the backend to send a reset
// link. Against a development backend the issued link is echoed so the flow
// can be exercised without a mailbox.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	flow := services.NewPasswordResetFlow(a.client, a.log, a.config.IsDevelopment())
	defer flow.Dispose()

	if err := flow.RequestReset(ctx, email); err != nil {
		printlnFn(flow.Status().RequestMessage)
		return err
	}

	st := flow.Status()
	printlnFn(st.RequestMessage)
	if st.Preview != nil {
		printlnFn("Reset link (development):", st.Preview.URL)
	}
	return nil
}

// ResetPassword walks the reset link through validation and, when the token
// holds up, prompts for the replacement password. With no link argument the
// user is prompted for one.
func (a *App) ResetPassword(ctx context.Context, link string) error {
	if link == "" {
		var err error
		link, err = getSimpleText(a.reader, "Paste the reset link", os.Stdout)
		if err != nil {
			return err
		}
	}

	flow := services.NewPasswordResetFlow(a.client, a.log, a.config.IsDevelopment())
	defer flow.Dispose()

	if flow.ValidateLink(ctx, link) != services.TokenValid {
		printlnFn("This reset link is invalid or has expired. Use 'forgot' to request a new one.")
		return api.ErrTokenInvalid
	}

	password, err := getPassword("Enter new password", os.Stdout)
	if err != nil {
		return err
	}
	defer wipeBytes(password)

	confirm, err := getPassword("Repeat new password", os.Stdout)
	if err != nil {
		return err
	}
	defer wipeBytes(confirm)

	if err := flow.SubmitNewPassword(ctx, string(password), string(confirm)); err != nil {
		msg := flow.Status().SubmitMessage
		if msg == "" {
			msg = err.Error()
		}
		printlnFn(fmt.Sprintf("Password reset failed: %s", msg))
		return err
	}

	printlnFn(flow.Status().SubmitMessage)
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/teamloop/teamloop-cli/internal/client/api"
	"github.com/teamloop/teamloop-cli/internal/client/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for account details and attempts to create a new account.
// The account stays anonymous afterwards: the backend sends a verification
// email and login is possible only once the address is verified.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer wipeBytes(password)

	msg, err := a.auth.Register(ctx, api.RegisterRequest{
		Username: username,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		printlnFn(api.ErrorMessage(err, "registration failed"))
		return err
	}

	printlnFn(msg)
	return nil
}

// Login prompts for credentials and tries to authenticate. An unverified
// account is pointed at the resend command instead of a plain failure.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer wipeBytes(password)

	user, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, api.ErrNeedsVerification) {
			printlnFn(api.ErrorMessage(err, "please verify your email address first"))
			printlnFn("Use 'resend' to request a new verification email.")
			return err
		}
		printlnFn(api.ErrorMessage(err, "login failed"))
		return err
	}

	printlnFn(fmt.Sprintf("Logged in as %s", user.Username))
	return nil
}

// Logout ends the session. The local session is cleared even when the server
// cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		printlnFn("Logout finished with errors:", err.Error())
		return err
	}
	printlnFn("Logged out.")
	return nil
}

// WhoAmI prints the current session's account details.
func (a *App) WhoAmI(ctx context.Context) error {
	sess := a.auth.Session()
	if sess.Status != session.StatusAuthenticated || sess.User == nil {
		printlnFn("Not logged in.")
		return nil
	}
	printlnFn(fmt.Sprintf("%s <%s> role=%s", sess.User.Username, sess.User.Email, sess.User.Role))
	return nil
}

// Ping checks server reachability.
func (a *App) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		printlnFn("Server unreachable:", err.Error())
		return err
	}
	printlnFn("Server is up.")
	return nil
}

// Package cli provides the interactive TeamLoop command-line client.
//
// It wires configuration, the local session database, the API client and the
// auth flows into an interactive REPL. Typical flow: bootstrap the persisted
// session, then execute user commands.
//
// Key features:
//   - Register / Login / Logout / WhoAmI
//   - Email verification: redeem links, resend the verification email
//   - Password reset: request a link, validate it, set a new password
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli

// Package session owns the current session credential: how it is obscured
// for storage, where it is persisted, and what authentication status the
// rest of the client observes.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/teamloop/teamloop-cli/internal/client/storage"
)

// SecretStorageKey is where the obscuring secret lives in local storage.
// It is cleared independently of the token (see Store.Clear).
const SecretStorageKey = "session.secret"

const secretLen = 32

// Obscurer reversibly obscures the session token before it is persisted.
//
// This is obfuscation, not cryptographic confidentiality: it raises the bar
// against casual inspection of the local database, not against an attacker
// who can run code in this process and read the same secret. The transform
// is XOR against a repeating random secret followed by base64.
type Obscurer struct {
	repo storage.Repository

	mu     sync.Mutex
	secret []byte
}

func NewObscurer(repo storage.Repository) *Obscurer {
	return &Obscurer{repo: repo}
}

// Obscure encodes plaintext for storage. If the secret cannot be obtained
// (storage failure), the plaintext is returned unchanged: a value that fails
// to obscure still round-trips through Reveal's identity fallback.
func (o *Obscurer) Obscure(ctx context.Context, plaintext string) string {
	secret, err := o.loadOrCreateSecret(ctx)
	if err != nil {
		return plaintext
	}
	return base64.RawURLEncoding.EncodeToString(xorBytes([]byte(plaintext), secret))
}

// Reveal reverses Obscure. It is total: on any failure (missing secret,
// malformed input, storage error) the input is returned unchanged, so a
// corrupt or legacy plain value degrades to "use as-is" and fails downstream
// auth checks naturally instead of crashing the caller.
func (o *Obscurer) Reveal(ctx context.Context, obscured string) string {
	raw, err := base64.RawURLEncoding.DecodeString(obscured)
	if err != nil {
		return obscured
	}

	o.mu.Lock()
	secret := o.secret
	o.mu.Unlock()

	if secret == nil {
		loaded, err := o.repo.Get(ctx, SecretStorageKey)
		if err != nil || len(loaded) == 0 {
			return obscured
		}
		o.mu.Lock()
		o.secret = loaded
		o.mu.Unlock()
		secret = loaded
	}

	return string(xorBytes(raw, secret))
}

// ClearKey discards the obscuring secret, in memory and in storage. Any
// previously obscured value becomes unreadable, which forces
// re-authentication.
func (o *Obscurer) ClearKey(ctx context.Context) error {
	o.forgetSecret()

	if err := o.repo.Delete(ctx, SecretStorageKey); err != nil {
		return fmt.Errorf("failed to clear obscuring secret: %w", err)
	}
	return nil
}

// forgetSecret drops the in-memory copy of the secret only. Store.Clear uses
// it after deleting the stored secret inside its own transaction.
func (o *Obscurer) forgetSecret() {
	o.mu.Lock()
	o.secret = nil
	o.mu.Unlock()
}

// loadOrCreateSecret returns the cached secret, loading it from storage or
// generating a fresh one on first use.
func (o *Obscurer) loadOrCreateSecret(ctx context.Context) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.secret != nil {
		return o.secret, nil
	}

	loaded, err := o.repo.Get(ctx, SecretStorageKey)
	if err != nil {
		return nil, err
	}
	if len(loaded) > 0 {
		o.secret = loaded
		return loaded, nil
	}

	secret := make([]byte, secretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	if err := o.repo.Set(ctx, SecretStorageKey, secret); err != nil {
		return nil, err
	}
	o.secret = secret
	return secret, nil
}

func xorBytes(data, secret []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ secret[i%len(secret)]
	}
	return out
}

// Package storage owns persistent client-side state. It is the only package
// in the client core that is allowed to touch durable storage; everything
// else goes through the Repository interface.
package storage

import "context"

// Repository is a small key/value store over the local database.
//
// Get returns (nil, nil) when the key is absent so callers can treat a
// missing value and an empty value uniformly.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Package store defines the key/value contract policy documents are
// persisted through. Backends live in sub-packages: fsstore (local or
// in-memory file systems), redisstore and mongostore.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no document exists under a key.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidKey is returned for keys that cannot name a document.
	ErrInvalidKey = errors.New("store: invalid key")
)

// Store persists one document per key. Put replaces any previous document.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// ValidateKey rejects empty keys and keys that would escape a directory.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	case strings.ContainsAny(key, `/\`), key == ".", key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

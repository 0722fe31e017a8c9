package policy

import (
	"context"
	"fmt"
)

// Writer stores a document under a key, replacing any previous one.
type Writer interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Reader returns the document previously stored under a key.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// PersistTo writes the JSON document of p under key. Store errors are
// returned wrapped in ErrPersistence and are not retried.
func (p *Policy) PersistTo(ctx context.Context, w Writer, key string) error {
	data, err := EncodeJSON(p.Document())
	if err != nil {
		return fmt.Errorf("%w: encode %q: %w", ErrPersistence, key, err)
	}
	if err := w.Put(ctx, key, data); err != nil {
		return fmt.Errorf("%w: write %q: %w", ErrPersistence, key, err)
	}
	return nil
}

// LoadFrom reads the JSON document stored under key and rebuilds the policy.
func LoadFrom(ctx context.Context, r Reader, key string, opts ...DecodeOption) (*Policy, error) {
	data, err := r.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", ErrPersistence, key, err)
	}
	doc, err := DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", key, err)
	}
	return FromDocument(doc, opts...)
}

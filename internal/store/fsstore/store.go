package fsstore

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/awmpietro/policy-blocks/internal/store"
)

const ext = ".json"

// Store keeps one <key>.json file per document under a base URL. Any afs
// scheme works; plain paths are treated as local files and mem:// keeps
// everything in process memory.
type Store struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates the base directory when it does not exist yet.
func New(ctx context.Context, base string) (*Store, error) {
	if base == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	fs := afs.New()
	baseURL := url.Normalize(base, file.Scheme)

	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory %s: %w", baseURL, err)
		}
	}

	return &Store{baseURL: baseURL, fs: fs}, nil
}

func (s *Store) BaseURL() string { return s.baseURL }

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	if err := s.fs.Upload(ctx, path, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.path(key)
	exists, err := s.fs.Exists(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}

	data, err := s.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	exists, err := s.fs.Exists(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	if err := s.fs.Delete(ctx, path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// List returns the stored keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.baseURL, err)
	}

	keys := make([]string, 0, len(objects))
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(object.Name(), ext))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) path(key string) string {
	return url.Join(s.baseURL, key+ext)
}

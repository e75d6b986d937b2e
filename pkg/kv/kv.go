// Package kv holds the string-keyed key-value stores tasks are persisted in.
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrQuotaExceeded  = errors.New("kv: storage quota exceeded")
	ErrUnknownBackend = errors.New("kv: unknown backend")
	ErrClosed         = errors.New("kv: store is closed")
)

// Store is a synchronous string-keyed key-value store.
type Store interface {
	// Get returns the value at key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Dir        string
	SQLitePath string
	RedisURL   string
	QuotaBytes int
}

// Open builds the Store named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "file":
		return NewFileStore(expandHome(opts.Dir))
	case "memory":
		return NewMemoryStore(opts.QuotaBytes), nil
	case "sqlite":
		return NewSQLiteStore(ctx, expandHome(opts.SQLitePath))
	case "redis":
		return NewRedisStore(ctx, opts.RedisURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Package session persists the small records a participant needs to rejoin a
// room after a restart.
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Load when the key has no value.
var ErrNotFound = errors.New("session key not found")

// Store is a key-value store for serialized session records.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

// Backend is a Store that holds resources until closed.
type Backend interface {
	Store
	Close() error
}

const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Path        string
	RedisAddr   string
	RedisPrefix string
	PostgresDSN string
}

// Open builds the backend named in opts.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendBolt:
		return OpenBoltStore(opts.Path, logger)
	case BackendRedis:
		return NewRedisStore(opts.RedisAddr, opts.RedisPrefix, logger), nil
	case BackendPostgres:
		return OpenPostgresStore(ctx, opts.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unknown session backend %q", opts.Backend)
	}
}

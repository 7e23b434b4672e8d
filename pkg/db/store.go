// Collection storage used by every Saffron repository.

package db

import (
	"Saffron/pkg/log"
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNotFound is returned by Collection lookups for an unknown key.
var ErrNotFound = errors.New("db: record not found")

// ErrUnsupportedDriver is returned by NewStore for an unknown STORE_DRIVER.
var ErrUnsupportedDriver = errors.New("db: unsupported store driver")

// Store persists whole named collections as JSON documents.
type Store interface {
	// ReadCollection decodes the named collection into out.
	// A collection which was never written leaves out untouched and returns nil.
	ReadCollection(ctx context.Context, name string, out any) error
	// WriteCollection replaces the named collection with v.
	WriteCollection(ctx context.Context, name string, v any) error
	Close() error
}

// Options selects and configures the Store built by NewStore.
type Options struct {
	Driver string // json, redis, sqlite or postgres
	Path   string // directory of the json store, default location of the sqlite file
	DSN    string
	Redis  RedisOptions
}

// NewStore builds the Store selected by opts.Driver.
func NewStore(ctx context.Context, opts Options, logger log.Logger) (Store, error) {
	switch opts.Driver {
	case "", "json":
		return NewJSONFileStore(opts.Path)
	case "redis":
		client, err := NewDbConnection(ctx, opts.Redis, logger)
		if err != nil {
			return nil, err
		}
		if err := client.CheckDbConnection(ctx, logger); err != nil {
			client.CloseDbConnection(ctx)
			return nil, err
		}
		return NewRedisStore(client), nil
	case "sqlite":
		dsn := opts.DSN
		if dsn == "" {
			dsn = filepath.Join(opts.Path, "saffron.db")
		}
		return NewSQLStore(ctx, "sqlite", dsn)
	case "postgres":
		if opts.DSN == "" {
			return nil, errors.New("db: STORE_DSN is required for postgres")
		}
		return NewSQLStore(ctx, "postgres", opts.DSN)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, opts.Driver)
}

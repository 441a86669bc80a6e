package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	perrors "github.com/jmgilman/go/errors"

	"github.com/goliatone/go-profileform/pkg/model"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrDuplicateEmail is returned by Save when a profile with the same email
// (compared case-insensitively) already exists.
var ErrDuplicateEmail = errors.New("store: email already registered")

// Store persists profiles.
type Store interface {
	Save(ctx context.Context, profile model.Profile) (model.StoredProfile, error)
	List(ctx context.Context, limit int) ([]model.StoredProfile, error)
	Close() error
}

// Option customises a store.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock overrides the clock stamping CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides the ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

func resolveOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Config selects and configures a store for Open.
type Config struct {
	Driver string
	DSN    string
}

// Open builds the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemory(opts...), nil
	case DriverSQLite, "sqlite3":
		return OpenSQLite(ctx, cfg.DSN, opts...)
	case DriverPostgres, "pgx":
		return OpenPostgres(ctx, cfg.DSN, opts...)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}

// Failing is a store whose writes always fail with a database error. It backs
// demonstrations of the database failure path.
type Failing struct {
	Err error
}

// Save implements Store.
func (f Failing) Save(context.Context, model.Profile) (model.StoredProfile, error) {
	cause := f.Err
	if cause == nil {
		cause = errors.New("database unavailable")
	}
	return model.StoredProfile{}, perrors.Wrap(cause, perrors.CodeDatabase, "store: save profile")
}

// List implements Store.
func (f Failing) List(context.Context, int) ([]model.StoredProfile, error) {
	return nil, perrors.New(perrors.CodeDatabase, "store: list profiles")
}

// Close implements Store.
func (Failing) Close() error { return nil }

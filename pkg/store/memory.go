package store

import (
	"context"
	"sync"

	"github.com/goliatone/go-profileform/pkg/model"
)

// Memory keeps profiles in process.
type Memory struct {
	mu       sync.RWMutex
	opts     options
	profiles []model.StoredProfile
	emails   map[string]struct{}
}

// NewMemory constructs an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	return &Memory{
		opts:   resolveOptions(opts),
		emails: make(map[string]struct{}),
	}
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, profile model.Profile) (model.StoredProfile, error) {
	if err := ctx.Err(); err != nil {
		return model.StoredProfile{}, err
	}

	key := model.NormalizeEmail(profile.Email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.emails[key]; exists {
		return model.StoredProfile{}, ErrDuplicateEmail
	}
	stored := model.StoredProfile{
		ID:        m.opts.newID(),
		CreatedAt: m.opts.now().UTC(),
		Profile:   profile,
	}
	m.emails[key] = struct{}{}
	m.profiles = append(m.profiles, stored)
	return stored, nil
}

// List returns up to limit profiles, newest first.
func (m *Memory) List(ctx context.Context, limit int) ([]model.StoredProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.StoredProfile, 0, min(limit, len(m.profiles)))
	for i := len(m.profiles) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.profiles[i])
	}
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

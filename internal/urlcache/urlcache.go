// Package urlcache caches resolved stream URLs until their provider-declared
// expiry. Expired entries are reported as absent, never served stale.
package urlcache

import (
	"context"
	"sync"
	"time"
)

// Entry is a resolved URL and the instant it stops being usable.
type Entry struct {
	URL    string    `json:"url"`
	Expiry time.Time `json:"expiry"`
}

// Valid reports whether the entry can still be used at now.
func (e Entry) Valid(now time.Time) bool {
	return e.URL != "" && now.Before(e.Expiry)
}

// Cache maps track ids to resolved URLs. Writes overwrite; there is no delete.
type Cache interface {
	Get(ctx context.Context, id string) (Entry, bool)
	Set(ctx context.Context, id string, e Entry) error
}

// Memory is an in-process Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// Verify Memory implements Cache at compile time.
var _ Cache = (*Memory)(nil)

// NewMemory creates an in-memory cache. A nil clock uses time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{entries: make(map[string]Entry), now: now}
}

func (m *Memory) Get(_ context.Context, id string) (Entry, bool) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok || !e.Valid(m.now()) {
		return Entry{}, false
	}
	return e, true
}

func (m *Memory) Set(_ context.Context, id string, e Entry) error {
	m.mu.Lock()
	m.entries[id] = e
	m.mu.Unlock()
	return nil
}

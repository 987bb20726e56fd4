package player

import (
	"sync"
	"time"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// Load records an item the player asked its backend to fetch.
type Load struct {
	Gen      uint64
	TrackID  string
	Position time.Duration
}

// Mock is a test double for Player. Loads never complete on their own:
// tests drive them with Ready, Finish and Fail. The clock only moves with
// Advance.
type Mock struct {
	*timeline

	mu        sync.Mutex
	clock     time.Time
	loads     []Load
	autoReady bool
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	m := &Mock{clock: time.Unix(1_700_000_000, 0)}
	m.timeline = newTimeline(m.now, m.onLoad, nil)
	return m
}

func (m *Mock) now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}

func (m *Mock) onLoad(gen uint64, track playlist.Track, position time.Duration) {
	m.mu.Lock()
	m.loads = append(m.loads, Load{Gen: gen, TrackID: track.ID, Position: position})
	auto := m.autoReady
	m.mu.Unlock()
	if auto {
		go m.ready(gen)
	}
}

func (m *Mock) Close() error {
	m.close()
	return nil
}

// Test helpers

// SetAutoReady makes every load become Ready without a Ready call.
func (m *Mock) SetAutoReady(auto bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoReady = auto
}

// Loads returns every load requested so far.
func (m *Mock) Loads() []Load {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Load, len(m.loads))
	copy(out, m.loads)
	return out
}

// Advance moves the mock clock forward.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(d)
}

// Ready completes buffering of the current item.
func (m *Mock) Ready() { m.ready(m.generation()) }

// Finish simulates the current item playing to its end.
func (m *Mock) Finish() { m.complete(m.generation()) }

// Fail simulates a load error on the current item.
func (m *Mock) Fail(err error) { m.fail(m.generation(), err) }

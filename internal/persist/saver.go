package persist

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultInterval is how often the queue is saved while the service runs.
const DefaultInterval = 30 * time.Second

// SnapshotFunc captures the current queue. idle reports an idle player.
type SnapshotFunc func(ctx context.Context) (snap Snapshot, idle bool, err error)

// Saver saves the queue on a fixed interval.
type Saver struct {
	store    *Store
	capture  SnapshotFunc
	enabled  func() bool
	interval time.Duration
	logger   *log.Logger
}

// NewSaver creates a saver. enabled is consulted before each save so the
// persistent-queue setting can change at runtime; nil means always.
func NewSaver(store *Store, capture SnapshotFunc, enabled func() bool, interval time.Duration, logger *log.Logger) *Saver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if enabled == nil {
		enabled = func() bool { return true }
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Saver{
		store:    store,
		capture:  capture,
		enabled:  enabled,
		interval: interval,
		logger:   logger.WithPrefix("persist"),
	}
}

// Run saves every interval until ctx is done.
func (s *Saver) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SaveNow(ctx)
		}
	}
}

// SaveNow captures and saves once. Errors are logged, never returned, so a
// failing disk does not disturb playback.
func (s *Saver) SaveNow(ctx context.Context) {
	if !s.enabled() {
		return
	}
	snap, idle, err := s.capture(ctx)
	if err != nil {
		s.logger.Debug("capture queue skipped", "err", err)
		return
	}
	if err := s.store.Save(snap, idle); err != nil {
		s.logger.Warn("save queue failed", "path", s.store.Path(), "err", err)
	}
}

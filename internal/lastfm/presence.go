package lastfm

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/state"
)

const (
	// minScrobbleDuration is the shortest track Last.fm accepts.
	minScrobbleDuration = 30 * time.Second
	retryInterval       = 5 * time.Minute
	maxAttempts         = 10
)

// API is the subset of the Last.fm client used for presence.
type API interface {
	SetSessionKey(key string)
	UpdateNowPlaying(track ScrobbleTrack) error
	Scrobble(track ScrobbleTrack) error
}

// PendingStore persists scrobbles that could not be submitted.
type PendingStore interface {
	AddPendingScrobble(s state.PendingScrobble) error
	GetPendingScrobbles() ([]state.PendingScrobble, error)
	DeletePendingScrobble(id int64) error
	UpdatePendingScrobbleAttempt(id int64, errMsg string) error
}

// Presence publishes now-playing updates and scrobbles to Last.fm.
// Failed scrobbles are queued in the store and retried by Run.
type Presence struct {
	api     API
	pending PendingStore
	logger  *log.Logger

	mu      sync.Mutex
	enabled bool
}

// NewPresence creates a presence publisher. pending may be nil, in which
// case failed scrobbles are dropped.
func NewPresence(api API, pending PendingStore, logger *log.Logger) *Presence {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Presence{api: api, pending: pending, logger: logger.WithPrefix("lastfm")}
}

// Configure sets the session key and whether publishing is enabled.
func (p *Presence) Configure(sessionKey string, enabled bool) {
	p.api.SetSessionKey(sessionKey)
	p.mu.Lock()
	p.enabled = enabled && sessionKey != ""
	p.mu.Unlock()
	p.logger.Debug("configured", "enabled", p.Enabled())
}

// Enabled reports whether updates are published.
func (p *Presence) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// NowPlaying announces the current track.
func (p *Presence) NowPlaying(ctx context.Context, track playlist.Track) error {
	if !p.Enabled() || len(track.Artists) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.api.UpdateNowPlaying(FromTrack(track, time.Time{}))
}

// Scrobble submits a play that started at startedAt. A failed submission
// is queued for retry and not reported as an error.
func (p *Presence) Scrobble(ctx context.Context, track playlist.Track, startedAt time.Time) error {
	if !p.Enabled() || !scrobblable(track) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	st := FromTrack(track, startedAt)
	err := p.api.Scrobble(st)
	if err == nil {
		return nil
	}
	if p.pending == nil {
		return err
	}
	p.logger.Debug("scrobble queued", "id", track.ID, "err", err)
	return p.pending.AddPendingScrobble(state.PendingScrobble{
		SongID:       st.SongID,
		Artist:       st.Artist,
		Track:        st.Track,
		Album:        st.Album,
		DurationSecs: int(st.Duration.Seconds()),
		Timestamp:    st.Timestamp,
	})
}

// Run retries pending scrobbles until ctx is done.
func (p *Presence) Run(ctx context.Context) {
	if p.pending == nil {
		return
	}
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			succeeded, failed, err := p.RetryPending(ctx)
			if err != nil {
				p.logger.Warn("retry pending scrobbles", "err", err)
				continue
			}
			if succeeded+failed > 0 {
				p.logger.Info("retried pending scrobbles", "succeeded", succeeded, "failed", failed)
			}
		}
	}
}

// RetryPending submits queued scrobbles once. Entries past maxAttempts are
// left in the store untouched.
func (p *Presence) RetryPending(ctx context.Context) (succeeded, failed int, err error) {
	if !p.Enabled() || p.pending == nil {
		return 0, 0, nil
	}
	pending, err := p.pending.GetPendingScrobbles()
	if err != nil {
		return 0, 0, err
	}
	for i := range pending {
		if ctx.Err() != nil {
			break
		}
		ps := &pending[i]
		if ps.Attempts >= maxAttempts {
			continue
		}
		err := p.api.Scrobble(ScrobbleTrack{
			SongID:    ps.SongID,
			Artist:    ps.Artist,
			Track:     ps.Track,
			Album:     ps.Album,
			Duration:  time.Duration(ps.DurationSecs) * time.Second,
			Timestamp: ps.Timestamp,
		})
		if err != nil {
			failed++
			if uerr := p.pending.UpdatePendingScrobbleAttempt(ps.ID, err.Error()); uerr != nil {
				p.logger.Warn("update pending scrobble", "id", ps.ID, "err", uerr)
			}
			continue
		}
		succeeded++
		if derr := p.pending.DeletePendingScrobble(ps.ID); derr != nil {
			p.logger.Warn("delete pending scrobble", "id", ps.ID, "err", derr)
		}
	}
	return succeeded, failed, nil
}

func scrobblable(t playlist.Track) bool {
	if len(t.Artists) == 0 || t.Live {
		return false
	}
	return !t.HasDuration() || time.Duration(t.Duration)*time.Second >= minScrobbleDuration
}

package playback

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// Side effect timings.
const (
	sideEffectDelay    = time.Second
	presenceCredsDelay = 300 * time.Millisecond

	// minHistoryPlayTime is the least audible time for a play to be recorded.
	minHistoryPlayTime = 30 * time.Second
)

// Notifier shows "now playing" notifications.
type Notifier interface {
	NowPlaying(track playlist.Track)
}

// Presence publishes listening activity to an external service.
type Presence interface {
	// Configure switches the integration on or off with the given session
	// key.
	Configure(sessionKey string, enabled bool)
	NowPlaying(ctx context.Context, track playlist.Track) error
	Scrobble(ctx context.Context, track playlist.Track, startedAt time.Time) error
}

// EffectSession receives open/close notifications for the audio-effect
// session of the player, e.g. an external equalizer.
type EffectSession interface {
	Open(sessionID string)
	Close(sessionID string)
}

// NormalizationFactor returns the gain applied for a track with the given
// loudness. Tracks louder than the reference are attenuated, quieter ones
// are left untouched.
func NormalizationFactor(loudnessDb *float64, enabled bool) float64 {
	if !enabled || loudnessDb == nil {
		return 1
	}
	return min(math.Pow(10, -*loudnessDb/20), 1)
}

type nopNotifier struct{}

func (nopNotifier) NowPlaying(playlist.Track) {}

type nopPresence struct{}

func (nopPresence) Configure(string, bool)                                    {}
func (nopPresence) NowPlaying(context.Context, playlist.Track) error          { return nil }
func (nopPresence) Scrobble(context.Context, playlist.Track, time.Time) error { return nil }

type nopEffects struct{}

func (nopEffects) Open(string)  {}
func (nopEffects) Close(string) {}

// LogEffects records effect session changes in the log for setups without
// an effects processor.
type LogEffects struct {
	Logger *log.Logger
}

func (e LogEffects) Open(sessionID string) {
	e.Logger.Debug("audio effect session opened", "session", sessionID)
}

func (e LogEffects) Close(sessionID string) {
	e.Logger.Debug("audio effect session closed", "session", sessionID)
}

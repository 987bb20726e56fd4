package playback

import (
	"time"

	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/state"
)

// Snapshot is an immutable view of the hub. Slices and pointers in it are
// never modified after publication.
type Snapshot struct {
	State  State
	Title  string
	Tracks []playlist.Track
	Index  int
	// Current is the current track with its stored like/library flags, nil
	// when nothing is queued.
	Current  *state.Song
	// Format is the stored transport format of the current track, nil until
	// it has been resolved once.
	Format   *state.FormatRecord
	Position time.Duration

	Shuffle bool
	Repeat  playlist.RepeatMode

	CanSkipPrevious bool
	CanSkipNext     bool

	Volume        float64 // user volume
	Normalization float64 // loudness factor applied on top of Volume
	Translating   bool
	SleepAt       time.Time // zero when no sleep timer is set

	HasMore bool
	Err     error
}

// OutputVolume is the volume actually sent to the player.
func (s Snapshot) OutputVolume() float64 {
	return min(max(s.Volume*s.Normalization, 0), 1)
}

// canSkip derives the skip flags for the current item.
func canSkip(cur *playlist.Track, hasPrevious, hasNext bool) (prev, next bool) {
	live := cur != nil && cur.Live
	prev = !live || hasPrevious
	next = live || hasNext
	return prev, next
}

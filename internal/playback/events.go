package playback

import (
	"github.com/llehouerou/streamwave/internal/player"
	"github.com/llehouerou/streamwave/internal/playlist"
)

// TrackChange is sent for every media transition: automatic advance,
// repeat of the same item, a seek to another item or a replaced playlist.
// Current is nil when the queue was emptied.
type TrackChange struct {
	Current *playlist.Track
	Index   int
	Reason  player.TransitionReason
}

// ErrorEvent reports a failed track or background operation.
type ErrorEvent struct {
	Operation string // errmsg.Op of the failed operation
	TrackID   string
	Err       error
	Skipped   bool // the hub moved on to the next track
}

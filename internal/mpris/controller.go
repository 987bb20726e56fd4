package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/streamwave/internal/playback"
	"github.com/llehouerou/streamwave/internal/player"
	"github.com/llehouerou/streamwave/internal/playlist"
)

// Controller is the part of the playback hub driven over MPRIS.
type Controller interface {
	Snapshot() playback.Snapshot
	TogglePlay() error
	SkipNext() error
	SkipPrevious() error
	Stop() error
	Seek(position time.Duration) error
	SetShuffle(enabled bool) error
	SetRepeatMode(m playlist.RepeatMode) error
	SetVolume(level float64) error
}

// playbackStatus maps the hub state to the MPRIS status. Buffering with the
// intent to play is reported as playing.
func playbackStatus(s playback.State) types.PlaybackStatus {
	switch {
	case s.Player == player.Idle, s.Player == player.Ended:
		return types.PlaybackStatusStopped
	case s.PlayWhenReady:
		return types.PlaybackStatusPlaying
	default:
		return types.PlaybackStatusPaused
	}
}

func metadata(snap playback.Snapshot) types.Metadata {
	if snap.Current == nil {
		return types.Metadata{TrackId: dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")}
	}
	t := snap.Current.Track
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(t.ID)),
		Title:   t.Title,
		Artist:  t.Artists,
		ArtUrl:  t.Thumbnail,
	}
	if t.HasDuration() {
		meta.Length = types.Microseconds((time.Duration(t.Duration) * time.Second).Microseconds())
	}
	if t.Album != nil {
		meta.Album = t.Album.Title
	}
	return meta
}

func loopStatus(m playlist.RepeatMode) types.LoopStatus {
	switch m {
	case playlist.RepeatOne:
		return types.LoopStatusTrack
	case playlist.RepeatAll:
		return types.LoopStatusPlaylist
	default:
		return types.LoopStatusNone
	}
}

func repeatMode(s types.LoopStatus) (playlist.RepeatMode, bool) {
	switch s {
	case types.LoopStatusNone:
		return playlist.RepeatOff, true
	case types.LoopStatusTrack:
		return playlist.RepeatOne, true
	case types.LoopStatusPlaylist:
		return playlist.RepeatAll, true
	}
	return playlist.RepeatOff, false
}

// seekTarget clamps a relative seek into the current track.
func seekTarget(snap playback.Snapshot, offset time.Duration) time.Duration {
	target := max(snap.Position+offset, 0)
	if snap.Current != nil && snap.Current.HasDuration() {
		target = min(target, time.Duration(snap.Current.Duration)*time.Second)
	}
	return target
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}

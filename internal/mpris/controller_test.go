package mpris

import (
	"testing"
	"time"

	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/stretchr/testify/assert"

	"github.com/llehouerou/streamwave/internal/playback"
	"github.com/llehouerou/streamwave/internal/player"
	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/state"
)

func TestPlaybackStatus(t *testing.T) {
	tests := []struct {
		name  string
		state playback.State
		want  types.PlaybackStatus
	}{
		{"idle", playback.State{Player: player.Idle, PlayWhenReady: true}, types.PlaybackStatusStopped},
		{"ended", playback.State{Player: player.Ended, PlayWhenReady: true}, types.PlaybackStatusStopped},
		{"buffering", playback.State{Player: player.Buffering, PlayWhenReady: true}, types.PlaybackStatusPlaying},
		{"ready playing", playback.State{Player: player.Ready, PlayWhenReady: true}, types.PlaybackStatusPlaying},
		{"ready paused", playback.State{Player: player.Ready}, types.PlaybackStatusPaused},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, playbackStatus(tt.state))
		})
	}
}

func TestMetadata(t *testing.T) {
	snap := playback.Snapshot{Current: &state.Song{Track: playlist.Track{
		ID:        "abc",
		Title:     "Song",
		Artists:   []string{"A", "B"},
		Duration:  200,
		Thumbnail: "https://img/abc.jpg",
		Album:     &playlist.Album{ID: "al", Title: "Album"},
	}}}

	meta := metadata(snap)

	assert.Equal(t, "Song", meta.Title)
	assert.Equal(t, []string{"A", "B"}, meta.Artist)
	assert.Equal(t, "Album", meta.Album)
	assert.Equal(t, "https://img/abc.jpg", meta.ArtUrl)
	assert.Equal(t, types.Microseconds(200_000_000), meta.Length)
	assert.Equal(t, formatTrackID("abc"), string(meta.TrackId))
}

func TestMetadata_UnknownDuration(t *testing.T) {
	snap := playback.Snapshot{Current: &state.Song{Track: playlist.Track{ID: "live", Duration: playlist.UnknownDuration}}}
	assert.Zero(t, metadata(snap).Length)
}

func TestLoopStatusRoundTrip(t *testing.T) {
	for _, m := range []playlist.RepeatMode{playlist.RepeatOff, playlist.RepeatOne, playlist.RepeatAll} {
		got, ok := repeatMode(loopStatus(m))
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	_, ok := repeatMode(types.LoopStatus("Bogus"))
	assert.False(t, ok)
}

func TestSeekTarget(t *testing.T) {
	snap := playback.Snapshot{
		Position: 10 * time.Second,
		Current:  &state.Song{Track: playlist.Track{ID: "a", Duration: 30}},
	}
	assert.Equal(t, 15*time.Second, seekTarget(snap, 5*time.Second))
	assert.Equal(t, time.Duration(0), seekTarget(snap, -20*time.Second))
	assert.Equal(t, 30*time.Second, seekTarget(snap, time.Minute))
}

func TestFormatTrackID_Stable(t *testing.T) {
	assert.Equal(t, formatTrackID("x"), formatTrackID("x"))
	assert.NotEqual(t, formatTrackID("x"), formatTrackID("y"))
}

package playback

import (
	"strings"

	"github.com/llehouerou/streamwave/internal/player"
	"github.com/llehouerou/streamwave/internal/playlist"
)

// State is the transport state crossed with the play intent.
type State struct {
	Player        player.State
	PlayWhenReady bool
}

// String returns the state name.
func (s State) String() string {
	switch {
	case s.Player == player.Idle:
		return "Stopped"
	case s.Player == player.Ended:
		return "Ended"
	case !s.PlayWhenReady:
		return "Paused"
	case s.Player == player.Buffering:
		return "Buffering"
	default:
		return "Playing"
	}
}

// IsActive returns true if an item is prepared (playing, buffering or paused).
func (s State) IsActive() bool {
	return s.Player.IsActive()
}

// IsPlaying returns true if sound is, or is about to be, produced.
func (s State) IsPlaying() bool {
	return player.Audible(s.Player, s.PlayWhenReady)
}

// RepeatModeString returns the config name of a repeat mode.
func RepeatModeString(m playlist.RepeatMode) string {
	switch m {
	case playlist.RepeatOff:
		return "off"
	case playlist.RepeatAll:
		return "all"
	case playlist.RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// ParseRepeatMode parses a config name. Unknown names are RepeatOff.
func ParseRepeatMode(s string) (playlist.RepeatMode, bool) {
	switch strings.ToLower(s) {
	case "off":
		return playlist.RepeatOff, true
	case "all":
		return playlist.RepeatAll, true
	case "one":
		return playlist.RepeatOne, true
	default:
		return playlist.RepeatOff, false
	}
}

// NextRepeatMode cycles Off -> All -> One -> Off.
func NextRepeatMode(m playlist.RepeatMode) playlist.RepeatMode {
	switch m {
	case playlist.RepeatOff:
		return playlist.RepeatAll
	case playlist.RepeatAll:
		return playlist.RepeatOne
	default:
		return playlist.RepeatOff
	}
}

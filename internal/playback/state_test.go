// internal/playback/state_test.go
package playback

import (
	"testing"

	"github.com/llehouerou/streamwave/internal/player"
	"github.com/llehouerou/streamwave/internal/playlist"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{State{player.Idle, true}, "Stopped"},
		{State{player.Ended, true}, "Ended"},
		{State{player.Ready, false}, "Paused"},
		{State{player.Buffering, true}, "Buffering"},
		{State{player.Ready, true}, "Playing"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsPlaying(t *testing.T) {
	if (State{player.Ready, false}).IsPlaying() {
		t.Error("paused state reported as playing")
	}
	if !(State{player.Buffering, true}).IsPlaying() {
		t.Error("buffering with intent should count as playing")
	}
	if !(State{player.Ready, false}).IsActive() {
		t.Error("paused state should be active")
	}
}

func TestRepeatMode_RoundTrip(t *testing.T) {
	for _, m := range []playlist.RepeatMode{playlist.RepeatOff, playlist.RepeatAll, playlist.RepeatOne} {
		got, ok := ParseRepeatMode(RepeatModeString(m))
		if !ok || got != m {
			t.Errorf("ParseRepeatMode(RepeatModeString(%d)) = %d, %v", m, got, ok)
		}
	}
	if _, ok := ParseRepeatMode("shuffle"); ok {
		t.Error("ParseRepeatMode accepted an unknown name")
	}
}

func TestNextRepeatMode(t *testing.T) {
	m := playlist.RepeatOff
	want := []playlist.RepeatMode{playlist.RepeatAll, playlist.RepeatOne, playlist.RepeatOff}
	for i, w := range want {
		m = NextRepeatMode(m)
		if m != w {
			t.Fatalf("step %d: got %d, want %d", i, m, w)
		}
	}
}

package player

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Idle, "Idle"},
		{Buffering, "Buffering"},
		{Ready, "Ready"},
		{Ended, "Ended"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAudible(t *testing.T) {
	tests := []struct {
		state         State
		playWhenReady bool
		want          bool
	}{
		{Idle, true, false},
		{Buffering, true, true},
		{Ready, true, true},
		{Ready, false, false},
		{Ended, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := Audible(tt.state, tt.playWhenReady); got != tt.want {
				t.Errorf("Audible(%v, %v) = %v, want %v", tt.state, tt.playWhenReady, got, tt.want)
			}
		})
	}
}

func TestTransitionReason_String(t *testing.T) {
	tests := []struct {
		reason TransitionReason
		want   string
	}{
		{TransitionAuto, "auto"},
		{TransitionSeek, "seek"},
		{TransitionRepeat, "repeat"},
		{TransitionPlaylistChanged, "playlist_changed"},
		{TransitionReason(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.reason.String(); got != tt.want {
				t.Errorf("TransitionReason.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

package player

// State is the transport state of the player.
//
//	           prepare             first bytes
//	┌──────┐ ─────────▶ ┌───────────┐ ─────────▶ ┌───────┐
//	│ Idle │            │ Buffering │            │ Ready │
//	└──────┘ ◀───────── └───────────┘ ◀───────── └───────┘
//	    ▲     stop/error       ▲          seek        │
//	    │                      │ seek                 │ end of last item
//	    │                  ┌───────┐ ◀────────────────┘
//	    └──────────────────│ Ended │
//	          stop         └───────┘
//
// Idle means nothing is prepared: the player was never started, was stopped
// or failed. Whether sound comes out also depends on the play-when-ready
// intent, which is independent of the state.
type State int

const (
	Idle State = iota
	Buffering
	Ready
	Ended
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Buffering:
		return "Buffering"
	case Ready:
		return "Ready"
	case Ended:
		return "Ended"
	default:
		return "Unknown"
	}
}

// IsActive returns true if an item is prepared (Buffering or Ready).
func (s State) IsActive() bool {
	return s == Buffering || s == Ready
}

// Audible reports whether a player in state s with the given intent is
// producing, or about to produce, sound.
func Audible(s State, playWhenReady bool) bool {
	return s.IsActive() && playWhenReady
}

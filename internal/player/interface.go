package player

import (
	"time"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// Interface defines the player contract for dependency injection and testing.
// Methods must be called from a single goroutine; Events is the only way
// the player talks back.
type Interface interface {
	SetItems(tracks []playlist.Track, index int, position time.Duration)
	AddItems(index int, tracks ...playlist.Track)
	RemoveItems(from, to int)
	Items() []playlist.Track
	Len() int
	CurrentIndex() int
	Current() *playlist.Track

	Prepare()
	Stop()
	State() State
	SetPlayWhenReady(play bool)
	PlayWhenReady() bool

	SeekTo(index int, position time.Duration)
	SeekToNext()
	SeekToPrevious()
	HasNext() bool
	HasPrevious() bool
	Position() time.Duration

	SetShuffle(enabled bool)
	SetShuffleOrder(order []int) bool
	Shuffle() bool
	SetRepeatMode(mode playlist.RepeatMode)
	RepeatMode() playlist.RepeatMode

	SetVolume(level float64)
	Volume() float64
	SetSkipSilence(enabled bool)
	AudioSessionID() string

	Events() <-chan Event
	Close() error
}

// Verify implementations at compile time.
var (
	_ Interface = (*Mock)(nil)
	_ Interface = (*Engine)(nil)
)

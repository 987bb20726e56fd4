package player

import (
	"sync"
	"time"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// EventKind identifies what changed.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventPlayWhenReadyChanged
	EventMediaTransition
	EventTimelineChanged
	EventPositionDiscontinuity
	EventShuffleChanged
	EventRepeatChanged
	EventError
	EventPlayStats
)

// TransitionReason tells why the current item changed.
type TransitionReason int

const (
	TransitionAuto TransitionReason = iota
	TransitionSeek
	TransitionRepeat
	TransitionPlaylistChanged
)

func (r TransitionReason) String() string {
	switch r {
	case TransitionAuto:
		return "auto"
	case TransitionSeek:
		return "seek"
	case TransitionRepeat:
		return "repeat"
	case TransitionPlaylistChanged:
		return "playlist_changed"
	default:
		return "unknown"
	}
}

// Event is a player notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind          EventKind
	State         State
	PlayWhenReady bool
	Reason        TransitionReason
	Track         *playlist.Track
	Shuffle       bool
	Repeat        playlist.RepeatMode
	Err           error
	PlayTime      time.Duration // EventPlayStats: audible time spent on Track
}

// emitter delivers events in order without ever blocking the sender.
type emitter struct {
	mu     sync.Mutex
	queue  []Event
	notify chan struct{}
	out    chan Event
	done   chan struct{}
	closed bool
}

func newEmitter() *emitter {
	e := &emitter{
		notify: make(chan struct{}, 1),
		out:    make(chan Event),
		done:   make(chan struct{}),
	}
	go e.pump()
	return e
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, ev)
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
}

func (e *emitter) pump() {
	defer close(e.out)
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.mu.Unlock()
			select {
			case <-e.notify:
				continue
			case <-e.done:
				return
			}
		}
		ev := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		select {
		case e.out <- ev:
		case <-e.done:
			return
		}
	}
}

func (e *emitter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.done)
}

// Package queue defines the playback queue variants: Empty, List and Radio.
// A queue produces the initial track list and, when it has more, further
// pages on demand. It knows nothing about the player that consumes it.
package queue

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// Status is the initial content of a queue.
type Status struct {
	Title    string
	Tracks   []playlist.Track
	Index    int
	Position time.Duration
}

// Filter removes explicit tracks when hideExplicit is set. The index follows
// the active track; if the active track itself is removed it moves to the
// track that took its place, clamped to the list. The position is only kept
// when the active track survives.
func (s Status) Filter(hideExplicit bool) Status {
	if !hideExplicit {
		return s
	}

	out := Status{Title: s.Title}
	activeKept := false
	index := 0
	for i, t := range s.Tracks {
		if t.Explicit {
			continue
		}
		if i < s.Index {
			index++
		}
		if i == s.Index {
			activeKept = true
		}
		out.Tracks = append(out.Tracks, t)
	}

	if len(out.Tracks) == 0 {
		out.Tracks = nil
		return out
	}
	out.Index = min(index, len(out.Tracks)-1)
	if activeKept {
		out.Position = s.Position
	}
	return out
}

// FilterTracks removes explicit tracks when hideExplicit is set.
func FilterTracks(tracks []playlist.Track, hideExplicit bool) []playlist.Track {
	if !hideExplicit {
		return tracks
	}
	return lo.Filter(tracks, func(t playlist.Track, _ int) bool { return !t.Explicit })
}

// Queue is a source of tracks for the player. The set of implementations is
// closed: Empty, *List and *Radio.
type Queue interface {
	// Preload is a track that may start playing before InitialStatus
	// returns, or nil.
	Preload() *playlist.Track
	InitialStatus(ctx context.Context, hideExplicit bool) (Status, error)
	HasMore() bool
	// FetchMore returns the next page, or nil when there is none or the
	// fetch failed. A failed fetch leaves HasMore unchanged.
	FetchMore(ctx context.Context, hideExplicit bool) []playlist.Track

	sealed()
}

// Empty is the queue of an idle player.
type Empty struct{}

func (Empty) Preload() *playlist.Track { return nil }

func (Empty) InitialStatus(context.Context, bool) (Status, error) { return Status{}, nil }

func (Empty) HasMore() bool { return false }

func (Empty) FetchMore(context.Context, bool) []playlist.Track { return nil }

func (Empty) sealed() {}

// IsEmpty reports whether q is the Empty queue.
func IsEmpty(q Queue) bool {
	_, ok := q.(Empty)
	return q == nil || ok
}

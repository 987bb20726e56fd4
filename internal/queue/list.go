package queue

import (
	"context"
	"slices"
	"time"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// List is a fixed track list.
type List struct {
	status  Status
	preload *playlist.Track
}

// NewList creates a list queue starting at index and position.
func NewList(title string, tracks []playlist.Track, index int, position time.Duration) *List {
	if index < 0 || index >= len(tracks) {
		index = 0
	}
	return &List{status: Status{
		Title:    title,
		Tracks:   slices.Clone(tracks),
		Index:    index,
		Position: position,
	}}
}

// NewSingle creates a queue of one track that starts playing immediately.
func NewSingle(track playlist.Track) *List {
	l := NewList("", []playlist.Track{track}, 0, 0)
	l.preload = &track
	return l
}

func (l *List) Preload() *playlist.Track { return l.preload }

func (l *List) InitialStatus(_ context.Context, hideExplicit bool) (Status, error) {
	s := l.status
	s.Tracks = slices.Clone(s.Tracks)
	return s.Filter(hideExplicit), nil
}

func (l *List) HasMore() bool { return false }

func (l *List) FetchMore(context.Context, bool) []playlist.Track { return nil }

func (l *List) sealed() {}

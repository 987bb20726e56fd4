package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/playlist"
)

func tracks(letters string) []playlist.Track {
	// one track per letter, upper case letters are explicit
	out := make([]playlist.Track, 0, len(letters))
	for _, c := range letters {
		id := string(c)
		out = append(out, playlist.Track{ID: id, Explicit: c >= 'A' && c <= 'Z'})
	}
	return out
}

func ids(ts []playlist.Track) string {
	s := ""
	for _, t := range ts {
		s += t.ID
	}
	return s
}

func TestStatus_Filter(t *testing.T) {
	tests := []struct {
		name      string
		letters   string
		index     int
		want      string
		wantIndex int
		wantPos   time.Duration
	}{
		{"nothing explicit", "abcd", 2, "abcd", 2, time.Minute},
		{"explicit before active", "aBcd", 2, "acd", 1, time.Minute},
		{"explicit after active", "abCd", 1, "abd", 1, time.Minute},
		{"active removed moves to next", "abCd", 2, "abd", 2, 0},
		{"active removed at end clamps", "abCD", 3, "ab", 1, 0},
		{"all removed", "ABC", 1, "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Status{Title: "T", Tracks: tracks(tt.letters), Index: tt.index, Position: time.Minute}
			got := s.Filter(true)

			assert.Equal(t, tt.want, ids(got.Tracks))
			assert.Equal(t, tt.wantIndex, got.Index)
			assert.Equal(t, tt.wantPos, got.Position)
			assert.Equal(t, "T", got.Title)

			// filtering twice changes nothing
			again := got.Filter(true)
			assert.Equal(t, got, again)
		})
	}
}

func TestStatus_FilterDisabled(t *testing.T) {
	s := Status{Tracks: tracks("aBc"), Index: 1, Position: time.Second}
	assert.Equal(t, s, s.Filter(false))
}

func TestFilterTracks(t *testing.T) {
	assert.Equal(t, "ac", ids(FilterTracks(tracks("aBc"), true)))
	assert.Equal(t, "aBc", ids(FilterTracks(tracks("aBc"), false)))
}

func TestEmpty(t *testing.T) {
	var q Queue = Empty{}
	assert.True(t, IsEmpty(q))
	assert.False(t, q.HasMore())
	assert.Nil(t, q.Preload())
	assert.Nil(t, q.FetchMore(context.Background(), false))
}

func TestList(t *testing.T) {
	q := NewList("Mix", tracks("abc"), 1, 5*time.Second)
	assert.False(t, IsEmpty(q))
	assert.Nil(t, q.Preload())
	assert.False(t, q.HasMore())

	s, err := q.InitialStatus(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "Mix", s.Title)
	assert.Equal(t, "abc", ids(s.Tracks))
	assert.Equal(t, 1, s.Index)
	assert.Equal(t, 5*time.Second, s.Position)
}

func TestList_InvalidIndex(t *testing.T) {
	s, _ := NewList("", tracks("ab"), 7, 0).InitialStatus(context.Background(), false)
	assert.Equal(t, 0, s.Index)
}

func TestNewSingle(t *testing.T) {
	track := playlist.Track{ID: "x"}
	q := NewSingle(track)
	require.NotNil(t, q.Preload())
	assert.Equal(t, "x", q.Preload().ID)
}

func TestRadio_Pagination(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewFake()
	cat.SetPage("", &catalog.WatchPage{Title: "Radio", Tracks: tracks("aBc"), Index: 0, Continuation: "p2"})
	cat.SetPage("p2", &catalog.WatchPage{Tracks: tracks("dE"), Continuation: "p3"})
	cat.SetPage("p3", &catalog.WatchPage{Tracks: tracks("f")})

	q := NewRadio(cat, catalog.Endpoint{VideoID: "a"}, nil, nil)
	assert.False(t, q.HasMore(), "no continuation before the first page")

	s, err := q.InitialStatus(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "Radio", s.Title)
	assert.Equal(t, "ac", ids(s.Tracks))
	assert.True(t, q.HasMore())

	assert.Equal(t, "d", ids(q.FetchMore(ctx, true)))
	assert.True(t, q.HasMore())
	assert.Equal(t, "f", ids(q.FetchMore(ctx, true)))
	assert.False(t, q.HasMore())
	assert.Nil(t, q.FetchMore(ctx, true))
	assert.Equal(t, 3, cat.NextCalls())
}

func TestRadio_FetchMoreFailsSoftly(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewFake()
	cat.SetPage("", &catalog.WatchPage{Tracks: tracks("a"), Continuation: "p2"})
	cat.SetPage("p2", &catalog.WatchPage{Tracks: tracks("b")})

	q := NewRadio(cat, catalog.Endpoint{VideoID: "a"}, nil, nil)
	_, err := q.InitialStatus(ctx, false)
	require.NoError(t, err)

	cat.SetNextError(errors.New("offline"))
	assert.Nil(t, q.FetchMore(ctx, false))
	assert.True(t, q.HasMore(), "continuation kept for the next attempt")

	cat.SetNextError(nil)
	assert.Equal(t, "b", ids(q.FetchMore(ctx, false)))
}

func TestRadio_InitialStatusError(t *testing.T) {
	cat := catalog.NewFake()
	cat.SetNextError(errors.New("offline"))

	_, err := NewRadio(cat, catalog.Endpoint{VideoID: "a"}, nil, nil).InitialStatus(context.Background(), false)
	assert.Error(t, err)
}

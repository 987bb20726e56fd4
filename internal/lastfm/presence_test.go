package lastfm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/state"
)

type fakeAPI struct {
	session    string
	nowPlaying []ScrobbleTrack
	scrobbled  []ScrobbleTrack
	failWith   error
}

func (f *fakeAPI) SetSessionKey(key string) { f.session = key }

func (f *fakeAPI) UpdateNowPlaying(t ScrobbleTrack) error {
	f.nowPlaying = append(f.nowPlaying, t)
	return f.failWith
}

func (f *fakeAPI) Scrobble(t ScrobbleTrack) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.scrobbled = append(f.scrobbled, t)
	return nil
}

func openStore(t *testing.T) *state.Manager {
	t.Helper()
	m, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func song(id string, duration int) playlist.Track {
	return playlist.Track{
		ID:       id,
		Title:    "Title " + id,
		Artists:  []string{"Main", "Feat"},
		Duration: duration,
		Album:    &playlist.Album{ID: "al", Title: "Album"},
	}
}

func TestFromTrack(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	st := FromTrack(song("a", 200), at)

	assert.Equal(t, "a", st.SongID)
	assert.Equal(t, "Main", st.Artist)
	assert.Equal(t, "Title a", st.Track)
	assert.Equal(t, "Album", st.Album)
	assert.Equal(t, 200*time.Second, st.Duration)
	assert.Equal(t, at, st.Timestamp)
	assert.Equal(t, 200, st.params()["duration"])
}

func TestPresence_DisabledPublishesNothing(t *testing.T) {
	api := &fakeAPI{}
	p := NewPresence(api, nil, nil)

	p.Configure("", true)
	require.NoError(t, p.NowPlaying(context.Background(), song("a", 200)))
	require.NoError(t, p.Scrobble(context.Background(), song("a", 200), time.Now()))

	assert.False(t, p.Enabled())
	assert.Empty(t, api.nowPlaying)
	assert.Empty(t, api.scrobbled)
}

func TestPresence_NowPlayingAndScrobble(t *testing.T) {
	api := &fakeAPI{}
	p := NewPresence(api, nil, nil)
	p.Configure("session", true)

	require.NoError(t, p.NowPlaying(context.Background(), song("a", 200)))
	require.NoError(t, p.Scrobble(context.Background(), song("a", 200), time.Now()))

	assert.Equal(t, "session", api.session)
	assert.Len(t, api.nowPlaying, 1)
	assert.Len(t, api.scrobbled, 1)
}

func TestPresence_ScrobbleRules(t *testing.T) {
	short := song("short", 20)
	live := song("live", playlist.UnknownDuration)
	live.Live = true
	noArtist := song("anon", 200)
	noArtist.Artists = nil
	unknown := song("unknown", playlist.UnknownDuration)

	tests := []struct {
		name  string
		track playlist.Track
		want  bool
	}{
		{"regular", song("a", 200), true},
		{"too short", short, false},
		{"live", live, false},
		{"no artist", noArtist, false},
		{"unknown duration", unknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scrobblable(tt.track))
		})
	}
}

func TestPresence_FailedScrobbleIsQueuedAndRetried(t *testing.T) {
	store := openStore(t)
	api := &fakeAPI{failWith: errors.New("offline")}
	p := NewPresence(api, store, nil)
	p.Configure("session", true)

	started := time.Unix(1_700_000_000, 0)
	require.NoError(t, p.Scrobble(context.Background(), song("a", 200), started))

	pending, err := store.GetPendingScrobbles()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].SongID)
	assert.Equal(t, started.Unix(), pending[0].Timestamp.Unix())

	succeeded, failed, err := p.RetryPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, succeeded)
	assert.Equal(t, 1, failed)

	pending, err = store.GetPendingScrobbles()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "offline", pending[0].LastError)

	api.failWith = nil
	succeeded, failed, err = p.RetryPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, failed)
	require.Len(t, api.scrobbled, 1)
	assert.Equal(t, "Main", api.scrobbled[0].Artist)

	pending, err = store.GetPendingScrobbles()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPresence_FailedScrobbleWithoutStore(t *testing.T) {
	api := &fakeAPI{failWith: errors.New("offline")}
	p := NewPresence(api, nil, nil)
	p.Configure("session", true)

	err := p.Scrobble(context.Background(), song("a", 200), time.Now())
	assert.ErrorContains(t, err, "offline")
}

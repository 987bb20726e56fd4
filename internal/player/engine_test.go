package player

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/streamwave/internal/cache"
	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/state"
	"github.com/llehouerou/streamwave/internal/stream"
	"github.com/llehouerou/streamwave/internal/urlcache"
)

func newTestEngine(t *testing.T, urls urlcache.Cache, sink *bytes.Buffer, mem *cache.Memory) *Engine {
	t.Helper()
	resolver := stream.NewResolver(stream.Options{
		Catalog:  catalog.NewFake(),
		Store:    state.NewMock(),
		URLCache: urls,
	})
	e := NewEngine(EngineOptions{Resolver: resolver, Cache: mem, Sink: sink})
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_StreamsUnknownLengthItemToEnd(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "a.webm", time.Time{}, strings.NewReader(payload))
	}))
	defer srv.Close()

	urls := urlcache.NewMemory(nil)
	require.NoError(t, urls.Set(context.Background(), "a", urlcache.Entry{
		URL:    srv.URL,
		Expiry: time.Now().Add(time.Hour),
	}))

	var sink bytes.Buffer
	mem := cache.NewMemory(1 << 20)
	e := newTestEngine(t, urls, &sink, mem)

	e.SetItems([]playlist.Track{{ID: "a", Duration: playlist.UnknownDuration}}, 0, 0)
	e.SetPlayWhenReady(true)
	e.Prepare()

	collect(t, e.Events(), isState(Ended))
	assert.Equal(t, payload, sink.String())
	assert.True(t, mem.Has(context.Background(), "a", 0, int64(len(payload))))
}

func TestEngine_ResolveFailureGoesIdle(t *testing.T) {
	e := newTestEngine(t, urlcache.NewMemory(nil), &bytes.Buffer{}, nil)

	e.SetItems([]playlist.Track{{ID: "missing", Duration: 10}}, 0, 0)
	e.Prepare()

	evs := collect(t, e.Events(), func(ev Event) bool { return ev.Kind == EventError })
	var resErr *stream.ResolutionError
	require.ErrorAs(t, evs[len(evs)-1].Err, &resErr)
	assert.Equal(t, stream.KindRemote, resErr.Kind)
	assert.Equal(t, Idle, e.State())
	assert.Equal(t, 1, e.Len())
}

// lockedBuffer is a sink the test can read while the engine writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// servedTrack serves payload for id through a cached url and returns a
// store holding rec when it is not nil.
func servedTrack(t *testing.T, id, payload string, rec *state.FormatRecord) (*state.Mock, urlcache.Cache) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, id+".webm", time.Time{}, strings.NewReader(payload))
	}))
	t.Cleanup(srv.Close)

	urls := urlcache.NewMemory(nil)
	require.NoError(t, urls.Set(context.Background(), id, urlcache.Entry{URL: srv.URL, Expiry: time.Now().Add(time.Hour)}))
	store := state.NewMock()
	if rec != nil {
		store.SetFormat(*rec)
	}
	return store, urls
}

func TestEngine_StartsAtPositionAndWaitsForPlayIntent(t *testing.T) {
	payload := strings.Repeat("0123456789", 100)
	store, urls := servedTrack(t, "a", payload, &state.FormatRecord{ID: "a", Itag: 251, ContentLength: int64(len(payload))})

	resolver := stream.NewResolver(stream.Options{Catalog: catalog.NewFake(), Store: store, URLCache: urls})
	sink := &lockedBuffer{}
	e := NewEngine(EngineOptions{Resolver: resolver, Formats: store, Sink: sink})
	t.Cleanup(func() { _ = e.Close() })

	e.SetItems([]playlist.Track{{ID: "a", Duration: 100}}, 0, 50*time.Second)
	e.SetPlayWhenReady(false)
	e.Prepare()

	collect(t, e.Events(), isState(Ready))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.String(), "paused engine must not feed the sink")
	assert.Equal(t, 50*time.Second, e.Position())

	e.SetPlayWhenReady(true)
	require.Eventually(t, func() bool { return sink.String() == payload[500:] }, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, e.Position(), 50*time.Second)
}

func TestEngine_UnmappablePositionStartsOver(t *testing.T) {
	payload := strings.Repeat("x", 2048)
	store, urls := servedTrack(t, "a", payload, nil)

	resolver := stream.NewResolver(stream.Options{Catalog: catalog.NewFake(), Store: store, URLCache: urls})
	sink := &lockedBuffer{}
	e := NewEngine(EngineOptions{Resolver: resolver, Formats: store, Sink: sink})
	t.Cleanup(func() { _ = e.Close() })

	e.SetItems([]playlist.Track{{ID: "a", Duration: 100}}, 0, 30*time.Second)
	e.SetPlayWhenReady(true)
	e.Prepare()

	require.Eventually(t, func() bool { return sink.String() == payload }, 2*time.Second, 10*time.Millisecond)
	assert.Less(t, e.Position(), 30*time.Second, "clock must restart with the stream")
}

func TestByteOffset(t *testing.T) {
	track := playlist.Track{ID: "a", Duration: 200}
	unknown := playlist.Track{ID: "a", Duration: playlist.UnknownDuration}

	tests := []struct {
		name   string
		rec    *state.FormatRecord
		track  playlist.Track
		pos    time.Duration
		want   int64
		wantOK bool
	}{
		{"start", nil, track, 0, 0, true},
		{"no record", nil, track, time.Second, 0, false},
		{"content length", &state.FormatRecord{ContentLength: 2000}, track, 50 * time.Second, 500, true},
		{"past the end", &state.FormatRecord{ContentLength: 2000}, track, 200 * time.Second, 0, false},
		{"bitrate without duration", &state.FormatRecord{Bitrate: 128000}, unknown, 10 * time.Second, 160000, true},
		{"nothing known", &state.FormatRecord{}, unknown, 10 * time.Second, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := byteOffset(tt.rec, tt.track, tt.pos)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

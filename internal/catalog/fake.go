package catalog

import (
	"context"
	"sync"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// Fake is an in-memory Catalog for tests. It counts calls per method.
type Fake struct {
	mu sync.Mutex

	players   map[string]*PlayerResponse
	pages     map[string]*WatchPage // keyed by continuation ("" for first page)
	related   map[string][]playlist.Track
	playerErr error
	nextErr   error
	nextGates map[string]chan struct{}

	playerCalls  map[string]int
	nextCalls    int
	relatedCalls map[string]int
}

// Verify Fake implements Catalog at compile time.
var _ Catalog = (*Fake)(nil)

// NewFake creates an empty fake catalog.
func NewFake() *Fake {
	return &Fake{
		players:      make(map[string]*PlayerResponse),
		pages:        make(map[string]*WatchPage),
		related:      make(map[string][]playlist.Track),
		nextGates:    make(map[string]chan struct{}),
		playerCalls:  make(map[string]int),
		relatedCalls: make(map[string]int),
	}
}

func (f *Fake) Player(_ context.Context, videoID string) (*PlayerResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playerCalls[videoID]++
	if f.playerErr != nil {
		return nil, f.playerErr
	}
	resp, ok := f.players[videoID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *resp
	cp.Formats = append([]Format(nil), resp.Formats...)
	return &cp, nil
}

func (f *Fake) Next(ctx context.Context, _ Endpoint, continuation string) (*WatchPage, error) {
	f.mu.Lock()
	f.nextCalls++
	gate := f.nextGates[continuation]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextErr != nil {
		return nil, f.nextErr
	}
	page, ok := f.pages[continuation]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *page
	cp.Tracks = append([]playlist.Track(nil), page.Tracks...)
	return &cp, nil
}

func (f *Fake) Related(_ context.Context, videoID string) ([]playlist.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relatedCalls[videoID]++
	return append([]playlist.Track(nil), f.related[videoID]...), nil
}

// Test helpers

func (f *Fake) SetPlayer(videoID string, resp *PlayerResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.players[videoID] = resp
}

func (f *Fake) SetPage(continuation string, page *WatchPage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[continuation] = page
}

func (f *Fake) SetRelated(videoID string, tracks []playlist.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.related[videoID] = tracks
}

func (f *Fake) SetPlayerError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playerErr = err
}

func (f *Fake) SetNextError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextErr = err
}

// BlockNext holds Next calls for continuation until release is called or
// their context ends.
func (f *Fake) BlockNext(continuation string) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.nextGates[continuation] = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.nextGates, continuation)
			f.mu.Unlock()
			close(gate)
		})
	}
}

func (f *Fake) PlayerCalls(videoID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playerCalls[videoID]
}

func (f *Fake) NextCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextCalls
}

func (f *Fake) RelatedCalls(videoID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.relatedCalls[videoID]
}

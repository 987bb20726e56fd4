package queue

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/playlist"
)

// Radio is a queue continued by the catalog's watch sequence for a seed.
type Radio struct {
	catalog  catalog.Catalog
	endpoint catalog.Endpoint
	preload  *playlist.Track
	logger   *log.Logger

	mu           sync.Mutex
	continuation string
}

// NewRadio creates a radio queue for endpoint. preload may be nil.
func NewRadio(cat catalog.Catalog, endpoint catalog.Endpoint, preload *playlist.Track, logger *log.Logger) *Radio {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Radio{
		catalog:  cat,
		endpoint: endpoint,
		preload:  preload,
		logger:   logger.WithPrefix("radio"),
	}
}

// Endpoint returns the seed of the radio.
func (r *Radio) Endpoint() catalog.Endpoint { return r.endpoint }

func (r *Radio) Preload() *playlist.Track { return r.preload }

func (r *Radio) InitialStatus(ctx context.Context, hideExplicit bool) (Status, error) {
	page, err := r.catalog.Next(ctx, r.endpoint, "")
	if err != nil {
		return Status{}, fmt.Errorf("start radio: %w", err)
	}

	r.mu.Lock()
	r.continuation = page.Continuation
	r.mu.Unlock()

	s := Status{Title: page.Title, Tracks: page.Tracks, Index: page.Index}
	if s.Index < 0 || s.Index >= len(s.Tracks) {
		s.Index = 0
	}
	return s.Filter(hideExplicit), nil
}

func (r *Radio) HasMore() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.continuation != ""
}

func (r *Radio) FetchMore(ctx context.Context, hideExplicit bool) []playlist.Track {
	r.mu.Lock()
	continuation := r.continuation
	r.mu.Unlock()
	if continuation == "" {
		return nil
	}

	page, err := r.catalog.Next(ctx, r.endpoint, continuation)
	if err != nil {
		r.logger.Warn("fetch more failed", "seed", r.endpoint.VideoID, "err", err)
		return nil
	}

	r.mu.Lock()
	// a concurrent InitialStatus may have restarted the sequence
	if r.continuation == continuation {
		r.continuation = page.Continuation
	}
	r.mu.Unlock()

	return FilterTracks(page.Tracks, hideExplicit)
}

func (r *Radio) sealed() {}

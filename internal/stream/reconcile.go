package stream

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/state"
)

// Lookup finds the descriptor of a queued track by id.
type Lookup func(id string) (playlist.Track, bool)

// Reconciler backfills stored song metadata in the background after a
// resolution: it fills in unknown durations and prefetches related songs.
type Reconciler struct {
	catalog catalog.Catalog
	store   state.Interface
	logger  *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	lookup   Lookup
	inflight map[string]struct{}
}

// NewReconciler creates a reconciler. Close cancels outstanding work.
func NewReconciler(cat catalog.Catalog, store state.Interface, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		catalog:  cat,
		store:    store,
		logger:   logger.WithPrefix("reconcile"),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
	}
}

// SetLookup installs the queue lookup used to find track descriptors.
func (r *Reconciler) SetLookup(fn Lookup) {
	r.mu.Lock()
	r.lookup = fn
	r.mu.Unlock()
}

// Schedule reconciles id in the background. Calls for an id that is already
// being reconciled are dropped. resp may be nil.
func (r *Reconciler) Schedule(id string, resp *catalog.PlayerResponse) {
	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	if _, busy := r.inflight[id]; busy {
		r.mu.Unlock()
		return
	}
	r.inflight[id] = struct{}{}
	lookup := r.lookup
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.inflight, id)
			r.mu.Unlock()
		}()
		if err := r.reconcile(r.ctx, id, resp, lookup); err != nil {
			r.logger.Debug("reconcile failed", "id", id, "err", err)
		}
	}()
}

// Wait blocks until scheduled work has finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// Close cancels outstanding work and waits for it.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Reconciler) reconcile(ctx context.Context, id string, resp *catalog.PlayerResponse, lookup Lookup) error {
	if lookup == nil {
		return nil
	}
	track, ok := lookup(id)
	if !ok {
		return nil
	}

	song, err := r.store.GetSong(id)
	if err != nil {
		return err
	}

	if song == nil || !song.HasDuration() {
		duration := track.Duration
		if !track.HasDuration() {
			duration = r.remoteDuration(ctx, id, resp)
		}
		if song == nil {
			if err := r.store.InsertSong(track.WithDuration(duration)); err != nil {
				return err
			}
		} else if _, err := r.store.BackfillDuration(id, duration); err != nil {
			return err
		}
	}

	has, err := r.store.HasRelated(id)
	if err != nil || has {
		return err
	}
	related, err := r.catalog.Related(ctx, id)
	if err != nil || len(related) == 0 {
		return err
	}
	return r.store.SaveRelated(id, related)
}

func (r *Reconciler) remoteDuration(ctx context.Context, id string, resp *catalog.PlayerResponse) int {
	if resp == nil {
		var err error
		if resp, err = r.catalog.Player(ctx, id); err != nil {
			return playlist.UnknownDuration
		}
	}
	if resp.LengthSeconds > 0 {
		return resp.LengthSeconds
	}
	return playlist.UnknownDuration
}

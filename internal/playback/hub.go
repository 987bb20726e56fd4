// Package playback coordinates the player, the active queue and the side
// effects of playback.
//
// All hub state is owned by one goroutine, Run. Commands are closures
// executed on it; player events are handled on it; background work started
// on the hub Scope posts its results back as closures, so nothing in here
// needs a lock except the published snapshot.
package playback

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/config"
	"github.com/llehouerou/streamwave/internal/debounce"
	"github.com/llehouerou/streamwave/internal/persist"
	"github.com/llehouerou/streamwave/internal/player"
	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/queue"
	"github.com/llehouerou/streamwave/internal/state"
	"github.com/llehouerou/streamwave/internal/stream"
)

// ErrClosed is returned by commands sent after the hub stopped.
var ErrClosed = errors.New("playback hub closed")

// Resolver is the part of the stream resolver the hub drives.
type Resolver interface {
	SetQuality(q stream.Quality)
	Network() stream.Network
}

// LookupSetter receives the queue lookup used for background reconciliation.
type LookupSetter interface {
	SetLookup(fn stream.Lookup)
}

// Options configures a Hub. Player, Store and Catalog are required.
type Options struct {
	Player     player.Interface
	Store      state.Interface
	Catalog    catalog.Catalog
	Resolver   Resolver
	Reconciler LookupSetter
	Persist    *persist.Store
	Notifier   Notifier
	Presence   Presence
	Effects    EffectSession
	Settings   config.Playback
	Logger     *log.Logger

	SaveInterval time.Duration
	// Debounce overrides the side-effect debounce delay (tests).
	Debounce time.Duration
	Now      func() time.Time
}

// Hub is the playback state hub.
type Hub struct {
	player     player.Interface
	store      state.Interface
	catalog    catalog.Catalog
	resolver   Resolver
	reconciler LookupSetter
	persist    *persist.Store
	notifier   Notifier
	presence   Presence
	effects    EffectSession
	logger     *log.Logger
	now        func() time.Time

	saveInterval time.Duration
	debounce     time.Duration

	cmds    chan func()
	quit    chan struct{}
	done    chan struct{}
	started atomic.Bool
	once    sync.Once

	persistQueue atomic.Bool

	// Owned by the Run goroutine.
	settings      config.Playback
	scope         *Scope
	parent        context.Context
	queue         queue.Queue
	title         string
	song          *state.Song
	format        *state.FormatRecord
	volume        float64
	factor        float64
	translating   bool
	sessionOpen   bool
	loadingMore   bool
	err           error
	sleepTimer    *time.Timer
	sleepAt       time.Time
	volumeSaver   *debounce.Debouncer[float64]
	nowPlaying    *debounce.Debouncer[playlist.Track]
	presenceCreds *debounce.Distinct[debounce.Pair[string, bool]]

	subsMu sync.RWMutex
	subs   []*Subscription

	snapMu sync.RWMutex
	snap   Snapshot
}

// New creates a hub. Call Run to start it.
func New(opts Options) *Hub {
	h := &Hub{
		player:       opts.Player,
		store:        opts.Store,
		catalog:      opts.Catalog,
		resolver:     opts.Resolver,
		reconciler:   opts.Reconciler,
		persist:      opts.Persist,
		notifier:     opts.Notifier,
		presence:     opts.Presence,
		effects:      opts.Effects,
		logger:       opts.Logger,
		now:          opts.Now,
		saveInterval: opts.SaveInterval,
		debounce:     opts.Debounce,
		settings:     opts.Settings,
		cmds:         make(chan func()),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		queue:        queue.Empty{},
		volume:       1,
		factor:       1,
	}
	if h.logger == nil {
		h.logger = log.New(io.Discard)
	}
	h.logger = h.logger.WithPrefix("playback")
	if h.notifier == nil {
		h.notifier = nopNotifier{}
	}
	if h.presence == nil {
		h.presence = nopPresence{}
	}
	if h.effects == nil {
		h.effects = nopEffects{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.debounce <= 0 {
		h.debounce = sideEffectDelay
	}
	if h.saveInterval <= 0 {
		h.saveInterval = persist.DefaultInterval
	}
	if h.reconciler != nil {
		h.reconciler.SetLookup(h.lookup)
	}
	h.persistQueue.Store(h.settings.PersistentQueue)
	h.initSideEffects()
	return h
}

// lookup finds a queued track by id. It runs on reconciler goroutines and
// only touches the player, which is safe for concurrent reads.
func (h *Hub) lookup(id string) (playlist.Track, bool) {
	for _, t := range h.player.Items() {
		if t.ID == id {
			return t, true
		}
	}
	return playlist.Track{}, false
}

// Run executes the hub until ctx is cancelled or Close is called.
func (h *Hub) Run(ctx context.Context) error {
	if !h.started.CompareAndSwap(false, true) {
		return errors.New("playback hub already running")
	}
	defer close(h.done)

	h.parent = ctx
	h.restoreSettings()
	h.ensureScope()
	h.restoreQueue()
	h.publish()

	h.logger.Info("playback hub started")
	events := h.player.Events()
	for {
		select {
		case fn := <-h.cmds:
			fn()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			h.handle(ev)
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case <-h.quit:
			h.shutdown()
			return nil
		}
		h.publish()
	}
}

// Close stops the hub: the queue is saved a last time, background work is
// cancelled and subscriptions are closed. The player is left to its owner.
func (h *Hub) Close() error {
	h.once.Do(func() { close(h.quit) })
	if h.started.Load() {
		<-h.done
	}
	return nil
}

// exec runs fn on the hub goroutine and waits for it.
func (h *Hub) exec(fn func()) error {
	finished := make(chan struct{})
	select {
	case h.cmds <- func() { fn(); close(finished) }:
	case <-h.done:
		return ErrClosed
	case <-h.quit:
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-h.done:
		return ErrClosed
	}
}

// post queues fn on the hub goroutine without waiting. Results arriving
// after shutdown are dropped.
func (h *Hub) post(fn func()) {
	select {
	case h.cmds <- fn:
	case <-h.done:
	case <-h.quit:
	}
}

// ensureScope creates a fresh scope when none is alive.
func (h *Hub) ensureScope() {
	if h.scope != nil && !h.scope.Closed() {
		return
	}
	h.scope = newScope(h.parent)
	if h.persist != nil {
		saver := persist.NewSaver(h.persist, h.capture, h.persistEnabled, h.saveInterval, h.logger)
		h.scope.Go(saver.Run)
	}
}

func (h *Hub) initSideEffects() {
	h.volumeSaver = debounce.New(h.debounce, func(v float64) {
		if err := h.store.SaveVolume(v); err != nil {
			h.logger.Warn("save volume failed", "err", err)
		}
	})
	h.nowPlaying = debounce.New(h.debounce, func(t playlist.Track) {
		h.notifier.NowPlaying(t)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.presence.NowPlaying(ctx, t); err != nil {
			h.logger.Debug("presence update failed", "id", t.ID, "err", err)
		}
	})
	h.presenceCreds = debounce.NewDistinct(presenceCredsDelay, func(p debounce.Pair[string, bool]) {
		h.presence.Configure(p.First, p.Second)
	})
}

func (h *Hub) restoreSettings() {
	h.volume = h.settings.Volume
	repeat, _ := ParseRepeatMode(h.settings.RepeatMode)
	saved, err := h.store.GetSettings()
	switch {
	case err != nil:
		h.logger.Warn("load settings failed", "err", err)
	case saved.Saved:
		h.volume = saved.Volume
		repeat = playlist.RepeatMode(saved.RepeatMode)
	}
	h.player.SetRepeatMode(repeat)
	h.player.SetSkipSilence(h.settings.SkipSilence)
	h.applyQuality()
	h.applyVolume()
}

func (h *Hub) restoreQueue() {
	if h.persist == nil || !h.settings.PersistentQueue {
		return
	}
	snap, ok := h.persist.Load()
	if !ok || len(snap.Tracks) == 0 {
		return
	}
	h.logger.Info("restoring queue", "tracks", len(snap.Tracks), "index", snap.Index)
	h.playQueue(queue.NewList(snap.Title, snap.Tracks, snap.Index, snap.Position), false)
}

// persistEnabled is read from the saver goroutine.
func (h *Hub) persistEnabled() bool {
	return h.persistQueue.Load()
}

// capture builds the persisted snapshot on the hub goroutine.
func (h *Hub) capture(ctx context.Context) (persist.Snapshot, bool, error) {
	type result struct {
		snap persist.Snapshot
		idle bool
	}
	ch := make(chan result, 1)
	select {
	case h.cmds <- func() {
		snap, idle := h.persistSnapshot()
		ch <- result{snap, idle}
	}:
	case <-ctx.Done():
		return persist.Snapshot{}, false, ctx.Err()
	case <-h.quit:
		return persist.Snapshot{}, false, ErrClosed
	}
	select {
	case r := <-ch:
		return r.snap, r.idle, nil
	case <-ctx.Done():
		return persist.Snapshot{}, false, ctx.Err()
	}
}

func (h *Hub) persistSnapshot() (persist.Snapshot, bool) {
	return persist.Snapshot{
		Title:    h.title,
		Tracks:   h.player.Items(),
		Index:    max(h.player.CurrentIndex(), 0),
		Position: h.player.Position(),
	}, h.player.State() == player.Idle
}

func (h *Hub) shutdown() {
	// Unblock tasks posting results back.
	h.once.Do(func() { close(h.quit) })

	if h.persist != nil && h.settings.PersistentQueue {
		snap, idle := h.persistSnapshot()
		if err := h.persist.Save(snap, idle); err != nil {
			h.logger.Warn("save queue failed", "path", h.persist.Path(), "err", err)
		}
	}
	if h.sleepTimer != nil {
		h.sleepTimer.Stop()
	}
	h.volumeSaver.Flush()
	h.nowPlaying.Stop()
	h.presenceCreds.Stop()
	if h.sessionOpen {
		h.effects.Close(h.player.AudioSessionID())
		h.sessionOpen = false
	}
	if h.scope != nil {
		h.scope.Close()
		h.scope.Wait()
	}

	h.subsMu.Lock()
	for _, sub := range h.subs {
		sub.close()
	}
	h.subs = nil
	h.subsMu.Unlock()
	h.logger.Info("playback hub stopped")
}

// Subscribe creates a new event subscription. The latest snapshot is
// delivered immediately.
func (h *Hub) Subscribe() *Subscription {
	sub := newSubscription()
	sub.sendSnapshot(h.Snapshot())
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	h.subs = append(h.subs, sub)
	return sub
}

// Unsubscribe stops delivering events to sub and closes it.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for i, s := range h.subs {
		if s == sub {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			sub.close()
			return
		}
	}
}

func (h *Hub) eachSub(fn func(*Subscription)) {
	h.subsMu.RLock()
	defer h.subsMu.RUnlock()
	for _, sub := range h.subs {
		fn(sub)
	}
}

// Snapshot returns the latest published snapshot with a fresh position.
func (h *Hub) Snapshot() Snapshot {
	h.snapMu.RLock()
	snap := h.snap
	h.snapMu.RUnlock()
	if snap.State.Player != player.Idle {
		snap.Position = h.player.Position()
	}
	return snap
}

// publish rebuilds the snapshot and hands it to subscribers.
func (h *Hub) publish() {
	cur := h.player.Current()
	hasPrev, hasNext := h.player.HasPrevious(), h.player.HasNext()
	canPrev, canNext := canSkip(cur, hasPrev, hasNext)

	snap := Snapshot{
		State:           h.state(),
		Title:           h.title,
		Tracks:          h.player.Items(),
		Index:           h.player.CurrentIndex(),
		Current:         h.song,
		Format:          h.format,
		Position:        h.player.Position(),
		Shuffle:         h.player.Shuffle(),
		Repeat:          h.player.RepeatMode(),
		CanSkipPrevious: canPrev,
		CanSkipNext:     canNext,
		Volume:          h.volume,
		Normalization:   h.factor,
		Translating:     h.translating,
		SleepAt:         h.sleepAt,
		HasMore:         h.queue.HasMore(),
		Err:             h.err,
	}

	h.snapMu.Lock()
	h.snap = snap
	h.snapMu.Unlock()

	h.eachSub(func(s *Subscription) { s.sendSnapshot(snap) })
}

func (h *Hub) state() State {
	return State{Player: h.player.State(), PlayWhenReady: h.player.PlayWhenReady()}
}

package player

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// previousRestartThreshold is how far into a track SeekToPrevious restarts
// the current track instead of moving back.
const previousRestartThreshold = 3 * time.Second

// loadFunc starts fetching track for generation gen. It is called with the
// timeline lock held and must not call back into the timeline synchronously.
type loadFunc func(gen uint64, track playlist.Track, position time.Duration)

// timeline is the transport core shared by every Interface implementation:
// queue, state machine, position clock and play-time accounting. Backends
// only decide how an item gets loaded and report back through ready,
// complete and fail, tagged with the generation they were started for.
type timeline struct {
	mu sync.Mutex

	queue         *playlist.PlayingQueue
	state         State
	playWhenReady bool
	gen           uint64

	// position is posBase plus the wall time elapsed since anchor while
	// audible.
	posBase time.Duration
	anchor  time.Time
	played  time.Duration

	volume      float64
	skipSilence bool
	sessionID   string

	now    func() time.Time
	load   loadFunc
	halt   func()
	intent func() // called with the lock held after playWhenReady changed
	events *emitter
}

func newTimeline(now func() time.Time, load loadFunc, halt func()) *timeline {
	if now == nil {
		now = time.Now
	}
	if halt == nil {
		halt = func() {}
	}
	return &timeline{
		queue:     playlist.NewQueue(),
		volume:    1,
		sessionID: uuid.NewString(),
		now:       now,
		load:      load,
		halt:      halt,
		events:    newEmitter(),
	}
}

func (t *timeline) audible() bool {
	return t.state == Ready && t.playWhenReady
}

// accrue folds the running clock into posBase and played.
func (t *timeline) accrue() {
	if !t.audible() {
		return
	}
	now := t.now()
	elapsed := now.Sub(t.anchor)
	if elapsed > 0 {
		t.posBase += elapsed
		t.played += elapsed
	}
	t.anchor = now
}

func (t *timeline) resumeClock() {
	t.anchor = t.now()
}

// flushStats reports the audible time spent on the current track and
// resets the counter.
func (t *timeline) flushStats() {
	t.accrue()
	cur := t.queue.Current()
	if cur != nil && t.played > 0 {
		track := *cur
		t.events.emit(Event{Kind: EventPlayStats, Track: &track, PlayTime: t.played})
	}
	t.played = 0
}

func (t *timeline) setState(s State) {
	if t.state == s {
		return
	}
	t.accrue()
	t.state = s
	t.resumeClock()
	t.events.emit(Event{Kind: EventStateChanged, State: s, PlayWhenReady: t.playWhenReady})
}

func (t *timeline) transition(reason TransitionReason) {
	var track *playlist.Track
	if cur := t.queue.Current(); cur != nil {
		c := *cur
		track = &c
	}
	t.events.emit(Event{Kind: EventMediaTransition, Reason: reason, Track: track})
}

// reload restarts loading of the current item when the player is prepared.
func (t *timeline) reload() {
	if t.state == Idle {
		return
	}
	t.gen++
	cur := t.queue.Current()
	if cur == nil {
		t.halt()
		t.setState(Ended)
		return
	}
	t.setState(Buffering)
	t.load(t.gen, *cur, t.posBase)
}

func (t *timeline) SetItems(tracks []playlist.Track, index int, position time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.flushStats()
	wasShuffled := t.queue.Shuffle()
	t.queue.Replace(tracks, index)
	t.posBase = max(position, 0)
	t.resumeClock()

	t.events.emit(Event{Kind: EventTimelineChanged})
	if wasShuffled {
		t.events.emit(Event{Kind: EventShuffleChanged, Shuffle: false})
	}
	t.transition(TransitionPlaylistChanged)
	t.reload()
}

func (t *timeline) AddItems(index int, tracks ...playlist.Track) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index > t.queue.Len() {
		index = t.queue.Len()
	}
	hadCurrent := t.queue.Current() != nil
	if !t.queue.Insert(index, tracks...) || len(tracks) == 0 {
		return
	}
	t.events.emit(Event{Kind: EventTimelineChanged})
	if !hadCurrent {
		t.queue.JumpTo(0)
		t.posBase = 0
		t.transition(TransitionPlaylistChanged)
		if t.state == Ended {
			t.reload()
		}
	}
}

func (t *timeline) RemoveItems(from, to int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	from = max(from, 0)
	to = min(to, t.queue.Len())
	if from >= to {
		return
	}
	cur := t.queue.CurrentIndex()
	currentRemoved := cur >= from && cur < to
	if currentRemoved {
		t.flushStats()
	}
	if !t.queue.RemoveRange(from, to) {
		return
	}
	t.events.emit(Event{Kind: EventTimelineChanged})
	if currentRemoved {
		t.posBase = 0
		t.resumeClock()
		t.transition(TransitionPlaylistChanged)
		t.reload()
	}
}

func (t *timeline) Items() []playlist.Track {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.Tracks()
}

func (t *timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.Len()
}

func (t *timeline) CurrentIndex() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.CurrentIndex()
}

func (t *timeline) Current() *playlist.Track {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur := t.queue.Current()
	if cur == nil {
		return nil
	}
	c := *cur
	return &c
}

func (t *timeline) Prepare() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Idle {
		return
	}
	// Leave Idle first so reload does not skip.
	t.state = Ended
	t.reload()
	if t.state == Ended {
		t.events.emit(Event{Kind: EventStateChanged, State: Ended, PlayWhenReady: t.playWhenReady})
	}
}

func (t *timeline) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.flushStats()
	t.gen++
	t.halt()
	t.setState(Idle)
}

func (t *timeline) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *timeline) SetPlayWhenReady(play bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.playWhenReady == play {
		return
	}
	t.accrue()
	t.playWhenReady = play
	t.resumeClock()
	t.events.emit(Event{Kind: EventPlayWhenReadyChanged, PlayWhenReady: play, State: t.state})
	if t.intent != nil {
		t.intent()
	}
}

func (t *timeline) PlayWhenReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playWhenReady
}

func (t *timeline) SeekTo(index int, position time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seekLocked(index, position)
}

func (t *timeline) seekLocked(index int, position time.Duration) {
	if index < 0 || index >= t.queue.Len() {
		return
	}
	if index != t.queue.CurrentIndex() {
		t.flushStats()
		t.queue.JumpTo(index)
		t.transition(TransitionSeek)
	} else {
		t.accrue()
	}
	t.posBase = max(position, 0)
	t.resumeClock()
	t.events.emit(Event{Kind: EventPositionDiscontinuity})
	t.reload()
}

func (t *timeline) SeekToNext() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if next := t.queue.NextIndex(); next >= 0 {
		t.seekLocked(next, 0)
	}
}

func (t *timeline) SeekToPrevious() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.accrue()
	cur := t.queue.CurrentIndex()
	if prev := t.queue.PreviousIndex(); prev >= 0 && t.posBase <= previousRestartThreshold {
		t.seekLocked(prev, 0)
		return
	}
	t.seekLocked(cur, 0)
}

func (t *timeline) HasNext() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.HasNext()
}

func (t *timeline) HasPrevious() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.HasPrevious()
}

func (t *timeline) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accrue()
	return t.posBase
}

func (t *timeline) SetShuffle(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.queue.Shuffle() == enabled {
		return
	}
	t.queue.SetShuffle(enabled)
	t.events.emit(Event{Kind: EventShuffleChanged, Shuffle: enabled})
}

func (t *timeline) SetShuffleOrder(order []int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.queue.SetOrder(order) {
		return false
	}
	t.events.emit(Event{Kind: EventTimelineChanged})
	return true
}

// ShuffleOrder returns the playback order currently in effect.
func (t *timeline) ShuffleOrder() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.Order()
}

func (t *timeline) Shuffle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.Shuffle()
}

func (t *timeline) SetRepeatMode(mode playlist.RepeatMode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.queue.RepeatMode() == mode {
		return
	}
	t.queue.SetRepeatMode(mode)
	t.events.emit(Event{Kind: EventRepeatChanged, Repeat: mode})
}

func (t *timeline) RepeatMode() playlist.RepeatMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.RepeatMode()
}

// SetVolume sets the volume level, clamped to [0, 1].
func (t *timeline) SetVolume(level float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = min(max(level, 0), 1)
}

func (t *timeline) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

func (t *timeline) SetSkipSilence(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skipSilence = enabled
}

// SkipSilence reports whether silence skipping is requested.
func (t *timeline) SkipSilence() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skipSilence
}

func (t *timeline) AudioSessionID() string {
	return t.sessionID
}

func (t *timeline) Events() <-chan Event {
	return t.events.out
}

// ready marks the item of generation gen as playable.
func (t *timeline) ready(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || t.state != Buffering {
		return
	}
	t.setState(Ready)
}

// complete advances past the item of generation gen.
func (t *timeline) complete(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || !t.state.IsActive() {
		return
	}

	t.flushStats()
	t.posBase = 0
	t.resumeClock()

	if t.queue.RepeatMode() == playlist.RepeatOne {
		t.transition(TransitionRepeat)
		t.reload()
		return
	}
	if t.queue.Next() == nil {
		t.gen++
		t.halt()
		t.setState(Ended)
		return
	}
	t.transition(TransitionAuto)
	t.reload()
}

// fail drops the player to Idle and then reports err for generation gen.
// Items are kept so the caller can skip ahead.
func (t *timeline) fail(gen uint64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || t.state == Idle {
		return
	}
	t.flushStats()
	t.gen++
	t.halt()
	t.setState(Idle)
	t.events.emit(Event{Kind: EventError, Err: err})
}

// rebase moves the clock of generation gen to position, used when a
// backend cannot start its item where it was asked to.
func (t *timeline) rebase(gen uint64, position time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	t.accrue()
	t.posBase = max(position, 0)
	t.resumeClock()
	t.events.emit(Event{Kind: EventPositionDiscontinuity})
}

// generation returns the current load generation.
func (t *timeline) generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

func (t *timeline) close() {
	t.mu.Lock()
	t.gen++
	t.mu.Unlock()
	t.events.close()
}

package playback

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/llehouerou/streamwave/internal/catalog"
	"github.com/llehouerou/streamwave/internal/config"
	"github.com/llehouerou/streamwave/internal/debounce"
	"github.com/llehouerou/streamwave/internal/errmsg"
	"github.com/llehouerou/streamwave/internal/player"
	"github.com/llehouerou/streamwave/internal/playlist"
	"github.com/llehouerou/streamwave/internal/queue"
	"github.com/llehouerou/streamwave/internal/state"
	"github.com/llehouerou/streamwave/internal/stream"
)

// PlayQueue replaces the playback queue with q.
func (h *Hub) PlayQueue(q queue.Queue, playWhenReady bool) error {
	return h.exec(func() { h.playQueue(q, playWhenReady) })
}

// PlayNext inserts tracks right after the current one.
func (h *Hub) PlayNext(tracks ...playlist.Track) error {
	return h.exec(func() { h.enqueue(tracks, true) })
}

// AddToQueue appends tracks to the queue.
func (h *Hub) AddToQueue(tracks ...playlist.Track) error {
	return h.exec(func() { h.enqueue(tracks, false) })
}

// ToggleLike flips the liked flag of the current song.
func (h *Hub) ToggleLike() error {
	return h.exec(func() { h.toggleSongFlag(errmsg.OpLikeToggle, h.store.ToggleLike) })
}

// ToggleLibrary flips the in-library flag of the current song.
func (h *Hub) ToggleLibrary() error {
	return h.exec(func() { h.toggleSongFlag(errmsg.OpLibraryToggle, h.store.ToggleLibrary) })
}

// SkipNext moves to the next track and plays it.
func (h *Hub) SkipNext() error {
	return h.exec(func() {
		h.player.SeekToNext()
		h.player.Prepare()
		h.player.SetPlayWhenReady(true)
	})
}

// SkipPrevious restarts the current track, or moves to the previous one
// near its start, and plays it.
func (h *Hub) SkipPrevious() error {
	return h.exec(func() {
		h.player.SeekToPrevious()
		h.player.Prepare()
		h.player.SetPlayWhenReady(true)
	})
}

// TogglePlay flips the play intent, restarting an ended queue and
// preparing an idle one.
func (h *Hub) TogglePlay() error {
	return h.exec(func() {
		switch h.player.State() {
		case player.Ended:
			h.player.SeekTo(0, 0)
			h.player.SetPlayWhenReady(true)
			return
		case player.Idle:
			h.player.Prepare()
		case player.Buffering, player.Ready:
		}
		h.player.SetPlayWhenReady(!h.player.PlayWhenReady())
	})
}

// Seek moves within the current track.
func (h *Hub) Seek(position time.Duration) error {
	return h.exec(func() {
		h.player.SeekTo(h.player.CurrentIndex(), position)
	})
}

// ToggleShuffle turns shuffle on or off and returns the new value.
func (h *Hub) ToggleShuffle() (bool, error) {
	var enabled bool
	err := h.exec(func() {
		enabled = !h.player.Shuffle()
		h.setShuffle(enabled)
	})
	return enabled, err
}

// SetShuffle turns shuffle on or off.
func (h *Hub) SetShuffle(enabled bool) error {
	return h.exec(func() { h.setShuffle(enabled) })
}

// SetRepeatMode sets the repeat mode.
func (h *Hub) SetRepeatMode(m playlist.RepeatMode) error {
	return h.exec(func() { h.player.SetRepeatMode(m) })
}

// CycleRepeatMode moves to the next repeat mode and returns it.
func (h *Hub) CycleRepeatMode() (playlist.RepeatMode, error) {
	var m playlist.RepeatMode
	err := h.exec(func() {
		m = NextRepeatMode(h.player.RepeatMode())
		h.player.SetRepeatMode(m)
	})
	return m, err
}

// ToggleTranslation flips whether lyrics are shown translated.
func (h *Hub) ToggleTranslation() error {
	return h.exec(func() { h.translating = !h.translating })
}

// StartRadioSeamlessly turns the queue into a radio seeded by the current
// track without interrupting it.
func (h *Hub) StartRadioSeamlessly() error {
	return h.exec(h.startRadioSeamlessly)
}

// SetVolume sets the user volume (0.0 to 1.0).
func (h *Hub) SetVolume(level float64) error {
	return h.exec(func() {
		h.volume = min(max(level, 0), 1)
		h.applyVolume()
		h.volumeSaver.Push(h.volume)
	})
}

// ApplySettings installs new playback settings.
func (h *Hub) ApplySettings(cfg config.Playback) error {
	return h.exec(func() {
		prev := h.settings
		h.settings = cfg
		h.persistQueue.Store(cfg.PersistentQueue)
		if prev.AudioQuality != cfg.AudioQuality {
			h.applyQuality()
		}
		if prev.SkipSilence != cfg.SkipSilence {
			h.player.SetSkipSilence(cfg.SkipSilence)
		}
		if prev.NormalizeAudio != cfg.NormalizeAudio {
			h.refreshNormalization()
		}
	})
}

// ConfigurePresence updates the presence credentials. Changes arriving
// together settle once.
func (h *Hub) ConfigurePresence(sessionKey string, enabled bool) {
	h.presenceCreds.Push(debounce.Pair[string, bool]{First: sessionKey, Second: enabled})
}

// SetSleepTimer pauses playback after d. A non-positive d cancels the timer.
func (h *Hub) SetSleepTimer(d time.Duration) error {
	return h.exec(func() {
		if h.sleepTimer != nil {
			h.sleepTimer.Stop()
			h.sleepTimer = nil
		}
		h.sleepAt = time.Time{}
		if d <= 0 {
			return
		}
		h.sleepAt = h.now().Add(d)
		var timer *time.Timer
		timer = time.AfterFunc(d, func() {
			h.post(func() {
				if h.sleepTimer != timer {
					return
				}
				h.logger.Info("sleep timer fired")
				h.player.SetPlayWhenReady(false)
				h.sleepTimer = nil
				h.sleepAt = time.Time{}
			})
		})
		h.sleepTimer = timer
	})
}

// Stop stops playback and cancels background work. The next PlayQueue
// starts a fresh scope.
func (h *Hub) Stop() error {
	return h.exec(func() {
		h.player.Stop()
		if h.scope != nil {
			h.scope.Close()
		}
	})
}

func (h *Hub) playQueue(q queue.Queue, playWhenReady bool) {
	h.ensureScope()
	h.queue = q
	h.title = ""
	h.err = nil
	h.loadingMore = false

	preload := q.Preload()
	if preload != nil {
		h.player.SetItems([]playlist.Track{*preload}, 0, 0)
		h.player.Prepare()
		h.player.SetPlayWhenReady(playWhenReady)
	}

	hide := h.settings.HideExplicit
	h.spawn(func(ctx context.Context) {
		status, err := q.InitialStatus(ctx, hide)
		if ctx.Err() != nil {
			return
		}
		h.post(func() { h.applyInitialStatus(q, preload, status, err, playWhenReady) })
	})
}

func (h *Hub) applyInitialStatus(q queue.Queue, preload *playlist.Track, status queue.Status, err error, playWhenReady bool) {
	if h.queue != q {
		return
	}
	if err != nil {
		h.logger.Warn("load queue failed", "err", err)
		h.reportError(errmsg.OpQueueLoad, "", err, false)
		return
	}
	if preload != nil && h.player.State() == player.Idle {
		return
	}
	if status.Title != "" {
		h.title = status.Title
	}
	if len(status.Tracks) == 0 {
		return
	}

	if preload != nil {
		index := min(max(status.Index, 0), len(status.Tracks)-1)
		h.player.AddItems(0, status.Tracks[:index]...)
		h.player.AddItems(h.player.Len(), status.Tracks[index+1:]...)
		return
	}

	h.player.SetItems(status.Tracks, status.Index, status.Position)
	h.player.Prepare()
	h.player.SetPlayWhenReady(playWhenReady)
}

func (h *Hub) enqueue(tracks []playlist.Track, next bool) {
	tracks = queue.FilterTracks(tracks, h.settings.HideExplicit)
	if len(tracks) == 0 {
		return
	}
	if h.player.Len() == 0 || h.player.State() == player.Idle {
		h.playQueue(queue.NewList("", tracks, 0, 0), true)
		return
	}
	index := h.player.Len()
	if next {
		index = h.player.CurrentIndex() + 1
	}
	h.player.AddItems(index, tracks...)
	h.player.Prepare()
}

func (h *Hub) toggleSongFlag(op errmsg.Op, toggle func(playlist.Track) (bool, error)) {
	cur := h.player.Current()
	if cur == nil {
		return
	}
	track := *cur
	h.spawn(func(context.Context) {
		_, err := toggle(track)
		if err != nil {
			h.post(func() { h.reportError(op, track.ID, err, false) })
			return
		}
		song, err := h.store.GetSong(track.ID)
		h.post(func() {
			if err != nil {
				h.reportError(op, track.ID, err, false)
				return
			}
			h.setSong(track.ID, song)
		})
	})
}

func (h *Hub) setShuffle(enabled bool) {
	if !enabled {
		h.player.SetShuffle(false)
		return
	}
	h.player.SetShuffle(true)
	h.player.SetShuffleOrder(ShuffleOrder(h.player.Len(), h.player.CurrentIndex()))
}

// ShuffleOrder returns a random permutation of [0, n) that starts with
// current so the playing track stays where it is.
func ShuffleOrder(n, current int) []int {
	order := rand.Perm(n)
	if current < 0 || current >= n {
		return order
	}
	for i, idx := range order {
		if idx == current {
			order[0], order[i] = order[i], order[0]
			break
		}
	}
	return order
}

func (h *Hub) startRadioSeamlessly() {
	cur := h.player.Current()
	if cur == nil {
		return
	}
	h.ensureScope()
	seed := *cur

	if idx, n := h.player.CurrentIndex(), h.player.Len(); idx >= 0 {
		if idx+1 < n {
			h.player.RemoveItems(idx+1, n)
		}
		if idx > 0 {
			h.player.RemoveItems(0, idx)
		}
	}

	radio := queue.NewRadio(h.catalog, catalog.Endpoint{VideoID: seed.ID}, nil, h.logger)
	hide := h.settings.HideExplicit
	h.spawn(func(ctx context.Context) {
		status, err := radio.InitialStatus(ctx, hide)
		if ctx.Err() != nil {
			return
		}
		h.post(func() {
			if err != nil {
				h.reportError(errmsg.OpRadioStart, seed.ID, err, false)
				return
			}
			if cur := h.player.Current(); cur == nil || cur.ID != seed.ID {
				return
			}
			h.title = status.Title
			if len(status.Tracks) > 1 {
				h.player.AddItems(h.player.Len(), status.Tracks[1:]...)
			}
			h.queue = radio
			h.loadingMore = false
		})
	})
}

func (h *Hub) applyQuality() {
	if h.resolver == nil {
		return
	}
	q, err := stream.ParseQuality(h.settings.AudioQuality)
	if err != nil {
		q = stream.QualityAuto
	}
	h.resolver.SetQuality(q)
}

func (h *Hub) applyVolume() {
	h.player.SetVolume(min(max(h.volume*h.factor, 0), 1))
}

// refreshNormalization reloads the format record of the current track and
// recomputes the loudness factor from it.
func (h *Hub) refreshNormalization() {
	cur := h.player.Current()
	if cur == nil {
		h.format = nil
		h.factor = 1
		h.applyVolume()
		return
	}
	if h.format != nil && h.format.ID != cur.ID {
		h.format = nil
	}
	id := cur.ID
	h.spawn(func(context.Context) {
		rec, err := h.store.GetFormat(id)
		h.post(func() {
			if cur := h.player.Current(); cur == nil || cur.ID != id {
				return
			}
			if err != nil {
				h.logger.Debug("load format failed", "id", id, "err", err)
				return
			}
			h.format = rec
			var loudness *float64
			if rec != nil {
				loudness = rec.LoudnessDb
			}
			h.factor = NormalizationFactor(loudness, h.settings.NormalizeAudio)
			h.applyVolume()
		})
	})
}

func (h *Hub) setSong(id string, song *state.Song) {
	cur := h.player.Current()
	if cur == nil || cur.ID != id {
		return
	}
	if song == nil {
		song = &state.Song{Track: *cur}
	}
	h.song = song
}

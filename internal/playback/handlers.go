package playback

import (
	"context"

	"github.com/llehouerou/streamwave/internal/errmsg"
	"github.com/llehouerou/streamwave/internal/player"
	"github.com/llehouerou/streamwave/internal/queue"
	"github.com/llehouerou/streamwave/internal/state"
	"github.com/llehouerou/streamwave/internal/stream"
)

// loadMoreThreshold is how many tracks may remain after the current one
// before more are fetched.
const loadMoreThreshold = 5

// spawn runs fn on the current scope, creating one if needed.
func (h *Hub) spawn(fn func(ctx context.Context)) {
	h.ensureScope()
	h.scope.Go(fn)
}

func (h *Hub) handle(ev player.Event) {
	switch ev.Kind {
	case player.EventStateChanged, player.EventPlayWhenReadyChanged:
		h.onStateChanged(ev)
	case player.EventMediaTransition:
		h.onTransition(ev)
	case player.EventRepeatChanged:
		mode := int(ev.Repeat)
		h.spawn(func(context.Context) {
			if err := h.store.SaveRepeatMode(mode); err != nil {
				h.logger.Warn("save repeat mode failed", "err", err)
			}
		})
	case player.EventError:
		h.onError(ev.Err)
	case player.EventPlayStats:
		h.onPlayStats(ev)
	}
}

func (h *Hub) onStateChanged(ev player.Event) {
	cur := h.state()
	if ev.Kind == player.EventStateChanged && ev.State == player.Idle && cur.Player == player.Idle {
		h.resetQueue()
	}
	if ev.Kind == player.EventStateChanged && ev.State == player.Ready {
		// The format record is written while the first bytes are resolved.
		h.refreshNormalization()
	}
	h.updateSession(cur)
}

// resetQueue is the idle reset: nothing queued, no shuffle, no title.
func (h *Hub) resetQueue() {
	h.queue = queue.Empty{}
	h.title = ""
	h.format = nil
	h.loadingMore = false
	if h.player.Shuffle() {
		h.player.SetShuffle(false)
	}
}

// updateSession opens the audio-effect session while audible and closes it
// otherwise.
func (h *Hub) updateSession(s State) {
	switch {
	case s.IsPlaying() && !h.sessionOpen:
		h.sessionOpen = true
		h.effects.Open(h.player.AudioSessionID())
	case !s.IsPlaying() && h.sessionOpen:
		h.sessionOpen = false
		h.effects.Close(h.player.AudioSessionID())
	}
}

func (h *Hub) onTransition(ev player.Event) {
	h.err = nil
	h.eachSub(func(s *Subscription) {
		s.sendTrack(TrackChange{Current: ev.Track, Index: h.player.CurrentIndex(), Reason: ev.Reason})
	})

	if ev.Track == nil {
		h.song = nil
		h.format = nil
		h.factor = 1
		h.applyVolume()
		return
	}

	track := *ev.Track
	if h.song == nil || h.song.ID != track.ID {
		h.song = &state.Song{Track: track}
	}
	h.spawn(func(context.Context) {
		song, err := h.store.GetSong(track.ID)
		if err != nil {
			h.logger.Debug("load song failed", "id", track.ID, "err", err)
			return
		}
		h.post(func() { h.setSong(track.ID, song) })
	})
	h.refreshNormalization()
	h.nowPlaying.Push(track)

	if ev.Reason != player.TransitionRepeat {
		h.maybeLoadMore()
	}
}

// maybeLoadMore fetches the next page of the queue when few tracks remain.
func (h *Hub) maybeLoadMore() {
	if !h.settings.AutoLoadMore || h.loadingMore || !h.queue.HasMore() {
		return
	}
	if h.player.Len()-h.player.CurrentIndex() > loadMoreThreshold {
		return
	}

	q := h.queue
	hide := h.settings.HideExplicit
	h.loadingMore = true
	h.spawn(func(ctx context.Context) {
		tracks := q.FetchMore(ctx, hide)
		if ctx.Err() != nil {
			return
		}
		h.post(func() {
			// The world may have moved on while fetching.
			if h.queue != q {
				return
			}
			h.loadingMore = false
			if h.player.State() == player.Idle || len(tracks) == 0 {
				return
			}
			h.player.AddItems(h.player.Len(), tracks...)
		})
	})
}

func (h *Hub) onError(err error) {
	var id string
	if cur := h.player.Current(); cur != nil {
		id = cur.ID
	}

	if h.canAutoSkip() {
		h.logger.Warn("skipping track after error", "id", id, "err", err)
		h.player.SeekToNext()
		h.player.Prepare()
		h.player.SetPlayWhenReady(true)
		h.reportError(errmsg.OpPlaybackStart, id, err, true)
		return
	}

	h.logger.Warn("playback failed", "id", id, "err", err)
	h.reportError(errmsg.OpPlaybackStart, id, err, false)
}

func (h *Hub) canAutoSkip() bool {
	if !h.settings.AutoSkipOnError || !h.player.HasNext() {
		return false
	}
	var network stream.Network = stream.StaticNetwork{}
	if h.resolver != nil {
		network = h.resolver.Network()
	}
	return network.Connected()
}

// reportError notifies subscribers. Unless the hub already moved on, the
// error is also kept in the snapshot.
func (h *Hub) reportError(op errmsg.Op, trackID string, err error, skipped bool) {
	if !skipped {
		h.err = err
	}
	ev := ErrorEvent{Operation: string(op), TrackID: trackID, Err: err, Skipped: skipped}
	h.eachSub(func(s *Subscription) { s.sendError(ev) })
}

func (h *Hub) onPlayStats(ev player.Event) {
	if ev.Track == nil || ev.PlayTime < minHistoryPlayTime || h.settings.PauseHistory {
		return
	}
	track := *ev.Track
	playTime := ev.PlayTime
	at := h.now()
	h.spawn(func(ctx context.Context) {
		if _, err := h.store.RecordPlay(track, at, playTime); err != nil {
			h.logger.Warn("record play failed", "id", track.ID, "err", err)
		}
		if err := h.presence.Scrobble(ctx, track, at.Add(-playTime)); err != nil {
			h.logger.Debug("scrobble failed", "id", track.ID, "err", err)
		}
	})
}

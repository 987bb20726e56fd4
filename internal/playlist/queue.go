package playlist

import "slices"

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// PlayingQueue wraps a Playlist with a current position, a playback order
// (identity unless shuffled) and a repeat mode.
type PlayingQueue struct {
	playlist     *Playlist
	currentIndex int   // -1 if nothing playing
	order        []int // playback order, always a permutation of [0, Len)
	shuffle      bool
	repeat       RepeatMode
}

// NewQueue creates a new empty playing queue.
func NewQueue() *PlayingQueue {
	return &PlayingQueue{
		playlist:     NewPlaylist(),
		currentIndex: -1,
	}
}

// Current returns the current track, or nil if none.
func (q *PlayingQueue) Current() *Track {
	if q.currentIndex < 0 || q.currentIndex >= q.playlist.Len() {
		return nil
	}
	return q.playlist.Track(q.currentIndex)
}

// CurrentIndex returns the index of the current track (-1 if none).
func (q *PlayingQueue) CurrentIndex() int {
	return q.currentIndex
}

// Track returns the track at index, or nil.
func (q *PlayingQueue) Track(index int) *Track {
	return q.playlist.Track(index)
}

// JumpTo sets the current index to the specified position.
// Returns the track at that position, or nil if invalid.
func (q *PlayingQueue) JumpTo(index int) *Track {
	if index < 0 || index >= q.playlist.Len() {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// NextIndex returns the index that follows the current one in playback
// order, or -1. Only RepeatAll wraps around; RepeatOne navigates like
// RepeatOff.
func (q *PlayingQueue) NextIndex() int {
	pos := q.orderPosition()
	if pos < 0 {
		return -1
	}
	if pos+1 < len(q.order) {
		return q.order[pos+1]
	}
	if q.repeat == RepeatAll && len(q.order) > 0 {
		return q.order[0]
	}
	return -1
}

// PreviousIndex returns the index that precedes the current one in
// playback order, or -1.
func (q *PlayingQueue) PreviousIndex() int {
	pos := q.orderPosition()
	if pos < 0 {
		return -1
	}
	if pos > 0 {
		return q.order[pos-1]
	}
	if q.repeat == RepeatAll && len(q.order) > 0 {
		return q.order[len(q.order)-1]
	}
	return -1
}

// HasNext returns true if there's a track after the current one.
func (q *PlayingQueue) HasNext() bool {
	return q.NextIndex() >= 0
}

// HasPrevious returns true if there's a track before the current one.
func (q *PlayingQueue) HasPrevious() bool {
	return q.PreviousIndex() >= 0
}

// Next advances to the next track and returns it.
// Returns nil if there is no next track.
func (q *PlayingQueue) Next() *Track {
	next := q.NextIndex()
	if next < 0 {
		return nil
	}
	q.currentIndex = next
	return q.Current()
}

// Previous moves to the previous track and returns it.
func (q *PlayingQueue) Previous() *Track {
	prev := q.PreviousIndex()
	if prev < 0 {
		return nil
	}
	q.currentIndex = prev
	return q.Current()
}

// Add appends tracks to the queue without changing playback.
func (q *PlayingQueue) Add(tracks ...Track) {
	q.Insert(q.playlist.Len(), tracks...)
}

// Insert inserts tracks before index without changing the current track.
func (q *PlayingQueue) Insert(index int, tracks ...Track) bool {
	if !q.playlist.Insert(index, tracks...) {
		return false
	}
	n := len(tracks)
	if n == 0 {
		return true
	}
	if q.currentIndex >= index {
		q.currentIndex += n
	}
	for i, idx := range q.order {
		if idx >= index {
			q.order[i] = idx + n
		}
	}
	if q.shuffle {
		for i := range n {
			q.order = append(q.order, index+i)
		}
	} else {
		q.order = identityOrder(q.playlist.Len())
	}
	return true
}

// Replace clears the queue, adds tracks, and sets the current index.
// Shuffle is turned off. Returns the current track.
func (q *PlayingQueue) Replace(tracks []Track, index int) *Track {
	q.playlist.Clear()
	q.playlist.Add(tracks...)
	q.shuffle = false
	q.order = identityOrder(len(tracks))
	q.currentIndex = -1
	if len(tracks) == 0 {
		return nil
	}
	if index < 0 || index >= len(tracks) {
		index = 0
	}
	q.currentIndex = index
	return q.Current()
}

// RemoveRange removes the tracks in [from, to).
// When the current track is removed the queue points at the track that
// took its place, clamped to the last track.
func (q *PlayingQueue) RemoveRange(from, to int) bool {
	if !q.playlist.RemoveRange(from, to) {
		return false
	}
	n := to - from
	if n == 0 {
		return true
	}

	switch {
	case q.currentIndex >= to:
		q.currentIndex -= n
	case q.currentIndex >= from:
		q.currentIndex = from
		if q.currentIndex >= q.playlist.Len() {
			q.currentIndex = q.playlist.Len() - 1
		}
	}

	order := q.order[:0]
	for _, idx := range q.order {
		switch {
		case idx < from:
			order = append(order, idx)
		case idx >= to:
			order = append(order, idx-n)
		}
	}
	q.order = order
	return true
}

// RemoveAt removes the track at the given index.
func (q *PlayingQueue) RemoveAt(index int) bool {
	return q.RemoveRange(index, index+1)
}

// Clear removes all tracks and resets playback.
func (q *PlayingQueue) Clear() {
	q.playlist.Clear()
	q.order = q.order[:0]
	q.currentIndex = -1
	q.shuffle = false
}

// Tracks returns all tracks in insertion order.
func (q *PlayingQueue) Tracks() []Track {
	return q.playlist.Tracks()
}

// Len returns the number of tracks in the queue.
func (q *PlayingQueue) Len() int {
	return q.playlist.Len()
}

// IsEmpty returns true if the queue has no tracks.
func (q *PlayingQueue) IsEmpty() bool {
	return q.playlist.Len() == 0
}

// Shuffle returns whether shuffle is enabled.
func (q *PlayingQueue) Shuffle() bool {
	return q.shuffle
}

// SetShuffle enables or disables shuffle. Disabling restores the
// insertion order; enabling keeps the current order until SetOrder.
func (q *PlayingQueue) SetShuffle(enabled bool) {
	q.shuffle = enabled
	if !enabled {
		q.order = identityOrder(q.playlist.Len())
	}
}

// SetOrder installs a playback order. It is ignored unless it is a
// permutation of the queue indices.
func (q *PlayingQueue) SetOrder(order []int) bool {
	if !isPermutation(order, q.playlist.Len()) {
		return false
	}
	q.order = slices.Clone(order)
	return true
}

// Order returns a copy of the playback order.
func (q *PlayingQueue) Order() []int {
	return slices.Clone(q.order)
}

// OrderPosition returns the position of the current track in playback
// order, or -1.
func (q *PlayingQueue) OrderPosition() int {
	return q.orderPosition()
}

// RepeatMode returns the current repeat mode.
func (q *PlayingQueue) RepeatMode() RepeatMode {
	return q.repeat
}

// SetRepeatMode sets the repeat mode.
func (q *PlayingQueue) SetRepeatMode(mode RepeatMode) {
	q.repeat = mode
}

func (q *PlayingQueue) orderPosition() int {
	if q.currentIndex < 0 {
		return -1
	}
	return slices.Index(q.order, q.currentIndex)
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

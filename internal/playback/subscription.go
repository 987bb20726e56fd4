package playback

const eventBufferSize = 16

// Subscription delivers hub output to one subscriber.
//
// Snapshots holds only the latest snapshot, so a slow reader skips stale
// ones. Tracks and Errors are buffered and drop events once full. Done is
// closed on Unsubscribe and when the hub stops.
type Subscription struct {
	Snapshots <-chan Snapshot
	Tracks    <-chan TrackChange
	Errors    <-chan ErrorEvent
	Done      <-chan struct{}

	snapshots chan Snapshot
	tracks    chan TrackChange
	errors    chan ErrorEvent
	done      chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		snapshots: make(chan Snapshot, 1),
		tracks:    make(chan TrackChange, eventBufferSize),
		errors:    make(chan ErrorEvent, eventBufferSize),
		done:      make(chan struct{}),
	}
	s.Snapshots, s.Tracks, s.Errors, s.Done = s.snapshots, s.tracks, s.errors, s.done
	return s
}

func (s *Subscription) close() { close(s.done) }

// sendSnapshot replaces any unread snapshot. The hub goroutine is the only
// writer.
func (s *Subscription) sendSnapshot(snap Snapshot) {
	select {
	case <-s.snapshots:
	default:
	}
	offer(s.snapshots, snap)
}

func (s *Subscription) sendTrack(e TrackChange) { offer(s.tracks, e) }

func (s *Subscription) sendError(e ErrorEvent) { offer(s.errors, e) }

func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

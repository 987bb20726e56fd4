package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// nowPlayingTimeout keeps the notification visible for a few seconds.
const nowPlayingTimeout = 5000

// NowPlaying shows the current track, replacing its previous notification
// instead of stacking new ones.
type NowPlaying struct {
	notifier Notifier
	logger   *log.Logger

	mu     sync.Mutex
	lastID uint32
}

// NewNowPlaying wraps n.
func NewNowPlaying(n Notifier, logger *log.Logger) *NowPlaying {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &NowPlaying{notifier: n, logger: logger.WithPrefix("notify")}
}

// NowPlaying shows track.
func (p *NowPlaying) NowPlaying(track playlist.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, err := p.notifier.Notify(Notification{
		Title:      track.Title,
		Body:       body(track),
		Icon:       track.Thumbnail,
		Timeout:    nowPlayingTimeout,
		ReplacesID: p.lastID,
		Urgency:    UrgencyLow,
	})
	if err != nil {
		p.logger.Debug("notify failed", "id", track.ID, "err", err)
		return
	}
	if id != 0 {
		p.lastID = id
	}
}

// Dismiss closes the last notification, if any.
func (p *NowPlaying) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastID == 0 {
		return
	}
	if err := p.notifier.Close(p.lastID); err != nil {
		p.logger.Debug("close notification failed", "err", err)
	}
	p.lastID = 0
}

func body(t playlist.Track) string {
	artists := t.ArtistNames()
	switch {
	case artists != "" && t.Album != nil && t.Album.Title != "":
		return fmt.Sprintf("%s\n%s", artists, t.Album.Title)
	case artists != "":
		return artists
	case t.Album != nil:
		return t.Album.Title
	default:
		return ""
	}
}

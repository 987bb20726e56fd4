package lastfm

import (
	"strings"
	"time"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// ScrobbleTrack contains track metadata for scrobbling.
type ScrobbleTrack struct {
	SongID    string
	Artist    string
	Track     string
	Album     string
	Duration  time.Duration
	Timestamp time.Time // When playback started
}

// FromTrack builds the scrobble payload for a catalog track. Only the first
// artist is sent: Last.fm matches on a single artist name.
func FromTrack(t playlist.Track, startedAt time.Time) ScrobbleTrack {
	st := ScrobbleTrack{
		SongID:    t.ID,
		Track:     t.Title,
		Timestamp: startedAt,
	}
	if len(t.Artists) > 0 {
		st.Artist = strings.TrimSpace(t.Artists[0])
	}
	if t.Album != nil {
		st.Album = t.Album.Title
	}
	if t.HasDuration() {
		st.Duration = time.Duration(t.Duration) * time.Second
	}
	return st
}

func (t ScrobbleTrack) params() lastfm.P {
	p := lastfm.P{
		"artist": t.Artist,
		"track":  t.Track,
	}
	if t.Album != "" {
		p["album"] = t.Album
	}
	if t.Duration > 0 {
		p["duration"] = int(t.Duration.Seconds())
	}
	return p
}

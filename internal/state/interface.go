package state

import (
	"time"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// Interface defines the durable store contract for dependency injection and testing.
type Interface interface {
	GetSong(id string) (*Song, error)
	InsertSong(t playlist.Track) error
	BackfillDuration(id string, seconds int) (bool, error)
	ToggleLike(t playlist.Track) (bool, error)
	ToggleLibrary(t playlist.Track) (bool, error)

	GetFormat(id string) (*FormatRecord, error)
	UpsertFormat(f FormatRecord) error

	GetLyrics(id string) (*Lyrics, error)
	UpsertLyrics(l Lyrics) error

	HasRelated(id string) (bool, error)
	SaveRelated(id string, related []playlist.Track) error

	RecordPlay(t playlist.Track, at time.Time, playTime time.Duration) (Event, error)

	GetSettings() (Settings, error)
	SaveVolume(volume float64) error
	SaveRepeatMode(mode int) error

	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)

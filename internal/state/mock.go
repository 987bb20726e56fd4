package state

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/streamwave/internal/playlist"
)

// Mock is an in-memory test double for Manager. It is safe for concurrent use.
type Mock struct {
	mu       sync.Mutex
	songs    map[string]*Song
	formats  map[string]FormatRecord
	lyrics   map[string]Lyrics
	related  map[string][]string
	events   []Event
	settings Settings
	closed   bool
}

// NewMock creates a new mock store for testing.
func NewMock() *Mock {
	return &Mock{
		songs:    make(map[string]*Song),
		formats:  make(map[string]FormatRecord),
		lyrics:   make(map[string]Lyrics),
		related:  make(map[string][]string),
		settings: Settings{Volume: 1.0},
	}
}

func (m *Mock) GetSong(id string) (*Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[id]
	if !ok {
		return nil, nil //nolint:nilnil // unknown song
	}
	cp := *s
	return &cp, nil
}

func (m *Mock) InsertSong(t playlist.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(t)
	return nil
}

func (m *Mock) insertLocked(t playlist.Track) *Song {
	if s, ok := m.songs[t.ID]; ok {
		return s
	}
	s := &Song{Track: t}
	m.songs[t.ID] = s
	return s
}

func (m *Mock) BackfillDuration(id string, seconds int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[id]
	if !ok || seconds < 0 || s.HasDuration() {
		return false, nil
	}
	s.Duration = seconds
	return true, nil
}

func (m *Mock) ToggleLike(t playlist.Track) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.insertLocked(t)
	s.Liked = !s.Liked
	return s.Liked, nil
}

func (m *Mock) ToggleLibrary(t playlist.Track) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.insertLocked(t)
	s.InLibrary = !s.InLibrary
	return s.InLibrary, nil
}

func (m *Mock) GetFormat(id string) (*FormatRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.formats[id]
	if !ok {
		return nil, nil //nolint:nilnil // never resolved
	}
	return &f, nil
}

func (m *Mock) UpsertFormat(f FormatRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formats[f.ID] = f
	return nil
}

func (m *Mock) GetLyrics(id string) (*Lyrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lyrics[id]
	if !ok {
		return nil, nil //nolint:nilnil // no lyrics stored
	}
	return &l, nil
}

func (m *Mock) UpsertLyrics(l Lyrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lyrics[l.ID] = l
	return nil
}

func (m *Mock) HasRelated(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.related[id]) > 0, nil
}

func (m *Mock) SaveRelated(id string, related []playlist.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range related {
		m.insertLocked(t)
		m.related[id] = append(m.related[id], t.ID)
	}
	return nil
}

func (m *Mock) RecordPlay(t playlist.Track, at time.Time, playTime time.Duration) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.insertLocked(t)
	s.TotalPlayTime += playTime.Milliseconds()
	ev := Event{ID: uuid.NewString(), SongID: t.ID, Timestamp: at, PlayTime: playTime}
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *Mock) GetSettings() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *Mock) SaveVolume(volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.Volume = volume
	m.settings.Saved = true
	return nil
}

func (m *Mock) SaveRepeatMode(mode int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.RepeatMode = mode
	m.settings.Saved = true
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

func (m *Mock) SetSong(s Song) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.songs[s.ID] = &s
}

func (m *Mock) SetFormat(f FormatRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formats[f.ID] = f
}

func (m *Mock) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func (m *Mock) RelatedIDs(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.related[id]...)
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)

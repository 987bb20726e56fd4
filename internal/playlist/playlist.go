package playlist

import "strings"

// UnknownDuration marks a track whose length has not been resolved yet.
const UnknownDuration = -1

// Album references the album a track belongs to.
type Album struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Track describes a single playable unit.
// Tracks are values: they are replaced, never mutated in place.
type Track struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Artists   []string `json:"artists,omitempty"`
	Duration  int      `json:"duration"` // seconds, UnknownDuration if not known
	Thumbnail string   `json:"thumbnail,omitempty"`
	Explicit  bool     `json:"explicit,omitempty"`
	Album     *Album   `json:"album,omitempty"`
	Live      bool     `json:"live,omitempty"` // non-seekable, still extending stream
}

// ArtistNames joins the artist list for display.
func (t Track) ArtistNames() string {
	return strings.Join(t.Artists, ", ")
}

// HasDuration returns true if the duration is known.
func (t Track) HasDuration() bool {
	return t.Duration != UnknownDuration && t.Duration > 0
}

// WithDuration returns a copy of the track with the given duration.
func (t Track) WithDuration(seconds int) Track {
	t.Duration = seconds
	return t
}

// Playlist holds an ordered collection of tracks.
type Playlist struct {
	tracks []Track
}

// NewPlaylist creates a new empty playlist.
func NewPlaylist() *Playlist {
	return &Playlist{
		tracks: make([]Track, 0),
	}
}

// Add appends tracks to the playlist.
func (p *Playlist) Add(tracks ...Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Insert inserts tracks before index. An index equal to Len appends.
// Returns false if index is out of bounds.
func (p *Playlist) Insert(index int, tracks ...Track) bool {
	if index < 0 || index > len(p.tracks) {
		return false
	}
	if len(tracks) == 0 {
		return true
	}
	tail := make([]Track, len(p.tracks)-index)
	copy(tail, p.tracks[index:])
	p.tracks = append(append(p.tracks[:index], tracks...), tail...)
	return true
}

// Remove removes the track at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	return p.RemoveRange(index, index+1)
}

// RemoveRange removes tracks in [from, to).
// Returns false if the range is invalid.
func (p *Playlist) RemoveRange(from, to int) bool {
	if from < 0 || to > len(p.tracks) || from > to {
		return false
	}
	p.tracks = append(p.tracks[:from], p.tracks[to:]...)
	return true
}

// Clear removes all tracks from the playlist.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []Track {
	result := make([]Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Track returns the track at the given index, or nil if out of bounds.
func (p *Playlist) Track(index int) *Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	return &p.tracks[index]
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Move moves the track at fromIndex to toIndex.
// Returns false if either index is out of bounds.
func (p *Playlist) Move(fromIndex, toIndex int) bool {
	if fromIndex < 0 || fromIndex >= len(p.tracks) {
		return false
	}
	if toIndex < 0 || toIndex >= len(p.tracks) {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	track := p.tracks[fromIndex]
	p.tracks = append(p.tracks[:fromIndex], p.tracks[fromIndex+1:]...)
	p.tracks = append(p.tracks[:toIndex], append([]Track{track}, p.tracks[toIndex:]...)...)
	return true
}

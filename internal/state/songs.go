package state

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/llehouerou/streamwave/internal/db"
	"github.com/llehouerou/streamwave/internal/playlist"
)

// Song is a stored track with its per-user flags.
type Song struct {
	playlist.Track
	Liked         bool
	InLibrary     bool
	TotalPlayTime int64 // milliseconds
}

const songColumns = `songs.id, songs.title, songs.artists, songs.album_id, songs.album_title,
	songs.duration, songs.thumbnail, songs.explicit, songs.liked, songs.in_library IS NOT NULL,
	songs.total_play_time`

// GetSong returns the stored song, or nil if unknown.
func (m *Manager) GetSong(id string) (*Song, error) {
	row := m.db.QueryRow(`SELECT `+songColumns+` FROM songs WHERE id = ?`, id)
	s, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil song means unknown, not an error
	}
	return s, err
}

// InsertSong stores the track if it is not already known. Existing rows are
// left untouched.
func (m *Manager) InsertSong(t playlist.Track) error {
	return insertSong(m.db, t)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertSong(e execer, t playlist.Track) error {
	artists, err := json.Marshal(t.Artists)
	if err != nil {
		return err
	}
	var albumID, albumTitle sql.NullString
	if t.Album != nil {
		albumID = sql.NullString{String: t.Album.ID, Valid: true}
		albumTitle = sql.NullString{String: t.Album.Title, Valid: true}
	}
	_, err = e.Exec(`
		INSERT INTO songs (id, title, artists, album_id, album_title, duration, thumbnail, explicit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, t.ID, t.Title, string(artists), albumID, albumTitle, t.Duration, t.Thumbnail, t.Explicit)
	return err
}

// BackfillDuration sets the song duration only when it is still unknown.
// It reports whether a row was updated.
func (m *Manager) BackfillDuration(id string, seconds int) (bool, error) {
	if seconds < 0 {
		return false, nil
	}
	res, err := m.db.Exec(`
		UPDATE songs SET duration = ? WHERE id = ? AND duration <= 0
	`, seconds, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ToggleLike flips the liked flag, inserting the song first if needed.
// It returns the new value.
func (m *Manager) ToggleLike(t playlist.Track) (bool, error) {
	var liked bool
	err := db.WithTx(m.db, func(tx *sql.Tx) error {
		if err := insertSong(tx, t); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE songs SET liked = NOT liked WHERE id = ?`, t.ID); err != nil {
			return err
		}
		return tx.QueryRow(`SELECT liked FROM songs WHERE id = ?`, t.ID).Scan(&liked)
	})
	return liked, err
}

// ToggleLibrary adds the song to the library or removes it. It returns
// whether the song is in the library afterwards.
func (m *Manager) ToggleLibrary(t playlist.Track) (bool, error) {
	var inLibrary bool
	err := db.WithTx(m.db, func(tx *sql.Tx) error {
		if err := insertSong(tx, t); err != nil {
			return err
		}
		_, err := tx.Exec(`
			UPDATE songs
			SET in_library = CASE WHEN in_library IS NULL THEN strftime('%s','now') ELSE NULL END
			WHERE id = ?
		`, t.ID)
		if err != nil {
			return err
		}
		return tx.QueryRow(`SELECT in_library IS NOT NULL FROM songs WHERE id = ?`, t.ID).Scan(&inLibrary)
	})
	return inLibrary, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (*Song, error) {
	var s Song
	var artists string
	var albumID, albumTitle, thumbnail sql.NullString
	err := row.Scan(
		&s.ID, &s.Title, &artists, &albumID, &albumTitle, &s.Duration, &thumbnail,
		&s.Explicit, &s.Liked, &s.InLibrary, &s.TotalPlayTime,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(artists), &s.Artists); err != nil {
		return nil, err
	}
	if albumID.Valid {
		s.Album = &playlist.Album{ID: albumID.String, Title: db.NullStringValue(albumTitle)}
	}
	s.Thumbnail = db.NullStringValue(thumbnail)
	return &s, nil
}

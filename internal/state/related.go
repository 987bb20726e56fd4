package state

import (
	"database/sql"

	"github.com/llehouerou/streamwave/internal/db"
	"github.com/llehouerou/streamwave/internal/playlist"
)

// HasRelated reports whether related songs were already fetched for id.
func (m *Manager) HasRelated(id string) (bool, error) {
	var n int
	err := m.db.QueryRow(`SELECT COUNT(*) FROM related_song_map WHERE song_id = ?`, id).Scan(&n)
	return n > 0, err
}

// SaveRelated stores the related tracks of id, inserting unknown songs.
func (m *Manager) SaveRelated(id string, related []playlist.Track) error {
	return db.WithTx(m.db, func(tx *sql.Tx) error {
		for _, t := range related {
			if err := insertSong(tx, t); err != nil {
				return err
			}
			if _, err := tx.Exec(`
				INSERT OR IGNORE INTO related_song_map (song_id, related_song_id) VALUES (?, ?)
			`, id, t.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRelated returns the stored related songs of id in insertion order.
func (m *Manager) GetRelated(id string) ([]Song, error) {
	rows, err := m.db.Query(`
		SELECT `+songColumns+`
		FROM related_song_map r
		JOIN songs ON songs.id = r.related_song_id
		WHERE r.song_id = ?
		ORDER BY r.id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *s)
	}
	return songs, rows.Err()
}

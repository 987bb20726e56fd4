package state

import (
	"database/sql"
	"errors"

	"github.com/llehouerou/streamwave/internal/db"
)

// Lyrics holds the stored lyrics of a song and an optional translation.
type Lyrics struct {
	ID          string
	Text        string
	Translation string
}

func (m *Manager) GetLyrics(id string) (*Lyrics, error) {
	var l Lyrics
	var translation sql.NullString
	err := m.db.QueryRow(`SELECT id, lyrics, translation FROM lyrics WHERE id = ?`, id).
		Scan(&l.ID, &l.Text, &translation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // no lyrics stored
	}
	if err != nil {
		return nil, err
	}
	l.Translation = db.NullStringValue(translation)
	return &l, nil
}

func (m *Manager) UpsertLyrics(l Lyrics) error {
	var translation sql.NullString
	if l.Translation != "" {
		translation = sql.NullString{String: l.Translation, Valid: true}
	}
	_, err := m.db.Exec(`
		INSERT INTO lyrics (id, lyrics, translation) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lyrics = excluded.lyrics,
			translation = excluded.translation
	`, l.ID, l.Text, translation)
	return err
}

package state

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/streamwave/internal/db"
	"github.com/llehouerou/streamwave/internal/playlist"
)

// Event is one recorded play of a song.
type Event struct {
	ID        string
	SongID    string
	Timestamp time.Time
	PlayTime  time.Duration
}

// RecordPlay stores a play event for the track and adds its play time to the
// song's total. The song is inserted if unknown.
func (m *Manager) RecordPlay(t playlist.Track, at time.Time, playTime time.Duration) (Event, error) {
	ev := Event{
		ID:        uuid.NewString(),
		SongID:    t.ID,
		Timestamp: at,
		PlayTime:  playTime,
	}
	err := db.WithTx(m.db, func(tx *sql.Tx) error {
		if err := insertSong(tx, t); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO events (id, song_id, timestamp, play_time) VALUES (?, ?, ?, ?)
		`, ev.ID, ev.SongID, at.UnixMilli(), playTime.Milliseconds()); err != nil {
			return err
		}
		_, err := tx.Exec(`
			UPDATE songs SET total_play_time = total_play_time + ? WHERE id = ?
		`, playTime.Milliseconds(), t.ID)
		return err
	})
	return ev, err
}

// RecentEvents returns the latest play events, newest first.
func (m *Manager) RecentEvents(limit int) ([]Event, error) {
	rows, err := m.db.Query(`
		SELECT id, song_id, timestamp, play_time FROM events
		ORDER BY timestamp DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var ts, playTime int64
		if err := rows.Scan(&ev.ID, &ev.SongID, &ts, &playTime); err != nil {
			return nil, err
		}
		ev.Timestamp = time.UnixMilli(ts)
		ev.PlayTime = time.Duration(playTime) * time.Millisecond
		events = append(events, ev)
	}
	return events, rows.Err()
}

package state

import (
	"database/sql"
)

const currentSchemaVersion = 3

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS songs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artists TEXT NOT NULL DEFAULT '[]',
			album_id TEXT,
			album_title TEXT,
			duration INTEGER NOT NULL DEFAULT -1,
			thumbnail TEXT,
			explicit INTEGER NOT NULL DEFAULT 0,
			liked INTEGER NOT NULL DEFAULT 0,
			in_library INTEGER,
			total_play_time INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS formats (
			id TEXT PRIMARY KEY,
			itag INTEGER NOT NULL,
			mime_type TEXT NOT NULL,
			codecs TEXT NOT NULL,
			bitrate INTEGER NOT NULL,
			sample_rate INTEGER,
			content_length INTEGER NOT NULL DEFAULT 0,
			loudness_db REAL
		);

		CREATE TABLE IF NOT EXISTS lyrics (
			id TEXT PRIMARY KEY,
			lyrics TEXT NOT NULL,
			translation TEXT
		);

		CREATE TABLE IF NOT EXISTS related_song_map (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			song_id TEXT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
			related_song_id TEXT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
			UNIQUE(song_id, related_song_id)
		);

		CREATE INDEX IF NOT EXISTS idx_related_song ON related_song_map(song_id);

		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			song_id TEXT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
			timestamp INTEGER NOT NULL,
			play_time INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp DESC);

		CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			volume REAL NOT NULL DEFAULT 1.0,
			repeat_mode INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS pending_scrobbles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			song_id TEXT NOT NULL,
			artist TEXT NOT NULL,
			track TEXT NOT NULL,
			album TEXT,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			timestamp INTEGER NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	if err != nil {
		return err
	}

	// Migration: loudness was added after the first format table
	_, _ = db.Exec(`ALTER TABLE formats ADD COLUMN loudness_db REAL`)

	return nil
}

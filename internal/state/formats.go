package state

import (
	"database/sql"
	"errors"

	"github.com/llehouerou/streamwave/internal/db"
)

// FormatRecord is the transport format chosen for a track on its first
// successful resolution.
type FormatRecord struct {
	ID            string
	Itag          int
	MimeType      string
	Codecs        string
	Bitrate       int
	SampleRate    int
	ContentLength int64
	LoudnessDb    *float64
}

// GetFormat returns the stored format record, or nil if none exists.
func (m *Manager) GetFormat(id string) (*FormatRecord, error) {
	var f FormatRecord
	var sampleRate sql.NullInt64
	var loudness sql.NullFloat64

	err := m.db.QueryRow(`
		SELECT id, itag, mime_type, codecs, bitrate, sample_rate, content_length, loudness_db
		FROM formats WHERE id = ?
	`, id).Scan(&f.ID, &f.Itag, &f.MimeType, &f.Codecs, &f.Bitrate, &sampleRate, &f.ContentLength, &loudness)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil record means never resolved
	}
	if err != nil {
		return nil, err
	}

	f.SampleRate = int(db.NullInt64Value(sampleRate))
	f.LoudnessDb = db.NullFloat64ToPtr(loudness)
	return &f, nil
}

// UpsertFormat inserts or replaces the format record of a track.
func (m *Manager) UpsertFormat(f FormatRecord) error {
	var sampleRate sql.NullInt64
	if f.SampleRate > 0 {
		sampleRate = sql.NullInt64{Int64: int64(f.SampleRate), Valid: true}
	}
	_, err := m.db.Exec(`
		INSERT INTO formats (id, itag, mime_type, codecs, bitrate, sample_rate, content_length, loudness_db)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			itag = excluded.itag,
			mime_type = excluded.mime_type,
			codecs = excluded.codecs,
			bitrate = excluded.bitrate,
			sample_rate = excluded.sample_rate,
			content_length = excluded.content_length,
			loudness_db = excluded.loudness_db
	`, f.ID, f.Itag, f.MimeType, f.Codecs, f.Bitrate, sampleRate, f.ContentLength, db.PtrToNullFloat64(f.LoudnessDb))
	return err
}

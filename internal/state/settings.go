package state

import (
	"database/sql"
	"errors"
)

// Settings are the playback values restored at startup.
type Settings struct {
	Volume     float64
	RepeatMode int
	Saved      bool // false when the defaults are returned
}

// GetSettings returns the saved settings, or defaults when none were saved.
func (m *Manager) GetSettings() (Settings, error) {
	var s Settings
	err := m.db.QueryRow(`SELECT volume, repeat_mode FROM settings WHERE id = 1`).
		Scan(&s.Volume, &s.RepeatMode)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{Volume: 1.0}, nil
	}
	s.Saved = err == nil
	return s, err
}

// SaveVolume persists the volume level.
func (m *Manager) SaveVolume(volume float64) error {
	_, err := m.db.Exec(`
		INSERT INTO settings (id, volume) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET volume = excluded.volume
	`, volume)
	return err
}

// SaveRepeatMode persists the repeat mode.
func (m *Manager) SaveRepeatMode(mode int) error {
	_, err := m.db.Exec(`
		INSERT INTO settings (id, repeat_mode) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET repeat_mode = excluded.repeat_mode
	`, mode)
	return err
}

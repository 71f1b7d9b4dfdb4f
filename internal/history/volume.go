package history

import (
	"database/sql"
	"errors"
)

// VolumeState represents the saved volume state.
type VolumeState struct {
	Volume float64
	Muted  bool
}

// Volume returns the saved volume state.
func (l *Ledger) Volume() (*VolumeState, error) {
	var volume float64
	var muted bool

	row := l.db.QueryRow(`SELECT volume, muted FROM queue_state WHERE id = 1`)
	err := row.Scan(&volume, &muted)
	if errors.Is(err, sql.ErrNoRows) {
		return &VolumeState{Volume: 1.0, Muted: false}, nil
	}
	if err != nil {
		return nil, err
	}

	return &VolumeState{Volume: volume, Muted: muted}, nil
}

// SaveVolume persists the volume level.
func (l *Ledger) SaveVolume(volume float64, muted bool) error {
	_, err := l.db.Exec(`
		INSERT INTO queue_state (id, current_index, volume, muted)
		VALUES (1, -1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			muted = excluded.muted
	`, volume, muted)
	return err
}

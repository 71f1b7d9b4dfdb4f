package history

import (
	"context"
	"database/sql"
	"errors"

	"github.com/llehouerou/alephplay/internal/catalog"
	dbutil "github.com/llehouerou/alephplay/internal/db"
)

// QueueState is the saved playlist context.
type QueueState struct {
	CurrentIndex int
	Tracks       []catalog.Track
}

// Queue returns the saved queue. An empty store yields an empty queue.
func (l *Ledger) Queue() (*QueueState, error) {
	var currentIndex int
	row := l.db.QueryRow(`SELECT current_index FROM queue_state WHERE id = 1`)
	err := row.Scan(&currentIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{CurrentIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := l.db.Query(`
		SELECT track_id, title, artist, album, cover_url, duration_ms
		FROM queue_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []catalog.Track
	for rows.Next() {
		var t catalog.Track
		var artist, album, cover sql.NullString
		var durationMS sql.NullInt64

		if err := rows.Scan(&t.ID, &t.Title, &artist, &album, &cover, &durationMS); err != nil {
			return nil, err
		}

		t.Artist = dbutil.String(artist)
		t.Album = dbutil.String(album)
		t.CoverURL = dbutil.String(cover)
		t.Duration = dbutil.Millis(durationMS)
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if currentIndex >= len(tracks) {
		currentIndex = len(tracks) - 1
	}
	return &QueueState{CurrentIndex: currentIndex, Tracks: tracks}, nil
}

// SaveQueue replaces the saved queue. Audio URLs are not stored: the
// streaming service hands out a fresh one per play.
func (l *Ledger) SaveQueue(state QueueState) error {
	return dbutil.WithTx(context.Background(), l.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM queue_tracks`); err != nil {
			return err
		}

		_, err := tx.Exec(`
			INSERT INTO queue_state (id, current_index) VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET current_index = excluded.current_index
		`, state.CurrentIndex)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO queue_tracks (position, track_id, title, artist, album, cover_url, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range state.Tracks {
			_, err := stmt.Exec(i, t.ID, t.Title, t.Artist, t.Album, t.CoverURL, t.Duration.Milliseconds())
			if err != nil {
				return err
			}
		}
		return nil
	})
}

package history

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/bus"
	dbutil "github.com/llehouerou/alephplay/internal/db"
)

// Listen is one finished track.
type Listen struct {
	ID         int64
	TrackID    string
	Title      string
	Artist     string
	Album      string
	Listened   time.Duration
	Reason     bus.FinishReason
	StartedAt  time.Time // zero when unknown
	FinishedAt time.Time
}

// ListenFromEvent converts a TrackFinished event.
func ListenFromEvent(e bus.TrackFinished) Listen {
	return Listen{
		TrackID:    e.Track.ID,
		Title:      e.Track.DisplayTitle(),
		Artist:     e.Track.Artist,
		Album:      e.Track.Album,
		Listened:   e.Listened,
		Reason:     e.Reason,
		StartedAt:  e.StartedAt,
		FinishedAt: e.FinishedAt,
	}
}

// Record stores a listen and returns its id.
func (l *Ledger) Record(ls Listen) (int64, error) {
	if ls.FinishedAt.IsZero() {
		ls.FinishedAt = l.now()
	}
	var started sql.NullInt64
	if !ls.StartedAt.IsZero() {
		started = sql.NullInt64{Int64: ls.StartedAt.Unix(), Valid: true}
	}
	res, err := l.db.Exec(`
		INSERT INTO listens (track_id, title, artist, album, listened_ms, reason, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ls.TrackID, ls.Title, ls.Artist, ls.Album, ls.Listened.Milliseconds(),
		string(ls.Reason), started, ls.FinishedAt.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Recent returns up to limit listens, newest first.
func (l *Ledger) Recent(limit int) ([]Listen, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.Query(`
		SELECT id, track_id, title, artist, album, listened_ms, reason, started_at, finished_at
		FROM listens
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listens []Listen
	for rows.Next() {
		var ls Listen
		var artist, album sql.NullString
		var listenedMS, finishedAt int64
		var startedAt sql.NullInt64
		var reason string

		err := rows.Scan(&ls.ID, &ls.TrackID, &ls.Title, &artist, &album,
			&listenedMS, &reason, &startedAt, &finishedAt)
		if err != nil {
			return nil, err
		}

		ls.Artist = dbutil.String(artist)
		ls.Album = dbutil.String(album)
		ls.Listened = time.Duration(listenedMS) * time.Millisecond
		ls.Reason = bus.FinishReason(reason)
		ls.StartedAt = dbutil.UnixTime(startedAt)
		ls.FinishedAt = time.Unix(finishedAt, 0)
		listens = append(listens, ls)
	}
	return listens, rows.Err()
}

// TotalListened sums the listened time of a track.
func (l *Ledger) TotalListened(trackID string) (time.Duration, error) {
	var total sql.NullInt64
	err := l.db.QueryRow(`SELECT SUM(listened_ms) FROM listens WHERE track_id = ?`, trackID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return dbutil.Millis(total), nil
}

// Attach records every finished track published on b.
func (l *Ledger) Attach(b *bus.Bus) {
	l.subs.Add(b.TrackFinished.Subscribe(func(e bus.TrackFinished) {
		if e.Track.ID == "" {
			return
		}
		if _, err := l.Record(ListenFromEvent(e)); err != nil {
			l.logger.Warn("record listen failed",
				zap.String("track_id", e.Track.ID), zap.Error(err))
		}
	}))
}

// Detach stops recording.
func (l *Ledger) Detach() {
	l.subs.Close()
}

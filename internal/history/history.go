// Package history is the local SQLite store: a ledger of finished listens
// mirroring the server's duration accounting, plus the saved queue, volume
// and Last.fm state.
package history

import (
	"database/sql"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/bus"
	dbutil "github.com/llehouerou/alephplay/internal/db"
)

const (
	appName    = "alephplay"
	dbFileName = "history.db"
)

// Ledger owns the database handle.
type Ledger struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
	subs   bus.Group
}

// DefaultPath returns the XDG data path of the database.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Open opens (creating if needed) the database at path. An empty path
// means DefaultPath.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	db, err := dbutil.Open(path)
	if err != nil {
		return nil, err
	}

	l, err := New(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// New wraps an open database and initializes the schema.
func New(db *sql.DB, logger *zap.Logger) (*Ledger, error) {
	if err := initSchema(db); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{db: db, logger: logger, now: time.Now}, nil
}

// DB returns the underlying handle.
func (l *Ledger) DB() *sql.DB {
	return l.db
}

// Close detaches from the bus and closes the database.
func (l *Ledger) Close() error {
	l.Detach()
	return l.db.Close()
}

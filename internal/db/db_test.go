package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "nested", "dir", "test.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, err := conn.Exec(`CREATE TABLE listens (id INTEGER PRIMARY KEY, track_id TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return conn
}

func countRows(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM listens`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func insert(tx *sql.Tx, ids ...string) error {
	for _, id := range ids {
		if _, err := tx.Exec(`INSERT INTO listens (track_id) VALUES (?)`, id); err != nil {
			return err
		}
	}
	return nil
}

func TestOpen_WAL(t *testing.T) {
	conn := openTestDB(t)

	var mode string
	if err := conn.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestWithTx(t *testing.T) {
	errAbort := errors.New("abort")
	tests := []struct {
		name     string
		fn       func(tx *sql.Tx) error
		wantErr  error
		wantRows int
	}{
		{
			name:     "commit",
			fn:       func(tx *sql.Tx) error { return insert(tx, "t1", "t2", "t3") },
			wantRows: 3,
		},
		{
			name: "rollback",
			fn: func(tx *sql.Tx) error {
				if err := insert(tx, "t1", "t2"); err != nil {
					return err
				}
				return errAbort
			},
			wantErr: errAbort,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := openTestDB(t)
			err := WithTx(context.Background(), conn, tt.fn)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("WithTx() error = %v, want %v", err, tt.wantErr)
			}
			if got := countRows(t, conn); got != tt.wantRows {
				t.Errorf("rows = %d, want %d", got, tt.wantRows)
			}
		})
	}
}

func TestWithTx_CanceledContext(t *testing.T) {
	conn := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WithTx(ctx, conn, func(*sql.Tx) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("WithTx() should fail with a canceled context")
	}
	if called {
		t.Error("fn ran without a transaction")
	}
}

func TestNullable(t *testing.T) {
	if got := String(sql.NullString{String: "x"}); got != "" {
		t.Errorf("String(NULL) = %q", got)
	}
	if got := String(sql.NullString{String: "x", Valid: true}); got != "x" {
		t.Errorf("String() = %q, want x", got)
	}
	if got := Millis(sql.NullInt64{Int64: 1500, Valid: true}); got != 1500*time.Millisecond {
		t.Errorf("Millis() = %v", got)
	}
	if got := Millis(sql.NullInt64{Int64: 1500}); got != 0 {
		t.Errorf("Millis(NULL) = %v", got)
	}
	if got := UnixTime(sql.NullInt64{}); !got.IsZero() {
		t.Errorf("UnixTime(NULL) = %v", got)
	}
	if got := UnixTime(sql.NullInt64{Int64: 60, Valid: true}); got.Unix() != 60 {
		t.Errorf("UnixTime() = %v", got)
	}
}

package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// maxJournalEntries caps the sqlite journal; older entries are pruned.
const maxJournalEntries = 40

// HistoryLog is a durable, append-only journal of recorded snapshots in
// SQLite. It shadows the in-memory undo stack without changing its
// semantics: the stack is authoritative, the journal only enables crash
// recovery when the diagram file was lost or never written.
type HistoryLog struct {
	conn *sql.DB
}

// OpenHistoryLog opens (or creates) the journal database at dbPath.
func OpenHistoryLog(dbPath string) (*HistoryLog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer — limit to a single connection.
	conn.SetMaxOpenConns(1)

	l := &HistoryLog{conn: conn}
	if err := l.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return l, nil
}

// Close closes the journal database.
func (l *HistoryLog) Close() error {
	return l.conn.Close()
}

func (l *HistoryLog) migrate() error {
	_, err := l.conn.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// Append records one snapshot and prunes the journal past its cap.
func (l *HistoryLog) Append(label, snapshotJSON string) error {
	_, err := l.conn.Exec(
		`INSERT INTO snapshots (id, label, snapshot_json, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), label, snapshotJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	l.pruneIfNeeded()
	return nil
}

// Latest returns the newest journaled snapshot JSON, if any.
func (l *HistoryLog) Latest() (string, bool, error) {
	var snapshot string
	err := l.conn.QueryRow(
		`SELECT snapshot_json FROM snapshots ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query latest snapshot: %w", err)
	}
	return snapshot, true, nil
}

// Len returns the number of journaled snapshots.
func (l *HistoryLog) Len() (int, error) {
	var count int
	err := l.conn.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count)
	return count, err
}

// pruneIfNeeded removes the oldest entries once past the cap. Best-effort:
// a failed prune only means a slightly larger journal.
func (l *HistoryLog) pruneIfNeeded() {
	var count int
	if err := l.conn.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil {
		return
	}
	if count <= maxJournalEntries {
		return
	}
	_, _ = l.conn.Exec(
		`DELETE FROM snapshots WHERE id IN (
			SELECT id FROM snapshots ORDER BY created_at ASC, id ASC LIMIT ?
		)`, count-maxJournalEntries,
	)
}

// Package ledger persists the durable record of prior synchronization
// state: one entry per remote record with its content fingerprint, source
// timestamp, local path, and status. The ledger is a single SQLite file,
// fully loaded at run start and written row-at-a-time as records complete,
// which bounds crash loss to the in-flight record.
package ledger

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is the timestamp encoding used in ledger rows.
const timeLayout = time.RFC3339Nano

// Ledger is the sync-state store. It is a single-writer resource per run;
// the engine serializes concurrent runs with a run lock, and the mutex here
// serializes the executor's workers within a run.
type Ledger struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the ledger file at path and applies the schema.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Load reads every entry into memory, keyed by record ID. Called once at
// run start; the diff works against this snapshot.
func (l *Ledger) Load() (map[string]types.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(
		`SELECT record_id, fingerprint, source_timestamp, local_path, status, synced_at FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]types.LedgerEntry)
	for rows.Next() {
		var e types.LedgerEntry
		var srcTS, syncedAt string
		if err := rows.Scan(&e.RecordID, &e.Fingerprint, &srcTS, &e.LocalPath, &e.Status, &syncedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.SourceTimestamp, _ = time.Parse(timeLayout, srcTS)
		e.SyncedAt, _ = time.Parse(timeLayout, syncedAt)
		entries[e.RecordID] = e
	}
	return entries, rows.Err()
}

// Upsert writes one entry, replacing any prior row for the record. Called
// by the executor immediately after each record's write succeeds.
func (l *Ledger) Upsert(e types.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.SyncedAt.IsZero() {
		e.SyncedAt = time.Now().UTC()
	}
	_, err := l.db.Exec(
		`INSERT INTO entries (record_id, fingerprint, source_timestamp, local_path, status, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(record_id) DO UPDATE SET
		   fingerprint = excluded.fingerprint,
		   source_timestamp = excluded.source_timestamp,
		   local_path = excluded.local_path,
		   status = excluded.status,
		   synced_at = excluded.synced_at`,
		e.RecordID, e.Fingerprint, e.SourceTimestamp.UTC().Format(timeLayout),
		e.LocalPath, e.Status, e.SyncedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upsert ledger entry %s: %w", e.RecordID, err)
	}
	return nil
}

// MarkDeleted flips an entry to deleted status after deletion propagation
// confirmed remote absence and the local file was removed. The row is kept
// so a reappearing record is recognized as a create, not an update.
func (l *Ledger) MarkDeleted(recordID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(
		`UPDATE entries SET status = ?, synced_at = ? WHERE record_id = ?`,
		types.StatusDeleted, time.Now().UTC().Format(timeLayout), recordID)
	if err != nil {
		return fmt.Errorf("mark ledger entry %s deleted: %w", recordID, err)
	}
	return nil
}

// RecordRun appends one row to the run audit table.
func (l *Ledger) RecordRun(r *types.RunResult, startedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(
		`INSERT INTO runs (run_id, mode, dry_run, started_at, duration_ms,
		   created, updated, deleted, unchanged, skipped, errored, remote_calls, aborted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Mode, boolInt(r.DryRun), startedAt.UTC().Format(timeLayout),
		r.Duration.Milliseconds(), r.Created, r.Updated, r.Deleted,
		r.Unchanged, r.Skipped, r.Errored, r.RemoteCalls, boolInt(r.Aborted))
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package syncer

import (
	"context"
	"time"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// Source is the slice of the remote adapter the engine consumes. The
// production implementation is *notion.Client; tests use in-memory fakes.
type Source interface {
	// ListRecords fetches one page of records; an empty returned cursor
	// ends the listing.
	ListRecords(ctx context.Context, containerID, cursor string, pageSize int) ([]*types.Record, string, error)

	// GetBody fetches a record's opaque body content.
	GetBody(ctx context.Context, recordID string) (string, error)

	// ResetBudget resets the throttle and call counter at run start.
	ResetBudget()

	// Calls reports remote requests issued since the last reset.
	Calls() int64
}

// Store is the sync-state ledger as the engine sees it: loaded once at run
// start, mutated per completed record.
type Store interface {
	Load() (map[string]types.LedgerEntry, error)
	Upsert(entry types.LedgerEntry) error
	MarkDeleted(recordID string) error
	RecordRun(result *types.RunResult, startedAt time.Time) error
}

// ContentWriter materializes and removes local documents. Reserve seeds
// collision tracking with paths already owned by prior runs, so Write
// never renames over another record's document.
type ContentWriter interface {
	Write(recordID string, fields map[string]any, body string) (string, error)
	Delete(path string) error
	Reserve(recordID, path string)
	Dir() string
}

// BuildHook is invoked once after a successful non-dry run with the
// content directory as its sole input.
type BuildHook func(ctx context.Context, contentDir string) error

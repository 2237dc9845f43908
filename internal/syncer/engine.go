package syncer

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/adalgu/notion-hugo-flow/internal/mapper"
	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// Engine wires the adapter, mapper, ledger, and writer into one run. All
// state is explicit; nothing about a run lives in package variables.
type Engine struct {
	cfg    types.SyncConfig
	source Source
	store  Store
	writer ContentWriter
	hook   BuildHook
	logger *log.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithBuildHook sets the post-run build collaborator.
func WithBuildHook(h BuildHook) EngineOption {
	return func(e *Engine) { e.hook = h }
}

// WithLogger sets the engine logger. Nil keeps the stderr default.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine. The config must already be validated.
func New(cfg types.SyncConfig, source Source, store Store, writer ContentWriter, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:    cfg,
		source: source,
		store:  store,
		writer: writer,
		logger: log.New(os.Stderr, "[sync] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync executes one run to completion and returns its summary. Every run
// returns a result, including runs that abort early; the error is non-nil
// only for failures before any classification could happen.
func (e *Engine) Sync(ctx context.Context) (*types.RunResult, error) {
	started := time.Now()
	result := &types.RunResult{
		RunID:  uuid.NewString(),
		Mode:   e.cfg.Mode,
		DryRun: e.cfg.DryRun,
	}
	finish := func() *types.RunResult {
		result.Duration = time.Since(started)
		result.RemoteCalls = e.source.Calls()
		return result
	}

	if err := e.cfg.Validate(); err != nil {
		return finish(), err
	}

	e.source.ResetBudget()

	entries, err := e.store.Load()
	if err != nil {
		return finish(), fmt.Errorf("load ledger: %w", err)
	}
	for _, entry := range entries {
		if entry.Active() && entry.LocalPath != "" {
			e.writer.Reserve(entry.RecordID, entry.LocalPath)
		}
	}

	records, skipped, err := e.fetchAll(ctx)
	if err != nil {
		result.Aborted = true
		result.AbortReason = err.Error()
		return finish(), err
	}
	result.Skipped = skipped

	plan := Diff(records, entries, DiffOptions{
		Mode:             e.cfg.Mode,
		PropagateDeletes: e.cfg.PropagateDeletes,
	})
	result.Unchanged = plan.Unchanged
	for _, entry := range plan.Retained {
		e.logger.Printf("retained orphan %s (%s): deletion propagation disabled",
			entry.RecordID, entry.LocalPath)
	}

	if e.cfg.DryRun {
		// Report the computed diff; write nothing, mutate nothing.
		result.Created = len(plan.Create)
		result.Updated = len(plan.Update)
		result.Deleted = len(plan.Delete)
		// The update count is an upper bound: a real run still compares
		// fingerprints, which needs body fetches a dry run will not make.
		e.logger.Printf("dry run: %d to create, up to %d to update, %d to delete, %d unchanged",
			result.Created, result.Updated, result.Deleted, result.Unchanged)
		return finish(), nil
	}

	e.execute(ctx, plan, entries, result)

	if !result.Aborted && e.hook != nil {
		if err := e.hook(ctx, e.writer.Dir()); err != nil {
			e.logger.Printf("build hook failed: %v", err)
			result.Errors = append(result.Errors, types.RecordError{
				Op: "build", Message: err.Error(),
			})
		}
	}

	finish()
	if err := e.store.RecordRun(result, started); err != nil {
		e.logger.Printf("record run audit: %v", err)
	}
	return result, nil
}

// fetchAll walks the container listing to the end, dropping archived
// records and records that opted out of rendering. The skipped count
// covers the opted-out records.
func (e *Engine) fetchAll(ctx context.Context) ([]*types.Record, int, error) {
	var (
		records []*types.Record
		skipped int
		cursor  string
	)
	for {
		page, next, err := e.source.ListRecords(ctx, e.cfg.ContainerRef, cursor, e.cfg.PageSize)
		if err != nil {
			return nil, skipped, err
		}
		for _, rec := range page {
			if rec.Archived {
				continue
			}
			if mapper.ShouldSkip(rec) {
				skipped++
				continue
			}
			records = append(records, rec)
		}
		if next == "" {
			return records, skipped, nil
		}
		cursor = next
	}
}

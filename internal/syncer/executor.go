package syncer

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/adalgu/notion-hugo-flow/internal/mapper"
	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// execState carries the shared mutable state of one executing plan. The
// result mutex serializes counter and error-list updates from workers; the
// ledger serializes itself.
type execState struct {
	entries map[string]types.LedgerEntry
	result  *types.RunResult
	mu      sync.Mutex
	stopped atomic.Bool
}

// execute drives the plan: deletions, then updates, then creations, with a
// barrier between classes so an effectively renamed record never collides
// with its outgoing file. Within a class, records run on a bounded pool.
func (e *Engine) execute(ctx context.Context, plan *Plan, entries map[string]types.LedgerEntry, result *types.RunResult) {
	st := &execState{entries: entries, result: result}

	e.runBatch(ctx, st, len(plan.Delete), func(i int) {
		e.processDelete(st, plan.Delete[i])
	})
	e.runBatch(ctx, st, len(plan.Update), func(i int) {
		e.processUpsert(ctx, st, plan.Update[i], types.OpUpdate)
	})
	e.runBatch(ctx, st, len(plan.Create), func(i int) {
		e.processUpsert(ctx, st, plan.Create[i], types.OpCreate)
	})
}

// runBatch runs fn over n items on the worker pool and waits for the
// class to drain. Once a fatal error or cancellation sets the stop flag,
// no further records are scheduled; in-flight records finish so the ledger
// only ever reflects fully completed work.
func (e *Engine) runBatch(ctx context.Context, st *execState, n int, fn func(i int)) {
	if n == 0 || st.stopped.Load() {
		return
	}
	if err := ctx.Err(); err != nil {
		st.abort("cancelled: " + err.Error())
		return
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i := 0; i < n; i++ {
		if st.stopped.Load() {
			break
		}
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// processDelete removes one orphaned document and marks its ledger entry.
// Deletion is retry-safe: an already-absent file is a no-op.
func (e *Engine) processDelete(st *execState, entry types.LedgerEntry) {
	if err := e.writer.Delete(entry.LocalPath); err != nil {
		st.recordError(entry.RecordID, types.OpDelete, err)
		return
	}
	if err := e.store.MarkDeleted(entry.RecordID); err != nil {
		st.recordError(entry.RecordID, types.OpDelete, err)
		return
	}
	st.mu.Lock()
	st.result.Deleted++
	st.mu.Unlock()
	e.logger.Printf("deleted %s (%s)", entry.RecordID, entry.LocalPath)
}

// processUpsert maps one record, compares fingerprints, and writes. The
// ordering within a record is fixed: mapping completes before the
// fingerprint comparison, which completes before the write; the ledger is
// updated only after the write succeeded.
func (e *Engine) processUpsert(ctx context.Context, st *execState, rec *types.Record, op string) {
	body, err := e.source.GetBody(ctx, rec.ID)
	if err != nil {
		st.recordError(rec.ID, op, err)
		if types.IsFatal(err) {
			st.abort(err.Error())
		}
		return
	}

	fields, warnings, err := mapper.Map(rec, e.cfg.Rules)
	if err != nil {
		// Mapping failures are isolated to this record.
		st.recordError(rec.ID, op, err)
		return
	}
	for _, w := range warnings {
		e.logger.Printf("warning: %s", w)
	}

	fp := mapper.Fingerprint(fields, body)
	prior, hadPrior := st.entries[rec.ID]

	// Full mode overwrites unconditionally; incremental mode trusts the
	// fingerprint over the timestamp pre-filter that scheduled us.
	if e.cfg.Mode != types.ModeFull && hadPrior && prior.Active() && prior.Fingerprint == fp {
		// Metadata-only edit: refresh the source timestamp so the
		// pre-filter skips this record next run, but write no file.
		if err := e.store.Upsert(types.LedgerEntry{
			RecordID:        rec.ID,
			Fingerprint:     fp,
			SourceTimestamp: rec.LastEditedAt,
			LocalPath:       prior.LocalPath,
			Status:          types.StatusActive,
		}); err != nil {
			st.recordError(rec.ID, op, err)
			return
		}
		st.mu.Lock()
		st.result.Unchanged++
		st.mu.Unlock()
		return
	}

	path, err := e.writer.Write(rec.ID, fields, body)
	if err != nil {
		st.recordError(rec.ID, op, err)
		if types.IsFatal(err) {
			st.abort(err.Error())
		}
		return
	}

	if err := e.store.Upsert(types.LedgerEntry{
		RecordID:        rec.ID,
		Fingerprint:     fp,
		SourceTimestamp: rec.LastEditedAt,
		LocalPath:       path,
		Status:          types.StatusActive,
	}); err != nil {
		st.recordError(rec.ID, op, err)
		return
	}

	// A title edit under title-based filename formats moves the document.
	// The ledger already points at the new path; drop the old file so no
	// stale copy outlives its entry.
	if hadPrior && prior.Active() && prior.LocalPath != "" && prior.LocalPath != path {
		if derr := e.writer.Delete(prior.LocalPath); derr != nil {
			e.logger.Printf("stale document %s not removed: %v", prior.LocalPath, derr)
		}
	}

	st.mu.Lock()
	if op == types.OpCreate {
		st.result.Created++
	} else {
		st.result.Updated++
	}
	st.mu.Unlock()
}

// recordError captures one per-record failure without stopping the batch.
func (st *execState) recordError(recordID, op string, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.result.Errored++
	st.result.Errors = append(st.result.Errors, types.RecordError{
		RecordID: recordID,
		Op:       op,
		Message:  err.Error(),
	})
}

// abort stops scheduling further records. In-flight records finish.
func (st *execState) abort(reason string) {
	if st.stopped.CompareAndSwap(false, true) {
		st.mu.Lock()
		st.result.Aborted = true
		st.result.AbortReason = reason
		st.mu.Unlock()
	}
}

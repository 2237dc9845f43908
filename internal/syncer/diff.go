package syncer

import (
	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// Plan is the classified outcome of one diff: what to delete, update, and
// create, how many records are already converged, and which orphans are
// retained because deletion propagation is off.
type Plan struct {
	Create    []*types.Record
	Update    []*types.Record
	Delete    []types.LedgerEntry
	Unchanged int
	Retained  []types.LedgerEntry
}

// DiffOptions select the classification mode.
type DiffOptions struct {
	Mode             string // types.ModeIncremental or types.ModeFull
	PropagateDeletes bool
}

// Diff classifies fetched records against the loaded ledger snapshot.
//
// Incremental mode uses the source timestamp as a cheap pre-filter: a
// record whose last-edit time matches its ledger entry is unchanged without
// remapping. Records that pass the pre-filter become update candidates; the
// executor still compares fingerprints before writing, so correctness never
// rests on the timestamp alone.
//
// Full mode bypasses the comparison entirely and treats every fetched
// record as an idempotent overwrite, recovering from a corrupted or stale
// ledger.
func Diff(records []*types.Record, entries map[string]types.LedgerEntry, opts DiffOptions) *Plan {
	plan := &Plan{}
	fetched := make(map[string]bool, len(records))

	for _, rec := range records {
		fetched[rec.ID] = true

		if opts.Mode == types.ModeFull {
			plan.Update = append(plan.Update, rec)
			continue
		}

		entry, ok := entries[rec.ID]
		if !ok || !entry.Active() {
			plan.Create = append(plan.Create, rec)
			continue
		}
		if !rec.LastEditedAt.IsZero() && rec.LastEditedAt.Equal(entry.SourceTimestamp) {
			plan.Unchanged++
			continue
		}
		plan.Update = append(plan.Update, rec)
	}

	// Entries present in the ledger but absent from the fetch are orphans:
	// deleted remotely, or retained when propagation is off.
	for _, entry := range entries {
		if !entry.Active() || fetched[entry.RecordID] {
			continue
		}
		if opts.PropagateDeletes {
			plan.Delete = append(plan.Delete, entry)
		} else {
			plan.Retained = append(plan.Retained, entry)
		}
	}

	return plan
}

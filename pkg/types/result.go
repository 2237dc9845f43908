package types

import "time"

// Sync operations as recorded in run results and errors.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// RecordError is one per-record failure surfaced in the run result. The
// batch continues past these; only fatal-class errors abort a run.
type RecordError struct {
	RecordID string `json:"record_id"`
	Op       string `json:"op"`
	Message  string `json:"message"`
}

// RunResult summarizes one sync run. Every run produces a result, including
// runs that abort early and dry runs.
type RunResult struct {
	RunID       string        `json:"run_id"`
	Mode        string        `json:"mode"`
	DryRun      bool          `json:"dry_run"`
	Created     int           `json:"created"`
	Updated     int           `json:"updated"`
	Deleted     int           `json:"deleted"`
	Unchanged   int           `json:"unchanged"`
	Skipped     int           `json:"skipped"`
	Errored     int           `json:"errored"`
	Errors      []RecordError `json:"errors,omitempty"`
	RemoteCalls int64         `json:"remote_calls"`
	Duration    time.Duration `json:"duration"`
	Aborted     bool          `json:"aborted"`
	AbortReason string        `json:"abort_reason,omitempty"`
}

// Total returns the number of records the run classified.
func (r *RunResult) Total() int {
	return r.Created + r.Updated + r.Deleted + r.Unchanged + r.Skipped + r.Errored
}

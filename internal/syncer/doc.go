// Package syncer is the incremental synchronization engine. One run pulls
// the remote container's records, classifies them against the durable
// ledger, and drives the local writer under a bounded worker pool:
//
//	resolve preconditions -> fetch records -> diff -> delete, update, create
//
// Classes execute in that order with a barrier between them, so a record
// that is effectively renamed never collides with its old name. Per-record
// failures are recorded and never abort the batch; fatal-class errors
// (revoked credential, container deleted, exhausted storage) stop the run.
// The ledger is updated immediately after each record completes, bounding
// crash loss to the in-flight record, and re-running a plan after a partial
// failure converges to the same end state as an uninterrupted run.
package syncer

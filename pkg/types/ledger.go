package types

import "time"

// Ledger entry statuses.
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// LedgerEntry is the durable record of one previously synchronized item.
// At most one entry exists per record ID.
type LedgerEntry struct {
	RecordID        string    // Remote record identifier.
	Fingerprint     string    // SHA-256 of the mapped output, hex encoded.
	SourceTimestamp time.Time // Remote last-edit timestamp at sync time.
	LocalPath       string    // Path the document was written to.
	Status          string    // StatusActive or StatusDeleted.
	SyncedAt        time.Time // When the entry was last written.
}

// Active reports whether the entry refers to a live local document.
func (e LedgerEntry) Active() bool { return e.Status == StatusActive }

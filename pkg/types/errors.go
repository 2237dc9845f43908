package types

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration and rule validation errors.
var (
	ErrContainerRefEmpty     = errors.New("container reference must not be empty")
	ErrModeUnknown           = errors.New("unknown sync mode")
	ErrConcurrencyInvalid    = errors.New("concurrency must be positive")
	ErrPageSizeInvalid       = errors.New("page size must be between 1 and 100")
	ErrRuleTargetEmpty       = errors.New("mapping rule target must not be empty")
	ErrRuleSourcesEmpty      = errors.New("mapping rule needs at least one source key")
	ErrRuleTransformUnknown  = errors.New("unknown mapping transform")
	ErrFilenameFormatUnknown = errors.New("unknown filename format")
)

// RemoteError is a failure from the remote store. Transient errors (network,
// rate limiting, server-side) are retried by the adapter; permanent errors
// (auth, not-found) surface immediately and abort the run.
type RemoteError struct {
	Status    int    // HTTP status, 0 for network-level failures.
	Code      string // Remote error code when the response carried one.
	Message   string
	Transient bool
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote error %d: %s", e.Status, e.Message)
}

// MappingError is an unmappable required field. It is isolated to one
// record and never aborts the batch.
type MappingError struct {
	RecordID  string
	TargetKey string
	Sources   []string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("record %s: required field %q has no value in sources [%s]",
		e.RecordID, e.TargetKey, strings.Join(e.Sources, ", "))
}

// SchemaError means the container is missing the shape the sync needs. It
// blocks the run until the resolver repairs the schema.
type SchemaError struct {
	ContainerID   string
	MissingFields []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("container %s: schema missing required fields [%s]",
		e.ContainerID, strings.Join(e.MissingFields, ", "))
}

// CapabilityError names the exact remote capability the credential lacks.
type CapabilityError struct {
	Capability string // "read", "write", or "create".
	Detail     string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("missing %s capability: %s", e.Capability, e.Detail)
}

// WriteError is a filesystem failure. Non-fatal write errors are isolated
// to one record; fatal ones (exhausted storage) abort the run.
type WriteError struct {
	Path  string
	Fatal bool
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable remote failure.
func IsTransient(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Transient
}

// IsFatal reports whether err must abort the run rather than being isolated
// to a single record: permanent remote failures and fatal write failures.
func IsFatal(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return !re.Transient
	}
	var we *WriteError
	if errors.As(err, &we) {
		return we.Fatal
	}
	return false
}

package types

// Sync modes.
const (
	ModeIncremental = "incremental"
	ModeFull        = "full"
)

// Filename formats for the local writer.
const (
	FilenameUUID      = "uuid"
	FilenameTitle     = "title"
	FilenameDateTitle = "date-title"
)

// validModes is the set of recognized sync modes.
var validModes = map[string]bool{
	ModeIncremental: true,
	ModeFull:        true,
}

// validFilenameFormats is the set of recognized filename formats.
var validFilenameFormats = map[string]bool{
	FilenameUUID:      true,
	FilenameTitle:     true,
	FilenameDateTitle: true,
}

// SyncConfig holds everything one run needs. It is passed explicitly through
// the engine; there is no package-level sync state.
type SyncConfig struct {
	ContainerRef string `json:"container_ref" yaml:"container_ref"`
	Mode         string `json:"mode" yaml:"mode"`
	DryRun       bool   `json:"dry_run" yaml:"dry_run"`

	// PropagateDeletes enables deleting local documents whose records have
	// vanished from the remote fetch. Off by default: retained documents are
	// reported but never removed.
	PropagateDeletes bool `json:"propagate_deletes" yaml:"propagate_deletes"`

	Concurrency       int     `json:"concurrency" yaml:"concurrency"`
	PageSize          int     `json:"page_size" yaml:"page_size"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	ContentDir     string `json:"content_dir" yaml:"content_dir"`
	Extension      string `json:"extension" yaml:"extension"`
	FilenameFormat string `json:"filename_format" yaml:"filename_format"`
	DateLayout     string `json:"date_layout" yaml:"date_layout"`

	// LargeContainerThreshold is the estimated record count above which the
	// resolver recommends sampling instead of a full fetch.
	LargeContainerThreshold int `json:"large_container_threshold" yaml:"large_container_threshold"`

	Rules []MappingRule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// DefaultSyncConfig returns a SyncConfig with the conservative defaults:
// incremental mode, no deletion propagation, the stock mapping rules, and a
// request budget below the remote rate limit of 3 req/s.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Mode:                    ModeIncremental,
		Concurrency:             4,
		PageSize:                100,
		RequestsPerSecond:       2.5,
		ContentDir:              "content/posts",
		Extension:               ".md",
		FilenameFormat:          FilenameUUID,
		DateLayout:              "2006-01-02",
		LargeContainerThreshold: 1000,
		Rules:                   DefaultRules(),
	}
}

// Validate checks that the config is well-formed, returning a sentinel
// error from this package on failure.
func (c SyncConfig) Validate() error {
	if c.ContainerRef == "" {
		return ErrContainerRefEmpty
	}
	if !validModes[c.Mode] {
		return ErrModeUnknown
	}
	if c.Concurrency <= 0 {
		return ErrConcurrencyInvalid
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return ErrPageSizeInvalid
	}
	if !validFilenameFormats[c.FilenameFormat] {
		return ErrFilenameFormatUnknown
	}
	for _, r := range c.Rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

package types

import "time"

// Property value kinds. Every remote property is resolved to exactly one of
// these at fetch time; downstream code never re-inspects raw payloads.
const (
	KindText        = "text"
	KindDate        = "date"
	KindBoolean     = "boolean"
	KindSet         = "set"
	KindNumber      = "number"
	KindUnsupported = "unsupported"
)

// validKinds is the set of recognized property value kinds.
var validKinds = map[string]bool{
	KindText:        true,
	KindDate:        true,
	KindBoolean:     true,
	KindSet:         true,
	KindNumber:      true,
	KindUnsupported: true,
}

// IsValidKind reports whether kind is a recognized property value kind.
func IsValidKind(kind string) bool {
	return validKinds[kind]
}

// PropertyValue is the tagged variant a remote property resolves to.
// Exactly one payload field is meaningful, selected by Kind.
type PropertyValue struct {
	Kind   string   // One of the Kind constants.
	Text   string   // KindText.
	Date   string   // KindDate; timezone-qualified string, passed through verbatim.
	Bool   bool     // KindBoolean.
	Set    []string // KindSet; preserves the source's declared option order.
	Number float64  // KindNumber.
}

// IsEmpty reports whether the value counts as absent for fallback
// resolution: empty text, empty date, empty set. Booleans and numbers are
// never empty (false and zero are meaningful values).
func (v PropertyValue) IsEmpty() bool {
	switch v.Kind {
	case KindText:
		return v.Text == ""
	case KindDate:
		return v.Date == ""
	case KindSet:
		return len(v.Set) == 0
	case KindBoolean, KindNumber:
		return false
	default:
		return true
	}
}

// TextValue returns a PropertyValue of KindText.
func TextValue(s string) PropertyValue { return PropertyValue{Kind: KindText, Text: s} }

// DateValue returns a PropertyValue of KindDate.
func DateValue(s string) PropertyValue { return PropertyValue{Kind: KindDate, Date: s} }

// BoolValue returns a PropertyValue of KindBoolean.
func BoolValue(b bool) PropertyValue { return PropertyValue{Kind: KindBoolean, Bool: b} }

// SetValue returns a PropertyValue of KindSet.
func SetValue(items ...string) PropertyValue { return PropertyValue{Kind: KindSet, Set: items} }

// NumberValue returns a PropertyValue of KindNumber.
func NumberValue(n float64) PropertyValue { return PropertyValue{Kind: KindNumber, Number: n} }

// Record is a single remote content item: an opaque stable ID, a bag of
// typed properties, and the remote system timestamps. Records are fetched
// fresh every run and never cached across runs.
type Record struct {
	ID           string                   // Stable opaque identifier.
	ContainerID  string                   // Owning container.
	Properties   map[string]PropertyValue // Property bag keyed by remote name.
	CreatedAt    time.Time                // Remote creation timestamp.
	LastEditedAt time.Time                // Remote last-edit timestamp.
	Archived     bool                     // Archived records are excluded from sync.

	// Verbatim remote timestamp strings. When a system timestamp serves as
	// the fallback for an explicit date field it is passed through as-is,
	// never re-rendered from the parsed form.
	CreatedRaw    string
	LastEditedRaw string
}

// Property returns the value for name using case-insensitive matching,
// tolerating naming drift in the remote schema. The second return reports
// whether any key matched.
func (r *Record) Property(name string) (PropertyValue, bool) {
	if v, ok := r.Properties[name]; ok {
		return v, true
	}
	for k, v := range r.Properties {
		if equalFold(k, name) {
			return v, true
		}
	}
	return PropertyValue{}, false
}

// equalFold is an ASCII-only case-insensitive comparison. Remote property
// names are ASCII identifiers in practice; full unicode folding is not
// needed for key matching.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

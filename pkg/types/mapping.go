package types

// Mapping transforms. Each rule applies exactly one transform to the first
// present, non-empty source value in its fallback chain.
const (
	TransformDirect          = "direct"
	TransformInverseBoolean  = "inverse-boolean"
	TransformDatePassthrough = "date-passthrough"
	TransformSetJoin         = "set-join"
)

// validTransforms is the set of recognized transform names.
var validTransforms = map[string]bool{
	TransformDirect:          true,
	TransformInverseBoolean:  true,
	TransformDatePassthrough: true,
	TransformSetJoin:         true,
}

// System source keys resolved from record metadata rather than the property
// bag. They participate in fallback chains like ordinary keys; their values
// are passed through verbatim, never reinterpreted.
const (
	SourceRecordID       = "record_id"
	SourceCreatedTime    = "created_time"
	SourceLastEditedTime = "last_edited_time"
)

// MappingRule declares how one local header field is derived from the
// remote property bag.
type MappingRule struct {
	TargetKey  string   `yaml:"target"`             // Local header field name.
	SourceKeys []string `yaml:"sources"`            // Fallback chain, first-declared-wins.
	Transform  string   `yaml:"transform"`          // One of the Transform constants; empty means direct.
	Required   bool     `yaml:"required,omitempty"` // Missing value is a per-record mapping error.
	Default    string   `yaml:"default,omitempty"`  // Literal fallback when no source is present (optional rules only).
}

// Validate checks that the rule is well-formed.
func (r MappingRule) Validate() error {
	if r.TargetKey == "" {
		return ErrRuleTargetEmpty
	}
	if len(r.SourceKeys) == 0 {
		return ErrRuleSourcesEmpty
	}
	if r.Transform != "" && !validTransforms[r.Transform] {
		return ErrRuleTransformUnknown
	}
	return nil
}

// DefaultRules returns the stock mapping from the remote blog schema to
// Hugo front matter: publication flag inverted into draft, dates falling
// back to the remote system timestamps, summary and keywords with their
// conventional fallbacks.
func DefaultRules() []MappingRule {
	return []MappingRule{
		{TargetKey: "title", SourceKeys: []string{"title", "Name"}, Required: true, Default: "Untitled"},
		{TargetKey: "date", SourceKeys: []string{"date", SourceCreatedTime}, Transform: TransformDatePassthrough, Required: true},
		{TargetKey: "lastmod", SourceKeys: []string{"lastModified", SourceLastEditedTime}, Transform: TransformDatePassthrough},
		{TargetKey: "draft", SourceKeys: []string{"isPublished"}, Transform: TransformInverseBoolean},
		{TargetKey: "description", SourceKeys: []string{"description"}},
		{TargetKey: "summary", SourceKeys: []string{"summary", "description"}},
		{TargetKey: "slug", SourceKeys: []string{"slug"}},
		{TargetKey: "author", SourceKeys: []string{"author"}},
		{TargetKey: "weight", SourceKeys: []string{"weight"}},
		{TargetKey: "categories", SourceKeys: []string{"categories"}, Transform: TransformSetJoin},
		{TargetKey: "tags", SourceKeys: []string{"tags"}, Transform: TransformSetJoin},
		{TargetKey: "keywords", SourceKeys: []string{"keywords", "tags"}, Transform: TransformSetJoin},
		{TargetKey: "expiryDate", SourceKeys: []string{"expiryDate"}, Transform: TransformDatePassthrough},
		{TargetKey: "notion_id", SourceKeys: []string{SourceRecordID}, Required: true},
	}
}

// MergeRules overlays user rules onto base: a user rule replaces the base
// rule with the same target key, otherwise it is appended in declared order.
func MergeRules(base, user []MappingRule) []MappingRule {
	if len(user) == 0 {
		return base
	}
	merged := make([]MappingRule, 0, len(base)+len(user))
	replaced := make(map[string]MappingRule, len(user))
	for _, r := range user {
		replaced[r.TargetKey] = r
	}
	seen := make(map[string]bool, len(base))
	for _, r := range base {
		if u, ok := replaced[r.TargetKey]; ok {
			merged = append(merged, u)
		} else {
			merged = append(merged, r)
		}
		seen[r.TargetKey] = true
	}
	for _, r := range user {
		if !seen[r.TargetKey] {
			merged = append(merged, r)
		}
	}
	return merged
}

package types

import (
	"errors"
	"testing"
)

func TestSyncConfigValidate(t *testing.T) {
	valid := DefaultSyncConfig()
	valid.ContainerRef = "db-123"

	tests := []struct {
		name    string
		mutate  func(*SyncConfig)
		wantErr error
	}{
		{
			name:    "default config with a container ref is valid",
			mutate:  func(c *SyncConfig) {},
			wantErr: nil,
		},
		{
			name:    "empty container ref",
			mutate:  func(c *SyncConfig) { c.ContainerRef = "" },
			wantErr: ErrContainerRefEmpty,
		},
		{
			name:    "unknown mode",
			mutate:  func(c *SyncConfig) { c.Mode = "streaming" },
			wantErr: ErrModeUnknown,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *SyncConfig) { c.Concurrency = 0 },
			wantErr: ErrConcurrencyInvalid,
		},
		{
			name:    "page size above remote maximum",
			mutate:  func(c *SyncConfig) { c.PageSize = 250 },
			wantErr: ErrPageSizeInvalid,
		},
		{
			name:    "unknown filename format",
			mutate:  func(c *SyncConfig) { c.FilenameFormat = "hash" },
			wantErr: ErrFilenameFormatUnknown,
		},
		{
			name: "rule without sources",
			mutate: func(c *SyncConfig) {
				c.Rules = append(c.Rules, MappingRule{TargetKey: "broken"})
			},
			wantErr: ErrRuleSourcesEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			c.Rules = append([]MappingRule(nil), valid.Rules...)
			tt.mutate(&c)
			err := c.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMappingRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    MappingRule
		wantErr error
	}{
		{"valid direct", MappingRule{TargetKey: "title", SourceKeys: []string{"title"}}, nil},
		{"valid transform", MappingRule{TargetKey: "draft", SourceKeys: []string{"isPublished"}, Transform: TransformInverseBoolean}, nil},
		{"empty target", MappingRule{SourceKeys: []string{"x"}}, ErrRuleTargetEmpty},
		{"no sources", MappingRule{TargetKey: "x"}, ErrRuleSourcesEmpty},
		{"bad transform", MappingRule{TargetKey: "x", SourceKeys: []string{"y"}, Transform: "uppercase"}, ErrRuleTransformUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.rule.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMergeRules(t *testing.T) {
	base := []MappingRule{
		{TargetKey: "title", SourceKeys: []string{"title"}},
		{TargetKey: "draft", SourceKeys: []string{"isPublished"}, Transform: TransformInverseBoolean},
	}
	user := []MappingRule{
		{TargetKey: "draft", SourceKeys: []string{"published"}, Transform: TransformInverseBoolean},
		{TargetKey: "series", SourceKeys: []string{"series"}},
	}

	merged := MergeRules(base, user)
	if len(merged) != 3 {
		t.Fatalf("len(merged) = %d, want 3", len(merged))
	}
	if merged[0].TargetKey != "title" {
		t.Errorf("merged[0] = %q, want title", merged[0].TargetKey)
	}
	if merged[1].SourceKeys[0] != "published" {
		t.Errorf("user rule did not replace base rule: sources = %v", merged[1].SourceKeys)
	}
	if merged[2].TargetKey != "series" {
		t.Errorf("merged[2] = %q, want series", merged[2].TargetKey)
	}

	// Nil user rules return the base unchanged.
	same := MergeRules(base, nil)
	if len(same) != len(base) {
		t.Errorf("MergeRules(base, nil) changed length: %d", len(same))
	}
}

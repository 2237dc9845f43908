package mapper

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

func testRecord() *types.Record {
	return &types.Record{
		ID:            "rec-1",
		CreatedAt:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		LastEditedAt:  time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
		CreatedRaw:    "2024-03-01T09:00:00.000Z",
		LastEditedRaw: "2024-03-02T09:00:00.000Z",
		Properties: map[string]types.PropertyValue{
			"title":       types.TextValue("Hello World"),
			"isPublished": types.BoolValue(true),
			"tags":        types.SetValue("go", "sync", "blog"),
		},
	}
}

func TestMapFallbackChain(t *testing.T) {
	rules := []types.MappingRule{
		{TargetKey: "summary", SourceKeys: []string{"description", "summary_fallback"}},
	}
	rec := testRecord()
	rec.Properties["summary_fallback"] = types.TextValue("x")

	fields, _, err := Map(rec, rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if fields["summary"] != "x" {
		t.Errorf("summary = %v, want %q", fields["summary"], "x")
	}

	// First-declared-wins when both sources are present.
	rec.Properties["description"] = types.TextValue("primary")
	fields, _, err = Map(rec, rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if fields["summary"] != "primary" {
		t.Errorf("summary = %v, want %q", fields["summary"], "primary")
	}
}

func TestMapInverseBoolean(t *testing.T) {
	rules := []types.MappingRule{
		{TargetKey: "draft", SourceKeys: []string{"isPublished"}, Transform: types.TransformInverseBoolean},
	}

	rec := testRecord()
	fields, _, err := Map(rec, rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if fields["draft"] != false {
		t.Errorf("isPublished=true: draft = %v, want false", fields["draft"])
	}

	rec.Properties["isPublished"] = types.BoolValue(false)
	fields, _, err = Map(rec, rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if fields["draft"] != true {
		t.Errorf("isPublished=false: draft = %v, want true", fields["draft"])
	}
}

func TestMapSetJoinPreservesOrder(t *testing.T) {
	rules := []types.MappingRule{
		{TargetKey: "tags", SourceKeys: []string{"tags"}, Transform: types.TransformSetJoin},
	}
	fields, _, err := Map(testRecord(), rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	// Declared option order, not lexical.
	want := []string{"go", "sync", "blog"}
	if !reflect.DeepEqual(fields["tags"], want) {
		t.Errorf("tags = %v, want %v", fields["tags"], want)
	}
}

func TestMapRequiredMissing(t *testing.T) {
	rules := []types.MappingRule{
		{TargetKey: "title", SourceKeys: []string{"headline"}, Required: true},
	}
	_, _, err := Map(testRecord(), rules)
	var me *types.MappingError
	if !errors.As(err, &me) {
		t.Fatalf("Map error = %v, want *types.MappingError", err)
	}
	if me.TargetKey != "title" || me.RecordID != "rec-1" {
		t.Errorf("MappingError = %+v", me)
	}
}

func TestMapOptionalMissingOmitted(t *testing.T) {
	rules := []types.MappingRule{
		{TargetKey: "series", SourceKeys: []string{"series"}},
	}
	fields, _, err := Map(testRecord(), rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if _, ok := fields["series"]; ok {
		t.Error("optional missing field should be omitted, got a value")
	}
}

func TestMapSystemTimestampPassthrough(t *testing.T) {
	rules := []types.MappingRule{
		{TargetKey: "date", SourceKeys: []string{"date", types.SourceCreatedTime}, Transform: types.TransformDatePassthrough, Required: true},
	}
	// No explicit date property: the system creation timestamp is used
	// verbatim, fractional seconds and all.
	fields, _, err := Map(testRecord(), rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if fields["date"] != "2024-03-01T09:00:00.000Z" {
		t.Errorf("date = %v, want verbatim created timestamp", fields["date"])
	}
}

func TestMapDateNormalization(t *testing.T) {
	rules := []types.MappingRule{
		{TargetKey: "date", SourceKeys: []string{"date"}, Transform: types.TransformDatePassthrough},
	}
	tests := []struct {
		raw  string
		want string
	}{
		{"2024-05-10", "2024-05-10T00:00:00Z"},
		{"2024-05-10T08:30:00", "2024-05-10T08:30:00Z"},
		{"2024-05-10T08:30:00+09:00", "2024-05-10T08:30:00+09:00"},
	}
	for _, tt := range tests {
		rec := testRecord()
		rec.Properties["date"] = types.DateValue(tt.raw)
		fields, _, err := Map(rec, rules)
		if err != nil {
			t.Fatalf("Map(%q) failed: %v", tt.raw, err)
		}
		if fields["date"] != tt.want {
			t.Errorf("date %q = %v, want %q", tt.raw, fields["date"], tt.want)
		}
	}
}

func TestMapCaseInsensitiveSources(t *testing.T) {
	rules := []types.MappingRule{
		{TargetKey: "draft", SourceKeys: []string{"ispublished"}, Transform: types.TransformInverseBoolean},
	}
	fields, _, err := Map(testRecord(), rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if fields["draft"] != false {
		t.Errorf("draft = %v, want false via case-insensitive match", fields["draft"])
	}
}

func TestMapTypeMismatchWarns(t *testing.T) {
	rules := []types.MappingRule{
		{TargetKey: "draft", SourceKeys: []string{"title"}, Transform: types.TransformInverseBoolean},
	}
	fields, warnings, err := Map(testRecord(), rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if _, ok := fields["draft"]; ok {
		t.Error("mismatched optional field should be omitted")
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", warnings)
	}
}

func TestMapPurity(t *testing.T) {
	rules := types.DefaultRules()
	rec := testRecord()

	a, _, err := Map(rec, rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	b, _, err := Map(rec, rules)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("mapping the same record twice produced different fields")
	}
	if Fingerprint(a, "body") != Fingerprint(b, "body") {
		t.Error("fingerprints differ for identical mapped output")
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	fields := map[string]any{"title": "A", "draft": false}
	base := Fingerprint(fields, "body")

	changed := map[string]any{"title": "B", "draft": false}
	if Fingerprint(changed, "body") == base {
		t.Error("field change did not change the fingerprint")
	}
	if Fingerprint(fields, "other body") == base {
		t.Error("body change did not change the fingerprint")
	}
	if Fingerprint(fields, "body") != base {
		t.Error("identical input produced a different fingerprint")
	}
}

func TestShouldSkip(t *testing.T) {
	rec := testRecord()
	if ShouldSkip(rec) {
		t.Error("record without skip flags should not be skipped")
	}
	rec.Properties["SkipRendering"] = types.BoolValue(true)
	if !ShouldSkip(rec) {
		t.Error("truthy skipRendering should skip, case-insensitively")
	}

	legacy := testRecord()
	legacy.Properties["doNotRendering"] = types.BoolValue(true)
	if !ShouldSkip(legacy) {
		t.Error("legacy doNotRendering should skip")
	}
}

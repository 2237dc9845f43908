// Package mapper transforms a remote record's property bag into the local
// document's header fields. Mapping is a pure function of the record and the
// declared rules, which keeps fingerprints deterministic and the package
// testable without I/O.
package mapper

import (
	"fmt"
	"math"
	"time"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// Map applies rules to record and returns the header fields keyed by target
// key. Warnings report non-fatal oddities (type mismatches, unsupported
// property kinds). A missing required field returns a *types.MappingError;
// the caller isolates it to this record.
func Map(record *types.Record, rules []types.MappingRule) (map[string]any, []string, error) {
	fields := make(map[string]any, len(rules))
	var warnings []string

	for _, rule := range rules {
		value, sourceKey, ok := resolve(record, rule.SourceKeys)
		if !ok {
			if rule.Default != "" {
				fields[rule.TargetKey] = rule.Default
				continue
			}
			if rule.Required {
				return nil, warnings, &types.MappingError{
					RecordID:  record.ID,
					TargetKey: rule.TargetKey,
					Sources:   rule.SourceKeys,
				}
			}
			continue
		}

		out, warn := applyTransform(rule, value, sourceKey)
		if warn != "" {
			warnings = append(warnings, fmt.Sprintf("record %s: %s", record.ID, warn))
		}
		if out == nil {
			if rule.Required {
				return nil, warnings, &types.MappingError{
					RecordID:  record.ID,
					TargetKey: rule.TargetKey,
					Sources:   rule.SourceKeys,
				}
			}
			continue
		}
		fields[rule.TargetKey] = out
	}

	return fields, warnings, nil
}

// resolve walks the fallback chain in declared order and returns the first
// present, non-empty value. System source keys read record metadata; all
// other keys match the property bag case-insensitively.
func resolve(record *types.Record, sourceKeys []string) (types.PropertyValue, string, bool) {
	for _, key := range sourceKeys {
		switch key {
		case types.SourceRecordID:
			return types.TextValue(record.ID), key, true
		case types.SourceCreatedTime:
			if record.CreatedRaw != "" {
				return types.DateValue(record.CreatedRaw), key, true
			}
		case types.SourceLastEditedTime:
			if record.LastEditedRaw != "" {
				return types.DateValue(record.LastEditedRaw), key, true
			}
		default:
			if v, ok := record.Property(key); ok && !v.IsEmpty() && v.Kind != types.KindUnsupported {
				return v, key, true
			}
		}
	}
	return types.PropertyValue{}, "", false
}

// applyTransform converts a resolved property value into the field value.
// A nil return with a warning means the value could not be used.
func applyTransform(rule types.MappingRule, v types.PropertyValue, sourceKey string) (any, string) {
	transform := rule.Transform
	if transform == "" {
		transform = types.TransformDirect
	}

	switch transform {
	case types.TransformDirect:
		return directValue(v), ""

	case types.TransformInverseBoolean:
		if v.Kind != types.KindBoolean {
			return nil, fmt.Sprintf("field %q: inverse-boolean needs a boolean, source %q is %s",
				rule.TargetKey, sourceKey, v.Kind)
		}
		return !v.Bool, ""

	case types.TransformDatePassthrough:
		if v.Kind != types.KindDate {
			return nil, fmt.Sprintf("field %q: date-passthrough needs a date, source %q is %s",
				rule.TargetKey, sourceKey, v.Kind)
		}
		if isSystemSource(sourceKey) {
			// System timestamps are already timezone-qualified; never touch them.
			return v.Date, ""
		}
		return normalizeDate(v.Date), ""

	case types.TransformSetJoin:
		switch v.Kind {
		case types.KindSet:
			// Copy in declared option order; never sorted.
			return append([]string(nil), v.Set...), ""
		case types.KindText:
			return []string{v.Text}, ""
		default:
			return nil, fmt.Sprintf("field %q: set-join needs a set, source %q is %s",
				rule.TargetKey, sourceKey, v.Kind)
		}
	}
	return nil, fmt.Sprintf("field %q: unknown transform %q", rule.TargetKey, rule.Transform)
}

// directValue unwraps a property value into its plain Go representation.
// Whole numbers are emitted as integers so headers read naturally.
func directValue(v types.PropertyValue) any {
	switch v.Kind {
	case types.KindText:
		return v.Text
	case types.KindDate:
		return v.Date
	case types.KindBoolean:
		return v.Bool
	case types.KindSet:
		return append([]string(nil), v.Set...)
	case types.KindNumber:
		if v.Number == math.Trunc(v.Number) && math.Abs(v.Number) < 1e15 {
			return int64(v.Number)
		}
		return v.Number
	}
	return nil
}

func isSystemSource(key string) bool {
	return key == types.SourceCreatedTime || key == types.SourceLastEditedTime
}

// normalizeDate qualifies an explicit date property with a timezone. Bare
// dates become midnight UTC; datetimes without an offset get "Z"; anything
// already qualified, or unparseable, passes through unchanged.
func normalizeDate(s string) string {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s + "T00:00:00Z"
	}
	if _, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return s + "Z"
	}
	return s
}

// ShouldSkip reports whether the record opted out of rendering via a truthy
// skipRendering checkbox (or the legacy doNotRendering name). Matching is
// case-insensitive, skipRendering taking precedence.
func ShouldSkip(record *types.Record) bool {
	if v, ok := record.Property("skipRendering"); ok && v.Kind == types.KindBoolean {
		return v.Bool
	}
	if v, ok := record.Property("doNotRendering"); ok && v.Kind == types.KindBoolean {
		return v.Bool
	}
	return false
}

package spos

import (
	"testing"
)

func boolSpecRaw() map[string]any {
	return map[string]any{
		"name":    "switch",
		"version": float64(1),
		"meta":    map[string]any{},
		"body": []any{
			map[string]any{"type": "boolean", "key": "on"},
		},
	}
}

func TestCompileMinimalSpec(t *testing.T) {
	spec, err := Compile(boolSpecRaw())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if spec.Name != "switch" || spec.Version != 1 {
		t.Fatalf("unexpected spec identity: %+v", spec)
	}
	if spec.EncodeVersion() {
		t.Fatalf("expected encode_version to default false")
	}
}

func TestCompileMissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"no name", map[string]any{"version": float64(1), "meta": map[string]any{}, "body": []any{}}},
		{"no version", map[string]any{"name": "x", "meta": map[string]any{}, "body": []any{}}},
		{"meta not an object", map[string]any{"name": "x", "version": float64(1), "meta": "bogus", "body": []any{}}},
		{"no body", map[string]any{"name": "x", "version": float64(1), "meta": map[string]any{}}},
	}
	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			if _, err := Compile(v.raw); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestCompileAbsentMetaDefaultsToEmpty(t *testing.T) {
	raw := map[string]any{
		"name":    "nested",
		"version": float64(1),
		"body": []any{
			map[string]any{"type": "integer", "key": "nested.value", "bits": float64(8)},
		},
	}
	spec, err := Compile(raw)
	if err != nil {
		t.Fatalf("Compile with no meta: %v", err)
	}
	if spec.EncodeVersion() || spec.crc8 || len(spec.header) != 0 {
		t.Fatalf("expected an absent meta to behave as empty, got %+v", spec)
	}

	message, err := Encode(map[string]any{"nested": map[string]any{"value": int64(255)}}, spec, FormatBin)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if message != "0b11111111" {
		t.Fatalf("got %q, want 0b11111111", message)
	}
}

func TestCompileVersionBits(t *testing.T) {
	raw := boolSpecRaw()
	raw["version"] = float64(7)
	raw["meta"] = map[string]any{"encode_version": true, "version_bits": float64(3)}

	if _, err := Compile(raw); err != nil {
		t.Fatalf("version 7 should fit in 3 bits: %v", err)
	}

	raw["version"] = float64(8)
	if _, err := Compile(raw); err == nil {
		t.Fatalf("version 8 should not fit in 3 bits")
	}
}

func TestCompileVersionBitsRequiredWithEncodeVersion(t *testing.T) {
	raw := boolSpecRaw()
	raw["meta"] = map[string]any{"encode_version": true}
	if _, err := Compile(raw); err == nil {
		t.Fatalf("expected error for missing version_bits")
	}
}

func TestCompileDuplicateBlockNames(t *testing.T) {
	raw := boolSpecRaw()
	raw["body"] = []any{
		map[string]any{"type": "boolean", "key": "on"},
		map[string]any{"type": "boolean", "key": "off", "alias": "on"},
	}
	if _, err := Compile(raw); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestCompileUnrecognisedKey(t *testing.T) {
	raw := boolSpecRaw()
	raw["body"] = []any{
		map[string]any{"type": "boolean", "key": "on", "bogus": 1},
	}
	if _, err := Compile(raw); err == nil {
		t.Fatalf("expected unrecognised-key error")
	}
}

func TestCompileStepsMustAscend(t *testing.T) {
	raw := boolSpecRaw()
	raw["body"] = []any{
		map[string]any{"type": "steps", "key": "level", "steps": []any{float64(1), float64(1)}},
	}
	if _, err := Compile(raw); err == nil {
		t.Fatalf("expected non-ascending steps error")
	}
}

func TestCompileCategoriesMustBeUnique(t *testing.T) {
	raw := boolSpecRaw()
	raw["body"] = []any{
		map[string]any{"type": "categories", "key": "color", "categories": []any{"red", "red"}},
	}
	if _, err := Compile(raw); err == nil {
		t.Fatalf("expected duplicate category error")
	}
}

func TestCompileHeaderAndCrc(t *testing.T) {
	raw := boolSpecRaw()
	raw["meta"] = map[string]any{
		"crc8": true,
		"header": []any{
			map[string]any{"key": "spec_name", "value": "switch-spec"},
		},
	}
	spec, err := Compile(raw)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(spec.header) != 1 {
		t.Fatalf("expected one header block, got %d", len(spec.header))
	}
	if !spec.crc8 {
		t.Fatalf("expected crc8 to be enabled")
	}
}

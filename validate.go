package spos

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/luxedo/spos/internal/bitstream"
)

// rawBlock is how a block arrives straight out of JSON: a bag of untyped
// keys. validateBlock turns it into exactly one concrete block type, or
// rejects it outright — this is the only place in the package that inspects
// raw keys; every block codec downstream dispatches on its Go type.
type rawBlock = map[string]any

var commonKeys = map[string]bool{"type": true, "key": true, "value": true, "alias": true}

func rawString(raw rawBlock, key string) (string, bool, error) {
	v, ok := raw[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, PayloadSpecError(fmt.Sprintf("%q must be a string", key))
	}
	return s, true, nil
}

func rawInt(raw rawBlock, key string) (int, bool, error) {
	v, ok := raw[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), true, nil
	case int:
		return n, true, nil
	default:
		return 0, false, PayloadSpecError(fmt.Sprintf("%q must be a number", key))
	}
}

func rawFloat(raw rawBlock, key string) (float64, bool, error) {
	v, ok := raw[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int:
		return float64(n), true, nil
	default:
		return 0, false, PayloadSpecError(fmt.Sprintf("%q must be a number", key))
	}
}

func rawBool(raw rawBlock, key string) (bool, bool, error) {
	v, ok := raw[key]
	if !ok {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, false, PayloadSpecError(fmt.Sprintf("%q must be a boolean", key))
	}
	return b, true, nil
}

// checkAllowedKeys rejects any key in raw not present in allowed (common
// keys are always allowed on top of the type-specific set).
func checkAllowedKeys(raw rawBlock, typeName string, allowed map[string]bool) error {
	for k := range raw {
		if commonKeys[k] || allowed[k] {
			continue
		}
		return PayloadSpecError(fmt.Sprintf("%s block: unrecognised key %q", typeName, k))
	}
	return nil
}

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

func parseCommon(raw rawBlock, requireKey bool) (common, error) {
	var c common

	key, hasKey, err := rawString(raw, "key")
	if err != nil {
		return c, err
	}
	if !hasKey && requireKey {
		if _, hasVal := raw["value"]; !hasVal {
			return c, PayloadSpecError("block is missing required key \"key\"")
		}
	}
	c.key = key

	alias, _, err := rawString(raw, "alias")
	if err != nil {
		return c, err
	}
	c.alias = alias

	if v, ok := raw["value"]; ok {
		c.value = v
		c.hasVal = true
	}
	return c, nil
}

// validateBlock normalises one raw block description into a typed block.
func validateBlock(raw rawBlock) (block, error) {
	typeName, hasType, err := rawString(raw, "type")
	if err != nil {
		return nil, err
	}
	if !hasType {
		return validateStaticBlock(raw)
	}

	switch typeName {
	case "boolean":
		return validateBooleanBlock(raw)
	case "binary":
		return validateBinaryBlock(raw)
	case "integer":
		return validateIntegerBlock(raw)
	case "float":
		return validateFloatBlock(raw)
	case "pad":
		return validatePadBlock(raw)
	case "string":
		return validateStringBlock(raw)
	case "array":
		return validateArrayBlock(raw)
	case "object":
		return validateObjectBlock(raw)
	case "steps":
		return validateStepsBlock(raw)
	case "categories":
		return validateCategoriesBlock(raw)
	default:
		return nil, PayloadSpecError(fmt.Sprintf("unknown block type %q", typeName))
	}
}

func validateStaticBlock(raw rawBlock) (block, error) {
	if err := checkAllowedKeys(raw, "static", nil); err != nil {
		return nil, err
	}
	if _, ok := raw["value"]; !ok {
		return nil, PayloadSpecError("block with no \"type\" must set \"value\" (a static block)")
	}
	c, err := parseCommon(raw, false)
	if err != nil {
		return nil, err
	}
	if c.key == "" && c.alias == "" {
		return nil, PayloadSpecError("static block needs a \"key\" or \"alias\" to be named in meta")
	}
	return staticBlock{common: c}, nil
}

func validateBooleanBlock(raw rawBlock) (block, error) {
	if err := checkAllowedKeys(raw, "boolean", nil); err != nil {
		return nil, err
	}
	c, err := parseCommon(raw, true)
	if err != nil {
		return nil, err
	}
	return booleanBlock{common: c}, nil
}

func validateBinaryBlock(raw rawBlock) (block, error) {
	allowed := keySet("bits")
	if err := checkAllowedKeys(raw, "binary", allowed); err != nil {
		return nil, err
	}
	c, err := parseCommon(raw, true)
	if err != nil {
		return nil, err
	}
	bits, ok, err := rawInt(raw, "bits")
	if err != nil {
		return nil, err
	}
	if !ok || bits <= 0 {
		return nil, PayloadSpecError("binary block: \"bits\" is required and must be positive")
	}
	return binaryBlock{common: c, bits: bits}, nil
}

func validateIntegerBlock(raw rawBlock) (block, error) {
	allowed := keySet("bits", "offset", "mode")
	if err := checkAllowedKeys(raw, "integer", allowed); err != nil {
		return nil, err
	}
	c, err := parseCommon(raw, true)
	if err != nil {
		return nil, err
	}
	bits, ok, err := rawInt(raw, "bits")
	if err != nil {
		return nil, err
	}
	if !ok || bits <= 0 || bits > 64 {
		return nil, PayloadSpecError("integer block: \"bits\" is required and must be in [1, 64]")
	}

	offset, _, err := rawInt(raw, "offset")
	if err != nil {
		return nil, err
	}

	mode, hasMode, err := rawString(raw, "mode")
	if err != nil {
		return nil, err
	}
	if !hasMode {
		mode = integerModeTruncate
	}
	if mode != integerModeTruncate && mode != integerModeRemainder {
		return nil, PayloadSpecError(fmt.Sprintf("integer block: unknown mode %q", mode))
	}

	return integerBlock{common: c, bits: bits, offset: int64(offset), mode: mode}, nil
}

func validateFloatBlock(raw rawBlock) (block, error) {
	allowed := keySet("bits", "lower", "upper", "approximation")
	if err := checkAllowedKeys(raw, "float", allowed); err != nil {
		return nil, err
	}
	c, err := parseCommon(raw, true)
	if err != nil {
		return nil, err
	}
	bits, ok, err := rawInt(raw, "bits")
	if err != nil {
		return nil, err
	}
	if !ok || bits <= 0 {
		return nil, PayloadSpecError("float block: \"bits\" is required and must be positive")
	}

	lower, hasLower, err := rawFloat(raw, "lower")
	if err != nil {
		return nil, err
	}
	if !hasLower {
		lower = 0
	}
	upper, hasUpper, err := rawFloat(raw, "upper")
	if err != nil {
		return nil, err
	}
	if !hasUpper {
		upper = 1
	}
	if upper <= lower {
		return nil, PayloadSpecError("float block: \"upper\" must be greater than \"lower\"")
	}

	approx, hasApprox, err := rawString(raw, "approximation")
	if err != nil {
		return nil, err
	}
	if !hasApprox {
		approx = floatApproxRound
	}
	if approx != floatApproxRound && approx != floatApproxFloor && approx != floatApproxCeil {
		return nil, PayloadSpecError(fmt.Sprintf("float block: unknown approximation %q", approx))
	}

	return floatBlock{common: c, bits: bits, lower: lower, upper: upper, approx: approx}, nil
}

func validatePadBlock(raw rawBlock) (block, error) {
	allowed := keySet("bits")
	if err := checkAllowedKeys(raw, "pad", allowed); err != nil {
		return nil, err
	}
	if _, hasKey := raw["key"]; hasKey {
		return nil, PayloadSpecError("pad block: \"key\" is forbidden")
	}
	c, err := parseCommon(raw, false)
	if err != nil {
		return nil, err
	}
	bits, ok, err := rawInt(raw, "bits")
	if err != nil {
		return nil, err
	}
	if !ok || bits <= 0 {
		return nil, PayloadSpecError("pad block: \"bits\" is required and must be positive")
	}
	return padBlock{common: c, bits: bits}, nil
}

func validateStringBlock(raw rawBlock) (block, error) {
	allowed := keySet("length", "custom_alphabeth")
	if err := checkAllowedKeys(raw, "string", allowed); err != nil {
		return nil, err
	}
	c, err := parseCommon(raw, true)
	if err != nil {
		return nil, err
	}
	length, ok, err := rawInt(raw, "length")
	if err != nil {
		return nil, err
	}
	if !ok || length <= 0 {
		return nil, PayloadSpecError("string block: \"length\" is required and must be positive")
	}

	custom := map[int]byte{}
	if raw["custom_alphabeth"] != nil {
		m, ok := raw["custom_alphabeth"].(map[string]any)
		if !ok {
			return nil, PayloadSpecError("string block: \"custom_alphabeth\" must be a map of index to character")
		}
		for k, v := range m {
			idx, err := parseMapIntKey(k)
			if err != nil {
				return nil, PayloadSpecError(fmt.Sprintf("string block: custom_alphabeth key %q: %v", k, err))
			}
			s, ok := v.(string)
			if !ok || len(s) != 1 {
				return nil, PayloadSpecError("string block: custom_alphabeth values must be single characters")
			}
			custom[idx] = s[0]
		}
	}

	alphabet := newStringAlphabet(custom)
	return stringBlock{
		common:   c,
		length:   length,
		alphabet: alphabet,
		indexOf:  stringIndexOf(alphabet),
	}, nil
}

func parseMapIntKey(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	return n, nil
}

func validateArrayBlock(raw rawBlock) (block, error) {
	allowed := keySet("length", "fixed", "blocks")
	if err := checkAllowedKeys(raw, "array", allowed); err != nil {
		return nil, err
	}
	c, err := parseCommon(raw, true)
	if err != nil {
		return nil, err
	}
	length, ok, err := rawInt(raw, "length")
	if err != nil {
		return nil, err
	}
	if !ok || length <= 0 {
		return nil, PayloadSpecError("array block: \"length\" is required and must be positive")
	}

	fixed, _, err := rawBool(raw, "fixed")
	if err != nil {
		return nil, err
	}

	innerRaw, ok := raw["blocks"].(map[string]any)
	if !ok {
		return nil, PayloadSpecError("array block: \"blocks\" is required and must be a block description")
	}
	inner, err := validateBlock(innerRaw)
	if err != nil {
		return nil, err
	}

	prefixBits := 0
	if !fixed {
		prefixBits = bitstream.BitsForCount(length)
	}

	return arrayBlock{common: c, length: length, fixed: fixed, inner: inner, prefixBits: prefixBits}, nil
}

func validateObjectBlock(raw rawBlock) (block, error) {
	allowed := keySet("blocklist")
	if err := checkAllowedKeys(raw, "object", allowed); err != nil {
		return nil, err
	}
	c, err := parseCommon(raw, true)
	if err != nil {
		return nil, err
	}

	rawList, ok := raw["blocklist"].([]any)
	if !ok {
		return nil, PayloadSpecError("object block: \"blocklist\" is required and must be a list of blocks")
	}
	blocks, err := validateBlockList(toRawBlockList(rawList))
	if err != nil {
		return nil, err
	}
	return objectBlock{common: c, blocks: blocks}, nil
}

func validateStepsBlock(raw rawBlock) (block, error) {
	allowed := keySet("steps", "steps_names")
	if err := checkAllowedKeys(raw, "steps", allowed); err != nil {
		return nil, err
	}
	c, err := parseCommon(raw, true)
	if err != nil {
		return nil, err
	}

	rawSteps, ok := raw["steps"].([]any)
	if !ok || len(rawSteps) == 0 {
		return nil, PayloadSpecError("steps block: \"steps\" is required and must be a non-empty list")
	}
	steps := make([]float64, len(rawSteps))
	for i, v := range rawSteps {
		f, ok := v.(float64)
		if !ok {
			return nil, PayloadSpecError("steps block: \"steps\" entries must be numbers")
		}
		steps[i] = f
	}
	if !sort.SliceIsSorted(steps, func(i, j int) bool { return steps[i] < steps[j] }) {
		return nil, PayloadSpecError("steps block: \"steps\" must be strictly ascending")
	}
	for i := 1; i < len(steps); i++ {
		if steps[i] == steps[i-1] {
			return nil, PayloadSpecError("steps block: \"steps\" must be strictly ascending")
		}
	}

	var names []string
	if rawNames, ok := raw["steps_names"]; ok {
		list, ok := rawNames.([]any)
		if !ok {
			return nil, PayloadSpecError("steps block: \"steps_names\" must be a list of strings")
		}
		if len(list) != len(steps)+1 {
			return nil, PayloadSpecError("steps block: \"steps_names\" must have len(steps)+1 entries")
		}
		names = make([]string, len(list))
		for i, v := range list {
			s, ok := v.(string)
			if !ok {
				return nil, PayloadSpecError("steps block: \"steps_names\" entries must be strings")
			}
			names[i] = s
		}
	} else {
		names = synthesizeStepsNames(steps)
	}

	bits := bitstream.BitsForCount(len(steps) + 1)
	return stepsBlock{common: c, steps: steps, names: names, bits: bits}, nil
}

func validateCategoriesBlock(raw rawBlock) (block, error) {
	allowed := keySet("categories", "error")
	if err := checkAllowedKeys(raw, "categories", allowed); err != nil {
		return nil, err
	}
	c, err := parseCommon(raw, true)
	if err != nil {
		return nil, err
	}

	rawCats, ok := raw["categories"].([]any)
	if !ok || len(rawCats) == 0 {
		return nil, PayloadSpecError("categories block: \"categories\" is required and must be a non-empty list")
	}
	cats := make([]string, len(rawCats))
	seen := make(map[string]bool, len(rawCats))
	for i, v := range rawCats {
		s, ok := v.(string)
		if !ok {
			return nil, PayloadSpecError("categories block: \"categories\" entries must be strings")
		}
		if seen[s] {
			return nil, PayloadSpecError(fmt.Sprintf("categories block: duplicate category %q", s))
		}
		seen[s] = true
		cats[i] = s
	}

	errorName, hasError, err := rawString(raw, "error")
	if err != nil {
		return nil, err
	}

	bits := bitstream.BitsForCount(len(cats) + 1)
	return categoriesBlock{common: c, categories: cats, errorName: errorName, hasError: hasError, bits: bits}, nil
}

// toRawBlockList converts a []any of map[string]any (as produced by
// encoding/json for a JSON array of objects) into []rawBlock, marking any
// entry that is not itself an object so that validateBlockList rejects it.
func toRawBlockList(list []any) []rawBlock {
	out := make([]rawBlock, len(list))
	for i, v := range list {
		if m, ok := v.(map[string]any); ok {
			out[i] = m
		} else {
			out[i] = rawBlock{"__invalid__": v}
		}
	}
	return out
}

// validateBlockList validates every entry of a raw blocklist and checks
// that output names (alias, or key when no alias is set) are unique.
func validateBlockList(raws []rawBlock) ([]block, error) {
	blocks := make([]block, len(raws))
	seen := make(map[string]bool, len(raws))

	for i, raw := range raws {
		if _, bad := raw["__invalid__"]; bad {
			return nil, PayloadSpecError("blocklist entries must be objects")
		}
		b, err := validateBlock(raw)
		if err != nil {
			return nil, err
		}
		if name := outputKey(b); name != "" {
			if seen[name] {
				return nil, PayloadSpecError(fmt.Sprintf("duplicate block name %q in blocklist", name))
			}
			seen[name] = true
		}
		blocks[i] = b
	}
	return blocks, nil
}

package spos

import "strings"

// getPath reads a dot-path key (e.g. "a.b.c") out of a nested
// map[string]any, returning ok=false if any segment is missing or not a
// map[string]any.
func getPath(data map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	var cur any = data
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// setPath writes val into a nested map[string]any at a dot-path key,
// creating intermediate maps as needed.
func setPath(data map[string]any, path string, val any) {
	segments := strings.Split(path, ".")
	m := data
	for i, seg := range segments {
		if i == len(segments)-1 {
			m[seg] = val
			return
		}
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[seg] = next
		}
		m = next
	}
}

// resolveValue returns the value a block should encode: its static override
// if one is set, otherwise the payload_data value at its key. A block with
// no key (pad blocks) needs no data at all and always resolves to nil. ok is
// false only when the block has a key but the caller's payload_data has
// nothing at that path.
func resolveValue(b block, data map[string]any) (any, bool) {
	if v, ok := b.staticValue(); ok {
		return v, true
	}
	key := b.blockKey()
	if key == "" {
		return nil, true
	}
	return getPath(data, key)
}

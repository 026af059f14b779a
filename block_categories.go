package spos

import (
	"fmt"

	"github.com/luxedo/spos/internal/bitstream"
)

// categoriesBlock encodes a value as an index into a fixed list of category
// names. One extra code is reserved for the configured error fallback (used
// when encoding an unrecognised value) and one more for "decode-error" (any
// code a valid encoder never produces), so the bit width covers
// len(categories)+2 distinct codes.
type categoriesBlock struct {
	common
	categories []string
	errorName  string
	hasError   bool
	bits       int
}

func (b categoriesBlock) indexOf(name string) (int, bool) {
	for i, c := range b.categories {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

func (b categoriesBlock) encode(w *bitstream.Writer, val any) error {
	s, ok := val.(string)
	if !ok {
		return EncodeError(fmt.Sprintf("categories block: value must be a string, got %T", val))
	}

	if idx, ok := b.indexOf(s); ok {
		w.AppendBits(uint64(idx), b.bits)
		return nil
	}
	if !b.hasError {
		return EncodeError(fmt.Sprintf("categories block: %q is not a known category and no error fallback is set", s))
	}
	w.AppendBits(uint64(len(b.categories)), b.bits)
	return nil
}

func (b categoriesBlock) decode(r *bitstream.Reader) (any, error) {
	v, err := r.ReadBits(b.bits)
	if err != nil {
		return nil, ErrTruncatedMessage
	}

	idx := int(v)
	m := len(b.categories)
	switch {
	case idx < m:
		return b.categories[idx], nil
	case idx == m && b.hasError:
		return b.errorName, nil
	default:
		return "error", nil
	}
}

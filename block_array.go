package spos

import (
	"fmt"

	"github.com/luxedo/spos/internal/bitstream"
)

// arrayBlock encodes a sequence through a single inner block applied to
// each element. In fixed mode the input length must equal length exactly;
// in dynamic mode (the default) a prefix carries the actual element count.
type arrayBlock struct {
	common
	length     int // maximum (dynamic mode) or exact (fixed mode) element count
	fixed      bool
	inner      block
	prefixBits int // ceil(log2(length+1)), unused when fixed
}

func (b arrayBlock) encode(w *bitstream.Writer, val any) error {
	elems, ok := toSlice(val)
	if !ok {
		return EncodeError(fmt.Sprintf("array block: value must be a sequence, got %T", val))
	}

	if b.fixed {
		if len(elems) != b.length {
			return EncodeError(fmt.Sprintf("array block: fixed array expects exactly %d elements, got %d", b.length, len(elems)))
		}
	} else {
		if len(elems) > b.length {
			return EncodeError(fmt.Sprintf("array block: %d elements exceeds max length %d", len(elems), b.length))
		}
		w.AppendBits(uint64(len(elems)), b.prefixBits)
	}

	for _, e := range elems {
		if err := b.inner.encode(w, e); err != nil {
			return err
		}
	}
	return nil
}

func (b arrayBlock) decode(r *bitstream.Reader) (any, error) {
	count := b.length
	if !b.fixed {
		v, err := r.ReadBits(b.prefixBits)
		if err != nil {
			return nil, ErrTruncatedMessage
		}
		count = int(v)
		if count > b.length {
			return nil, DecodeError("array block: decoded element count exceeds spec length")
		}
	}

	out := make([]any, count)
	for i := 0; i < count; i++ {
		v, err := b.inner.decode(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// toSlice accepts []any or any other slice type produced by JSON
// unmarshalling ([]any is the common case, but callers building
// payload_data programmatically may supply typed slices too).
func toSlice(val any) ([]any, bool) {
	switch v := val.(type) {
	case []any:
		return v, true
	case []int:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case []string:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

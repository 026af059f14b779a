package spos

import (
	"fmt"

	"github.com/luxedo/spos/internal/bitstream"
)

const (
	integerModeTruncate  = "truncate"
	integerModeRemainder = "remainder"
)

// integerBlock encodes a signed int64, after subtracting offset, as an
// unsigned value in [0, 2^bits-1]. Values outside that range saturate to the
// nearest endpoint under "truncate" mode, or wrap modulo 2^bits under
// "remainder" mode.
type integerBlock struct {
	common
	bits   int
	offset int64
	mode   string
}

func coerceInt64(val any) (int64, error) {
	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, EncodeError(fmt.Sprintf("integer block: cannot coerce %T to int", val))
	}
}

func (b integerBlock) encode(w *bitstream.Writer, val any) error {
	iv, err := coerceInt64(val)
	if err != nil {
		return err
	}

	shifted := iv - b.offset

	// bits is capped at 64 by validateIntegerBlock; 1<<64 would wrap to 0 in
	// a signed shift, so the full-width case is handled on its own.
	var maxVal uint64 = ^uint64(0)
	if b.bits < 64 {
		maxVal = uint64(1)<<uint(b.bits) - 1
	}

	var out uint64
	switch b.mode {
	case integerModeRemainder:
		if b.bits == 64 {
			out = uint64(shifted)
		} else {
			mod := int64(1) << uint(b.bits)
			r := shifted % mod
			if r < 0 {
				r += mod
			}
			out = uint64(r)
		}
	default: // integerModeTruncate
		switch {
		case shifted < 0:
			out = 0
		case b.bits == 64:
			out = uint64(shifted)
		case uint64(shifted) > maxVal:
			out = maxVal
		default:
			out = uint64(shifted)
		}
	}

	w.AppendBits(out, b.bits)
	return nil
}

func (b integerBlock) decode(r *bitstream.Reader) (any, error) {
	v, err := r.ReadBits(b.bits)
	if err != nil {
		return nil, ErrTruncatedMessage
	}
	return int64(v) + b.offset, nil
}

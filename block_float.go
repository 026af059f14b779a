package spos

import (
	"fmt"
	"math"

	"github.com/luxedo/spos/internal/bitstream"
)

const (
	floatApproxRound = "round"
	floatApproxFloor = "floor"
	floatApproxCeil  = "ceil"
)

// floatBlock linearly quantises a real value to one of 2^bits levels over
// [lower, upper]. Ties under "round" resolve to nearest-even.
type floatBlock struct {
	common
	bits   int
	lower  float64
	upper  float64
	approx string
}

func coerceFloat64(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, EncodeError(fmt.Sprintf("float block: cannot coerce %T to float64", val))
	}
}

func (b floatBlock) levels() float64 {
	return float64((uint64(1) << uint(b.bits)) - 1)
}

func (b floatBlock) encode(w *bitstream.Writer, val any) error {
	fv, err := coerceFloat64(val)
	if err != nil {
		return err
	}

	frac := (fv - b.lower) / (b.upper - b.lower)
	raw := frac * b.levels()

	var idx float64
	switch b.approx {
	case floatApproxFloor:
		idx = math.Floor(raw)
	case floatApproxCeil:
		idx = math.Ceil(raw)
	default: // floatApproxRound
		idx = math.RoundToEven(raw)
	}

	maxIdx := b.levels()
	switch {
	case idx < 0:
		idx = 0
	case idx > maxIdx:
		idx = maxIdx
	}

	w.AppendBits(uint64(idx), b.bits)
	return nil
}

func (b floatBlock) decode(r *bitstream.Reader) (any, error) {
	v, err := r.ReadBits(b.bits)
	if err != nil {
		return nil, ErrTruncatedMessage
	}
	return b.lower + float64(v)/b.levels()*(b.upper-b.lower), nil
}

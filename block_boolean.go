package spos

import (
	"fmt"

	"github.com/luxedo/spos/internal/bitstream"
)

// booleanBlock encodes a single bit: truthy -> 1, else 0.
type booleanBlock struct {
	common
}

func coerceBool(val any) (bool, error) {
	switch v := val.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, EncodeError(fmt.Sprintf("boolean block: cannot coerce %T to bool", val))
	}
}

func (b booleanBlock) encode(w *bitstream.Writer, val any) error {
	bv, err := coerceBool(val)
	if err != nil {
		return err
	}
	if bv {
		w.AppendBits(1, 1)
	} else {
		w.AppendBits(0, 1)
	}
	return nil
}

func (b booleanBlock) decode(r *bitstream.Reader) (any, error) {
	v, err := r.ReadBits(1)
	if err != nil {
		return nil, ErrTruncatedMessage
	}
	return v == 1, nil
}

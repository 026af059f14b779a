package spos

import (
	"fmt"

	"github.com/luxedo/spos/internal/bitstream"
)

// objectBlock delegates to an inner blocklist in order, adding no framing
// bits of its own. Inner block keys are resolved against the object's own
// value (a nested map), not against the root payload_data.
type objectBlock struct {
	common
	blocks []block
}

func (b objectBlock) encode(w *bitstream.Writer, val any) error {
	sub, ok := val.(map[string]any)
	if !ok {
		return EncodeError(fmt.Sprintf("object block: value must be an object, got %T", val))
	}

	for _, inner := range b.blocks {
		v, ok := resolveValue(inner, sub)
		if !ok {
			return EncodeError(fmt.Sprintf("object block: missing value for key %q", inner.blockKey()))
		}
		if err := inner.encode(w, v); err != nil {
			return err
		}
	}
	return nil
}

func (b objectBlock) decode(r *bitstream.Reader) (any, error) {
	out := make(map[string]any, len(b.blocks))
	for _, inner := range b.blocks {
		v, err := inner.decode(r)
		if err != nil {
			return nil, err
		}
		if name := outputKey(inner); name != "" {
			out[name] = v
		}
	}
	return out, nil
}

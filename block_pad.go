package spos

import "github.com/luxedo/spos/internal/bitstream"

// padBlock writes a fixed run of zero bits and discards them on decode. It
// has no key and contributes nothing to payload_data in either direction.
type padBlock struct {
	common
	bits int
}

func (b padBlock) encode(w *bitstream.Writer, val any) error {
	w.AppendBits(0, b.bits)
	return nil
}

func (b padBlock) decode(r *bitstream.Reader) (any, error) {
	if _, err := r.ReadBits(b.bits); err != nil {
		return nil, ErrTruncatedMessage
	}
	return nil, nil
}

package spos

import "github.com/luxedo/spos/internal/bitstream"

// block is the tagged-variant interface every compiled block type
// implements. The assembler calls these methods, so each call dispatches on
// the concrete Go type, never by probing which raw keys happened to be
// present — that probing only happens once, in validate.go, while compiling
// a raw spec into one of these concrete types.
type block interface {
	// blockKey returns the dot-path key used to read/write payload_data, or
	// "" for blocks with no key (pad, and static blocks that only carry a
	// literal value).
	blockKey() string

	// blockAlias returns the decode-time rename, or "" if none was given.
	blockAlias() string

	// staticValue returns the block's static value override, if any.
	staticValue() (any, bool)

	// encode writes val's bits onto w. val is already resolved by the
	// caller (static override or payload_data lookup).
	encode(w *bitstream.Writer, val any) error

	// decode reads this block's bits from r and returns the decoded value.
	decode(r *bitstream.Reader) (any, error)
}

// common holds the attributes shared by every block type.
type common struct {
	key     string
	alias   string
	value   any
	hasVal  bool
}

func (c common) blockKey() string { return c.key }
func (c common) blockAlias() string { return c.alias }
func (c common) staticValue() (any, bool) { return c.value, c.hasVal }

// outputKey returns the name a decoded value should be surfaced under: the
// alias if one was declared, else the key.
func outputKey(b block) string {
	if a := b.blockAlias(); a != "" {
		return a
	}
	return b.blockKey()
}

// staticBlock is a header-only block with no wire representation: its
// value is known entirely from the spec and is surfaced in decoded meta
// without consuming any bits.
type staticBlock struct {
	common
}

func (b staticBlock) encode(w *bitstream.Writer, val any) error { return nil }
func (b staticBlock) decode(r *bitstream.Reader) (any, error)   { return b.value, nil }

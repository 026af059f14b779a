package spos

import (
	"fmt"
	"strings"

	"github.com/luxedo/spos/internal/bitstream"
	"github.com/luxedo/spos/internal/crc8"
)

// Encode packs payloadData into a message under spec: an optional version
// prefix, the header blocks, the body blocks, and — if spec enables it — a
// trailing CRC-8 over everything written so far.
func Encode(payloadData map[string]any, spec *CompiledSpec, format Format) (message string, err error) {
	defer recoverErr(&err)

	w := bitstream.NewWriter()

	if spec.encodeVersion {
		w.AppendBits(uint64(spec.Version), spec.versionBits)
	}

	for _, b := range spec.header {
		v, ok := resolveValue(b, payloadData)
		if !ok {
			return "", EncodeError(fmt.Sprintf("missing value for header key %q", b.blockKey()))
		}
		if err := b.encode(w, v); err != nil {
			return "", err
		}
	}

	for _, b := range spec.body {
		v, ok := resolveValue(b, payloadData)
		if !ok {
			return "", EncodeError(fmt.Sprintf("missing value for key %q", b.blockKey()))
		}
		if err := b.encode(w, v); err != nil {
			return "", err
		}
	}

	if spec.crc8 {
		pad := bitstream.PadBits(w.BitsWritten())
		if pad > 0 {
			w.AppendBits(0, pad)
		}
		sum := crc8.Checksum(w.Bytes())
		w.AppendBits(uint64(sum), 8)
	}

	return renderOutput(w, format)
}

// Decoded is the result of Decode/DecodeFromSpecs: the body's payload_data
// plus meta, which holds the spec's name and version and any header values
// (including static ones). Meta is a plain map, so it keeps no key order.
type Decoded struct {
	Spec *CompiledSpec
	Body map[string]any
	Meta map[string]any
}

// Decode unpacks message against spec, verifying its CRC-8 trailer (if
// spec enables one) before returning any data.
func Decode(message string, spec *CompiledSpec) (decoded *Decoded, err error) {
	defer recoverErr(&err)

	data, numBits, err := parseInput(message, inferFormat(message, spec))
	if err != nil {
		return nil, err
	}
	return decodeBytes(data, numBits, spec)
}

// DecodeWithFormat is Decode with an explicit, known wire format.
func DecodeWithFormat(message string, format Format, spec *CompiledSpec) (decoded *Decoded, err error) {
	defer recoverErr(&err)

	data, numBits, err := parseInput(message, format)
	if err != nil {
		return nil, err
	}
	return decodeBytes(data, numBits, spec)
}

// inferFormat is used only by the single-argument Decode convenience entry
// point: a "0b"-prefixed message, or one built entirely of '0'/'1', is
// treated as bin; a "0x"-prefixed message, or anything else, as hex.
// Callers that need "bytes" must use DecodeWithFormat explicitly, since raw
// byte strings are not distinguishable from hex/bin by content.
func inferFormat(message string, spec *CompiledSpec) Format {
	switch {
	case strings.HasPrefix(message, "0b") || strings.HasPrefix(message, "0B"):
		return FormatBin
	case strings.HasPrefix(message, "0x") || strings.HasPrefix(message, "0X"):
		return FormatHex
	}
	for i := 0; i < len(message); i++ {
		if message[i] != '0' && message[i] != '1' {
			return FormatHex
		}
	}
	return FormatBin
}

func decodeBytes(data []byte, numBits int, spec *CompiledSpec) (*Decoded, error) {
	r := bitstream.NewReader(data, numBits)

	if spec.encodeVersion {
		v, err := peekVersion(r, spec.versionBits)
		if err != nil {
			return nil, err
		}
		if v != spec.Version {
			return nil, PayloadSpecError(fmt.Sprintf("message version %d does not match spec version %d", v, spec.Version))
		}
	}

	meta := make(map[string]any, len(spec.header)+2)
	meta["name"] = spec.Name
	meta["version"] = spec.Version
	for _, b := range spec.header {
		v, err := b.decode(r)
		if err != nil {
			return nil, err
		}
		if name := outputKey(b); name != "" {
			meta[name] = v
		}
	}

	body := make(map[string]any, len(spec.body))
	for _, b := range spec.body {
		v, err := b.decode(r)
		if err != nil {
			return nil, err
		}
		if name := outputKey(b); name != "" {
			setPath(body, name, v)
		}
	}

	if spec.crc8 {
		bitsConsumed := r.BitsRead()
		pad := bitstream.PadBits(bitsConsumed)
		if pad > 0 {
			if _, err := r.ReadBits(pad); err != nil {
				return nil, ErrTruncatedMessage
			}
		}
		byteLen := bitstream.DivCeil(bitsConsumed, 8)
		if byteLen > len(data) {
			return nil, ErrTruncatedMessage
		}
		want, err := r.ReadBits(8)
		if err != nil {
			return nil, ErrTruncatedMessage
		}
		got := crc8.Checksum(data[:byteLen])
		if byte(want) != got {
			return nil, ErrCrcMismatch
		}
	}

	return &Decoded{Spec: spec, Body: body, Meta: meta}, nil
}

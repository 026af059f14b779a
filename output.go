package spos

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/luxedo/spos/internal/bitstream"
)

// Format selects the wire representation Encode/Decode exchange on the
// outside of the package: a string of '0'/'1' characters, a hex string, or
// a raw byte string.
type Format string

const (
	FormatBin   Format = "bin"
	FormatHex   Format = "hex"
	FormatBytes Format = "bytes"
)

// renderOutput converts a fully written bit buffer into its external
// representation. "bin" carries the exact bit count with no padding; "hex"
// zero-pads up to the next nibble; "bytes" zero-pads up to the next byte.
// Both padding cases reuse the zero bits bitstream.Writer already leaves in
// a partially-written trailing byte.
func renderOutput(w *bitstream.Writer, format Format) (string, error) {
	switch format {
	case FormatBin:
		return "0b" + bitsToBinString(w.Bytes(), w.BitsWritten()), nil
	case FormatHex:
		nibbles := bitstream.DivCeil(w.BitsWritten(), 4)
		return "0x" + bytesToHexNibbles(w.Bytes(), nibbles), nil
	case FormatBytes:
		n := bitstream.DivCeil(w.BitsWritten(), 8)
		return string(w.Bytes()[:n]), nil
	default:
		return "", PayloadSpecError(fmt.Sprintf("unknown output format %q", format))
	}
}

func bitsToBinString(data []byte, numBits int) string {
	var sb strings.Builder
	sb.Grow(numBits)
	for i := 0; i < numBits; i++ {
		byteIdx := i / 8
		bitIdx := uint(7 - i%8)
		bit := (data[byteIdx] >> bitIdx) & 1
		if bit == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func bytesToHexNibbles(data []byte, nibbles int) string {
	const hexDigits = "0123456789abcdef"
	var sb strings.Builder
	sb.Grow(nibbles)
	for i := 0; i < nibbles; i++ {
		byteIdx := i / 2
		var nib byte
		if i%2 == 0 {
			nib = data[byteIdx] >> 4
		} else {
			nib = data[byteIdx] & 0x0F
		}
		sb.WriteByte(hexDigits[nib])
	}
	return sb.String()
}

// parseInput converts an external message representation back into raw
// bytes plus the exact number of meaningful bits, ready for
// bitstream.NewReader. The "0b"/"0x" prefixes §4.8 documents for bin/hex
// messages are optional on input: present or absent, the digits after them
// are parsed the same way.
func parseInput(message string, format Format) ([]byte, int, error) {
	switch format {
	case FormatBin:
		bits := strings.TrimPrefix(strings.TrimPrefix(message, "0b"), "0B")
		data, err := binStringToBytes(bits)
		if err != nil {
			return nil, 0, err
		}
		return data, len(bits), nil
	case FormatHex:
		digits := strings.TrimPrefix(strings.TrimPrefix(message, "0x"), "0X")
		padded := digits
		if len(padded)%2 != 0 {
			padded += "0"
		}
		data, err := hex.DecodeString(padded)
		if err != nil {
			return nil, 0, PayloadSpecError(fmt.Sprintf("invalid hex message: %v", err))
		}
		return data, len(digits) * 4, nil
	case FormatBytes:
		data := []byte(message)
		return data, len(data) * 8, nil
	default:
		return nil, 0, PayloadSpecError(fmt.Sprintf("unknown output format %q", format))
	}
}

func binStringToBytes(s string) ([]byte, error) {
	numBytes := bitstream.DivCeil(len(s), 8)
	out := make([]byte, numBytes)
	for i := 0; i < len(s); i++ {
		var bit byte
		switch s[i] {
		case '0':
			bit = 0
		case '1':
			bit = 1
		default:
			return nil, PayloadSpecError(fmt.Sprintf("invalid character %q in bin message", s[i]))
		}
		byteIdx := i / 8
		bitIdx := uint(7 - i%8)
		out[byteIdx] |= bit << bitIdx
	}
	return out, nil
}

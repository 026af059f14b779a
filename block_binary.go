package spos

import (
	"strings"

	"github.com/luxedo/spos/internal/bitstream"
)

// binaryBlock carries a caller-supplied bit string ("0b..." or "0x...")
// verbatim, truncating excess low-order bits or left-padding with zeros to
// reach exactly bits wide.
type binaryBlock struct {
	common
	bits int
}

// binaryToBits converts a "0b"/"0x" literal string into its raw '0'/'1' bit
// string. A hex literal is expanded nibble-by-nibble (4 bits per digit) even
// when the digit count is odd: the literal always expands to 4*digits bits
// before width rules are applied, never silently dropped.
func binaryToBits(s string) (string, error) {
	switch {
	case strings.HasPrefix(s, "0b"):
		bitStr := s[2:]
		for _, c := range bitStr {
			if c != '0' && c != '1' {
				return "", DecodeError("binary block: invalid character in 0b literal")
			}
		}
		return bitStr, nil
	case strings.HasPrefix(s, "0x"):
		hexStr := s[2:]
		var sb strings.Builder
		for _, c := range hexStr {
			nibble, ok := hexDigitValue(c)
			if !ok {
				return "", DecodeError("binary block: invalid character in 0x literal")
			}
			for i := 3; i >= 0; i-- {
				sb.WriteByte('0' + byte((nibble>>uint(i))&1))
			}
		}
		return sb.String(), nil
	default:
		return "", DecodeError("binary block: value must begin with 0b or 0x")
	}
}

func hexDigitValue(c rune) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

// fitBits truncates excess low-order (rightmost) bits or left-pads with
// zeros so that bitStr is exactly width characters long.
func fitBits(bitStr string, width int) string {
	if len(bitStr) > width {
		return bitStr[:width] // drop low-order (trailing) bits
	}
	if len(bitStr) < width {
		return strings.Repeat("0", width-len(bitStr)) + bitStr
	}
	return bitStr
}

func (b binaryBlock) encode(w *bitstream.Writer, val any) error {
	s, ok := val.(string)
	if !ok {
		return EncodeError("binary block: value must be a string")
	}
	bitStr, err := binaryToBits(s)
	if err != nil {
		return err
	}
	bitStr = fitBits(bitStr, b.bits)

	for i := 0; i < b.bits; i++ {
		if bitStr[i] == '1' {
			w.AppendBits(1, 1)
		} else {
			w.AppendBits(0, 1)
		}
	}
	return nil
}

func (b binaryBlock) decode(r *bitstream.Reader) (any, error) {
	var sb strings.Builder
	sb.WriteString("0b")
	for i := 0; i < b.bits; i++ {
		v, err := r.ReadBits(1)
		if err != nil {
			return nil, ErrTruncatedMessage
		}
		sb.WriteByte('0' + byte(v))
	}
	return sb.String(), nil
}

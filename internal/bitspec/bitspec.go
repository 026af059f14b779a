// Package bitspec lets tests describe an expected wire message as a short,
// human-readable string instead of a hand-computed hex literal. Every
// message in this package is packed most-significant-bit first, matching
// the codec's own bit order, so there is no little/big-endian mode switch
// to get wrong.
package bitspec

import (
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBin = regexp.MustCompile(`^[01]{1,64}$`)
	reDec = regexp.MustCompile(`^D[0-9]+:[0-9]+$`)
	reHex = regexp.MustCompile(`^H[0-9]+:[0-9a-fA-F]{1,16}$`)
	reRaw = regexp.MustCompile(`^X:[0-9a-fA-F]+$`)
	reQnt = regexp.MustCompile(`[*][0-9]+$`)
)

// Decode parses a whitespace-separated token string into its packed bytes.
// Supported tokens:
//
//	101          a literal bit-string, MSB written first
//	D<n>:<v>     the decimal value v as an n-bit field
//	H<n>:<v>     the hexadecimal value v as an n-bit field
//	X:<hex>      raw bytes, only valid on a byte-aligned boundary
//
// Any token may carry a trailing "*<n>" quantifier to repeat it n times.
// '#' starts a line comment. The result is zero-padded up to the next byte.
func Decode(s string) ([]byte, error) {
	var toks []string
	for _, line := range strings.Split(s, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, t := range strings.Fields(line) {
			toks = append(toks, t)
		}
	}

	var bw bitBuffer
	for _, t := range toks {
		rep := 1
		if reQnt.MatchString(t) {
			i := strings.LastIndexByte(t, '*')
			tt, tn := t[:i], t[i+1:]
			r, err := strconv.Atoi(tn)
			if err != nil {
				return nil, errors.New("bitspec: invalid quantified token: " + t)
			}
			t, rep = tt, r
		}

		switch {
		case reBin.MatchString(t):
			var v uint64
			for _, c := range t {
				v = v<<1 | uint64(c-'0')
			}
			for i := 0; i < rep; i++ {
				bw.writeBits(v, len(t))
			}
		case reDec.MatchString(t) || reHex.MatchString(t):
			i := strings.IndexByte(t, ':')
			base := 10
			if t[0] == 'H' {
				base = 16
			}
			n, err1 := strconv.Atoi(t[1:i])
			v, err2 := strconv.ParseUint(t[i+1:], base, 64)
			if err1 != nil || err2 != nil || n > 64 {
				return nil, errors.New("bitspec: invalid numeric token: " + t)
			}
			for i := 0; i < rep; i++ {
				bw.writeBits(v, n)
			}
		case reRaw.MatchString(t):
			b, err := hex.DecodeString(t[2:])
			if err != nil {
				return nil, errors.New("bitspec: invalid raw bytes token: " + t)
			}
			for i := 0; i < rep; i++ {
				if err := bw.writeBytes(b); err != nil {
					return nil, err
				}
			}
		default:
			return nil, errors.New("bitspec: invalid token: " + t)
		}
	}
	return bw.bytes, nil
}

// bitBuffer packs bits MSB-first, zero-padding the final byte.
type bitBuffer struct {
	bytes   []byte
	numBits int
}

func (b *bitBuffer) writeBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		bit := byte((v >> uint(i)) & 1)
		byteIdx := b.numBits / 8
		bitIdx := uint(7 - b.numBits%8)
		if byteIdx == len(b.bytes) {
			b.bytes = append(b.bytes, 0)
		}
		b.bytes[byteIdx] |= bit << bitIdx
		b.numBits++
	}
}

func (b *bitBuffer) writeBytes(raw []byte) error {
	if b.numBits%8 != 0 {
		return errors.New("bitspec: X: token used off a byte boundary")
	}
	b.bytes = append(b.bytes, raw...)
	b.numBits += 8 * len(raw)
	return nil
}

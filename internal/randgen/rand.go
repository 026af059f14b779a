// Package randgen provides a deterministic pseudo-random source for
// generating sample payloads, keyed by an integer seed so the same seed
// always produces the same payload regardless of platform or Go version.
package randgen

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

// Rand is an AES-CTR-like deterministic byte stream keyed by a seed.
type Rand struct {
	cipher.Block
	blk [aes.BlockSize]byte
}

func New(seed int64) *Rand {
	var key [aes.BlockSize]byte
	binary.LittleEndian.PutUint64(key[:], uint64(seed))
	r, _ := aes.NewCipher(key[:])
	return &Rand{Block: r}
}

func (r *Rand) next() [aes.BlockSize]byte {
	r.Encrypt(r.blk[:], r.blk[:])
	return r.blk
}

// Uint64 returns the next 64 pseudo-random bits.
func (r *Rand) Uint64() uint64 {
	b := r.next()
	return binary.LittleEndian.Uint64(b[:8])
}

// Intn returns a pseudo-random integer in [0, n).
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		panic("randgen: Intn called with n <= 0")
	}
	return int(r.Uint64() % uint64(n))
}

// Int63n returns a pseudo-random int64 in [0, n).
func (r *Rand) Int63n(n int64) int64 {
	if n <= 0 {
		panic("randgen: Int63n called with n <= 0")
	}
	return int64(r.Uint64() % uint64(n))
}

// Float64 returns a pseudo-random float64 in [0.0, 1.0).
func (r *Rand) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Bool returns a pseudo-random boolean.
func (r *Rand) Bool() bool {
	return r.Uint64()&1 == 1
}

// Bytes returns n pseudo-random bytes.
func (r *Rand) Bytes(n int) []byte {
	out := make([]byte, n)
	b := out
	for len(b) > 0 {
		blk := r.next()
		cnt := copy(b, blk[:])
		b = b[cnt:]
	}
	return out
}

// FloatRange returns a pseudo-random float64 in [lower, upper).
func (r *Rand) FloatRange(lower, upper float64) float64 {
	return lower + r.Float64()*(upper-lower)
}

// IntRange returns a pseudo-random int64 in [lower, upper].
func (r *Rand) IntRange(lower, upper int64) int64 {
	if upper <= lower {
		return lower
	}
	return lower + r.Int63n(upper-lower+1)
}

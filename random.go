package spos

import (
	"fmt"
	"strings"

	"github.com/luxedo/spos/internal/randgen"
)

// RandomPayloadOptions configures RandomPayload. Seed pins the deterministic
// generator: the same spec, format and seed always produce the same
// payload and message.
type RandomPayloadOptions struct {
	Seed int64
}

// RandomPayload generates a valid, random payload_data map for spec (every
// required key populated with a value its block can encode), deterministic
// in seed, and encodes it. It is meant for smoke-testing a spec end to end
// without a hand-written example payload.
func RandomPayload(spec *CompiledSpec, format Format, opts RandomPayloadOptions) (message string, payloadData map[string]any, err error) {
	defer recoverErr(&err)

	r := randgen.New(opts.Seed)
	payloadData = make(map[string]any)
	for _, b := range spec.header {
		randomizeInto(r, b, payloadData)
	}
	for _, b := range spec.body {
		randomizeInto(r, b, payloadData)
	}

	message, err = Encode(payloadData, spec, format)
	if err != nil {
		return "", nil, err
	}
	return message, payloadData, nil
}

// randomizeInto fills payloadData with a random value for b's key, unless b
// is static or keyless (pad), in which case there is nothing to fill.
func randomizeInto(r *randgen.Rand, b block, payloadData map[string]any) {
	if _, ok := b.staticValue(); ok {
		return
	}
	key := b.blockKey()
	if key == "" {
		return
	}
	setPath(payloadData, key, randomValue(r, b))
}

// randomValue produces a value randomValue's caller can hand straight to
// b.encode without error, dispatching on b's concrete type with a type
// switch.
func randomValue(r *randgen.Rand, b block) any {
	switch v := b.(type) {
	case booleanBlock:
		return r.Bool()
	case binaryBlock:
		return randomBinaryLiteral(r, v.bits)
	case integerBlock:
		maxVal := int64(1)<<uint(v.bits) - 1
		return v.offset + r.IntRange(0, maxVal)
	case floatBlock:
		return r.FloatRange(v.lower, v.upper)
	case padBlock:
		return nil
	case stringBlock:
		return randomString(r, v.length, v.alphabet)
	case stepsBlock:
		lo := v.steps[0] - 1
		hi := v.steps[len(v.steps)-1] + 1
		if len(v.steps) > 1 {
			lo = v.steps[0]
		}
		return r.FloatRange(lo, hi)
	case categoriesBlock:
		return v.categories[r.Intn(len(v.categories))]
	case arrayBlock:
		n := v.length
		if !v.fixed {
			n = r.Intn(v.length + 1)
		}
		out := make([]any, n)
		for i := range out {
			out[i] = randomValue(r, v.inner)
		}
		return out
	case objectBlock:
		sub := make(map[string]any)
		for _, inner := range v.blocks {
			randomizeInto(r, inner, sub)
		}
		return sub
	default:
		panic(fmt.Sprintf("randgen: unhandled block type %T", b))
	}
}

func randomBinaryLiteral(r *randgen.Rand, bits int) string {
	var sb strings.Builder
	sb.WriteString("0b")
	for i := 0; i < bits; i++ {
		if r.Bool() {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func randomString(r *randgen.Rand, length int, alphabet [64]byte) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[r.Intn(64)]
	}
	return string(out)
}

package spos

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/luxedo/spos/internal/bitstream"
)

func encodeBlock(t *testing.T, b block, val any) []byte {
	t.Helper()
	w := bitstream.NewWriter()
	if err := b.encode(w, val); err != nil {
		t.Fatalf("encode(%v): %v", val, err)
	}
	return w.Bytes()
}

func TestBooleanBlockRoundTrip(t *testing.T) {
	b := booleanBlock{common: common{key: "on"}}
	for _, v := range []bool{true, false} {
		w := bitstream.NewWriter()
		if err := b.encode(w, v); err != nil {
			t.Fatalf("encode: %v", err)
		}
		r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
		got, err := b.decode(r)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != v {
			t.Fatalf("got %v, want %v", got, v)
		}
	}
}

func TestIntegerBlockSaturation(t *testing.T) {
	b := integerBlock{common: common{key: "x"}, bits: 4, mode: integerModeTruncate}
	tests := []struct {
		in, want int64
	}{
		{-5, 0},
		{0, 0},
		{15, 15},
		{100, 15},
	}
	for _, v := range tests {
		w := bitstream.NewWriter()
		if err := b.encode(w, v.in); err != nil {
			t.Fatalf("encode(%d): %v", v.in, err)
		}
		r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
		got, err := b.decode(r)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.(int64) != v.want {
			t.Fatalf("encode/decode(%d) = %d, want %d", v.in, got, v.want)
		}
	}
}

func TestIntegerBlockRemainderWraps(t *testing.T) {
	b := integerBlock{common: common{key: "x"}, bits: 4, mode: integerModeRemainder}
	w := bitstream.NewWriter()
	if err := b.encode(w, int64(20)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.(int64) != 4 { // 20 mod 16 == 4
		t.Fatalf("got %d, want 4", got)
	}
}

func TestIntegerBlockOffset(t *testing.T) {
	b := integerBlock{common: common{key: "x"}, bits: 8, offset: -100, mode: integerModeTruncate}
	w := bitstream.NewWriter()
	if err := b.encode(w, int64(-20)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.(int64) != -20 {
		t.Fatalf("got %d, want -20", got)
	}
}

func TestFloatBlockQuantizes(t *testing.T) {
	b := floatBlock{common: common{key: "x"}, bits: 8, lower: 0, upper: 1, approx: floatApproxRound}
	w := bitstream.NewWriter()
	if err := b.encode(w, 0.5); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gf := got.(float64)
	if gf < 0.49 || gf > 0.51 {
		t.Fatalf("got %v, want ~0.5", gf)
	}
}

func TestFloatBlockClampsOutOfRange(t *testing.T) {
	b := floatBlock{common: common{key: "x"}, bits: 4, lower: 0, upper: 1, approx: floatApproxRound}
	w := bitstream.NewWriter()
	if err := b.encode(w, 5.0); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.(float64) != 1.0 {
		t.Fatalf("got %v, want 1.0 (clamped)", got)
	}
}

func TestBinaryBlockTruncatesAndPads(t *testing.T) {
	b := binaryBlock{common: common{key: "x"}, bits: 4}

	w := bitstream.NewWriter()
	if err := b.encode(w, "0b101011"); err != nil { // too long, truncate trailing bits
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "0b1010" {
		t.Fatalf("got %q, want 0b1010", got)
	}

	w2 := bitstream.NewWriter()
	if err := b.encode(w2, "0b1"); err != nil { // too short, left-pad with zeros
		t.Fatalf("encode: %v", err)
	}
	r2 := bitstream.NewReader(w2.Bytes(), w2.BitsWritten())
	got2, err := b.decode(r2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got2 != "0b0001" {
		t.Fatalf("got %q, want 0b0001", got2)
	}
}

func TestBinaryBlockHexExpandsOddNibbles(t *testing.T) {
	b := binaryBlock{common: common{key: "x"}, bits: 12}
	w := bitstream.NewWriter()
	if err := b.encode(w, "0xFA5"); err != nil { // 3 hex digits -> 12 bits exactly
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "0b111110100101" {
		t.Fatalf("got %q, want 0b111110100101", got)
	}
}

func TestStringBlockTruncatesAndPadsWithSlash(t *testing.T) {
	alphabet := newStringAlphabet(nil)
	b := stringBlock{common: common{key: "x"}, length: 4, alphabet: alphabet, indexOf: stringIndexOf(alphabet)}

	w := bitstream.NewWriter()
	if err := b.encode(w, "abcdef"); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "abcd" {
		t.Fatalf("got %q, want abcd", got)
	}

	w2 := bitstream.NewWriter()
	if err := b.encode(w2, "ab"); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r2 := bitstream.NewReader(w2.Bytes(), w2.BitsWritten())
	got2, err := b.decode(r2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got2 != "ab//" {
		t.Fatalf("got %q, want ab//", got2)
	}
}

func TestStepsBlockBucketsAndReservesErrorCode(t *testing.T) {
	steps := []float64{0, 10, 20}
	names := synthesizeStepsNames(steps)
	b := stepsBlock{common: common{key: "x"}, steps: steps, names: names, bits: bitstream.BitsForCount(len(steps) + 1)}

	tests := []struct {
		in   float64
		want string
	}{
		{-5, names[0]},
		{0, names[1]},
		{15, names[2]},
		{20, names[3]},
		{1000, names[3]},
	}
	for _, v := range tests {
		w := bitstream.NewWriter()
		if err := b.encode(w, v.in); err != nil {
			t.Fatalf("encode(%v): %v", v.in, err)
		}
		r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
		got, err := b.decode(r)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != v.want {
			t.Fatalf("bucketOf(%v) = %q, want %q", v.in, got, v.want)
		}
	}

	// An out-of-range decoded code must surface as the literal "error".
	r := bitstream.NewReader([]byte{0xFF}, b.bits)
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.bits < 8 && got != "error" {
		t.Fatalf("expected reserved error code to decode as \"error\", got %q", got)
	}
}

func TestCategoriesBlockReservedCodes(t *testing.T) {
	b := categoriesBlock{
		common:     common{key: "x"},
		categories: []string{"red", "green", "blue"},
		errorName:  "unknown",
		hasError:   true,
		bits:       bitstream.BitsForCount(4),
	}

	w := bitstream.NewWriter()
	if err := b.encode(w, "green"); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "green" {
		t.Fatalf("got %q, want green", got)
	}

	w2 := bitstream.NewWriter()
	if err := b.encode(w2, "purple"); err != nil { // unknown, falls back to errorName
		t.Fatalf("encode(unknown category): %v", err)
	}
	r2 := bitstream.NewReader(w2.Bytes(), w2.BitsWritten())
	got2, err := b.decode(r2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got2 != "unknown" {
		t.Fatalf("got %q, want unknown", got2)
	}
}

func TestCategoriesBlockNoErrorFallbackRejectsUnknown(t *testing.T) {
	b := categoriesBlock{common: common{key: "x"}, categories: []string{"red"}, bits: bitstream.BitsForCount(2)}
	w := bitstream.NewWriter()
	if err := b.encode(w, "blue"); err == nil {
		t.Fatalf("expected encode error for unknown category with no fallback")
	}
}

func TestArrayBlockDynamicModePrefixesCount(t *testing.T) {
	inner := booleanBlock{}
	b := arrayBlock{length: 5, fixed: false, inner: inner, prefixBits: bitstream.BitsForCount(5)}

	w := bitstream.NewWriter()
	if err := b.encode(w, []any{true, false, true}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []any{true, false, true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("array round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayBlockFixedModeRejectsWrongLength(t *testing.T) {
	b := arrayBlock{length: 3, fixed: true, inner: booleanBlock{}}
	w := bitstream.NewWriter()
	if err := b.encode(w, []any{true, false}); err == nil {
		t.Fatalf("expected error for wrong-length fixed array")
	}
}

func TestObjectBlockDelegatesToInnerBlocklist(t *testing.T) {
	inner := []block{
		booleanBlock{common: common{key: "on"}},
		integerBlock{common: common{key: "level"}, bits: 4, mode: integerModeTruncate},
	}
	b := objectBlock{blocks: inner}

	w := bitstream.NewWriter()
	sub := map[string]any{"on": true, "level": int64(7)}
	if err := b.encode(w, sub); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := got.(map[string]any)
	if m["on"] != true || m["level"].(int64) != 7 {
		t.Fatalf("got %v", m)
	}
}

func TestPadBlockContributesNoOutput(t *testing.T) {
	b := padBlock{bits: 5}
	w := bitstream.NewWriter()
	if err := b.encode(w, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if w.BitsWritten() != 5 {
		t.Fatalf("wrote %d bits, want 5", w.BitsWritten())
	}
	r := bitstream.NewReader(w.Bytes(), w.BitsWritten())
	got, err := b.decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
	if outputKey(b) != "" {
		t.Fatalf("pad block must have no output key")
	}
}

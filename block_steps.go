package spos

import (
	"fmt"
	"strconv"

	"github.com/luxedo/spos/internal/bitstream"
)

// stepsBlock buckets a real value into one of len(steps)+1 half-open
// intervals and encodes the bucket index. One extra code beyond the bucket
// count is reserved so that an invalid decode can be reported as "error"
// rather than colliding with a real bucket.
type stepsBlock struct {
	common
	steps []float64
	names []string // len(steps)+1
	bits  int
}

func synthesizeStepsNames(steps []float64) []string {
	fmtF := func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

	names := make([]string, len(steps)+1)
	names[0] = "x<" + fmtF(steps[0])
	for i := 1; i < len(steps); i++ {
		names[i] = fmt.Sprintf("%s<=x<%s", fmtF(steps[i-1]), fmtF(steps[i]))
	}
	names[len(steps)] = fmtF(steps[len(steps)-1]) + "<=x"
	return names
}

func (b stepsBlock) bucketOf(x float64) int {
	i := 0
	for i < len(b.steps) && x >= b.steps[i] {
		i++
	}
	return i
}

func (b stepsBlock) encode(w *bitstream.Writer, val any) error {
	x, err := coerceFloat64(val)
	if err != nil {
		return err
	}
	w.AppendBits(uint64(b.bucketOf(x)), b.bits)
	return nil
}

func (b stepsBlock) decode(r *bitstream.Reader) (any, error) {
	v, err := r.ReadBits(b.bits)
	if err != nil {
		return nil, ErrTruncatedMessage
	}
	if int(v) >= len(b.names) {
		return "error", nil
	}
	return b.names[v], nil
}

package evaluation

import (
	"errors"
	"fmt"
)

// ErrDegenerateBaseline is returned when a day-before value of -1 makes the
// percent-change denominator zero.
var ErrDegenerateBaseline = errors.New("day-before value of -1 makes percent change undefined")

// PercentChanges computes day-over-day percent change for the real and
// predicted series against the shared day-before baseline:
//
//	delta = (value - dayBefore) / (1 + dayBefore)
//
// All three inputs are normalized series of equal length.
func PercentChanges(dayBefore, yTest, yPredict []float64) (deltaReal, deltaPredict []float64, err error) {
	if len(dayBefore) != len(yTest) || len(yTest) != len(yPredict) {
		return nil, nil, fmt.Errorf("%w: %d day-before, %d real, %d predicted", ErrLengthMismatch, len(dayBefore), len(yTest), len(yPredict))
	}
	deltaReal = make([]float64, len(yTest))
	deltaPredict = make([]float64, len(yTest))
	for i, db := range dayBefore {
		denom := 1 + db
		if denom == 0 {
			return nil, nil, fmt.Errorf("window %d: %w", i, ErrDegenerateBaseline)
		}
		deltaReal[i] = (yTest[i] - db) / denom
		deltaPredict[i] = (yPredict[i] - db) / denom
	}
	return deltaReal, deltaPredict, nil
}

// Binarize maps percent changes to direction labels: 1 for an increase,
// 0 otherwise. An exact zero counts as a decrease.
func Binarize(deltas []float64) []int {
	labels := make([]int, len(deltas))
	for i, d := range deltas {
		if d > 0 {
			labels[i] = 1
		}
	}
	return labels
}

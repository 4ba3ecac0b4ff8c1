package evaluation

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoPositivePredictions is returned when precision is undefined
	// because the model never predicted an increase.
	ErrNoPositivePredictions = errors.New("no positive predictions, precision undefined")
	// ErrNoPositiveActuals is returned when recall is undefined because no
	// actual increase occurred.
	ErrNoPositiveActuals = errors.New("no positive actuals, recall undefined")
	// ErrNoPositives is returned when F1 is undefined because precision and
	// recall are both zero.
	ErrNoPositives = errors.New("precision and recall both zero, F1 undefined")
	// ErrEmptySeries is returned when there is nothing to score.
	ErrEmptySeries = errors.New("empty series")
)

// Stats holds the confusion matrix and derived statistics of a run,
// treating the real direction as ground truth and "up" as the positive
// class. MSE is computed over the normalized series, not the labels.
type Stats struct {
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	TrueNegatives  int     `json:"true_negatives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
	MSE            float64 `json:"mse"`
}

// Score binarizes the percent-change series, fills the confusion matrix and
// computes precision, recall, F1 and the mean squared error between the
// normalized predicted and real series.
//
// Empty confusion-matrix categories surface as typed errors rather than
// NaN: the partially filled Stats is still returned alongside the error so
// callers can report the counts.
func Score(deltaPredict, deltaReal, predicted, actual []float64) (*Stats, error) {
	if len(deltaPredict) == 0 {
		return nil, ErrEmptySeries
	}
	if len(deltaPredict) != len(deltaReal) || len(predicted) != len(actual) {
		return nil, fmt.Errorf("%w: %d vs %d deltas, %d vs %d series", ErrLengthMismatch, len(deltaPredict), len(deltaReal), len(predicted), len(actual))
	}

	predLabels := Binarize(deltaPredict)
	realLabels := Binarize(deltaReal)

	s := &Stats{}
	for i := range predLabels {
		switch {
		case predLabels[i] == 1 && realLabels[i] == 1:
			s.TruePositives++
		case predLabels[i] == 1 && realLabels[i] == 0:
			s.FalsePositives++
		case predLabels[i] == 0 && realLabels[i] == 0:
			s.TrueNegatives++
		default:
			s.FalseNegatives++
		}
	}
	s.MSE = meanSquaredError(predicted, actual)

	if s.TruePositives+s.FalsePositives == 0 {
		return s, ErrNoPositivePredictions
	}
	if s.TruePositives+s.FalseNegatives == 0 {
		return s, ErrNoPositiveActuals
	}
	s.Precision = float64(s.TruePositives) / float64(s.TruePositives+s.FalsePositives)
	s.Recall = float64(s.TruePositives) / float64(s.TruePositives+s.FalseNegatives)
	if s.Precision+s.Recall == 0 {
		return s, ErrNoPositives
	}
	s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	return s, nil
}

func meanSquaredError(predicted, actual []float64) float64 {
	if len(predicted) == 0 {
		return 0
	}
	sum := 0.0
	for i := range predicted {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return sum / float64(len(predicted))
}

// Distribution summarizes a series the way run reports print it.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Describe computes distribution statistics over a series.
func Describe(series []float64) (*Distribution, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	sorted := append([]float64(nil), series...)
	sort.Float64s(sorted)
	d := &Distribution{
		Mean:   stat.Mean(series, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if len(series) > 1 {
		d.StdDev = stat.StdDev(series, nil)
	}
	return d, nil
}

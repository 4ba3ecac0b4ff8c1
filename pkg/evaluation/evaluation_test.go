package evaluation

import (
	"errors"
	"math"
	"testing"

	"github.com/trendcast/pkg/rnn"
)

func TestEvaluateReconstructsRealPrices(t *testing.T) {
	net, err := rnn.New(rnn.Config{InputSize: 1, WindowSize: 3, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	xTest := [][][]float64{
		{{0}, {0.01}, {0.02}},
		{{0}, {0.02}, {0.04}},
	}
	yTest := []float64{0.05, -0.02}
	bases := []float64{100, 200}

	ev, err := Evaluate(net, xTest, yTest, bases)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// base=100, normalized 0.05 -> 105.0
	if math.Abs(ev.RealYTest[0]-105.0) > 1e-9 {
		t.Errorf("expected real price 105.0, got %v", ev.RealYTest[0])
	}
	if math.Abs(ev.RealYTest[1]-196.0) > 1e-9 {
		t.Errorf("expected real price 196.0, got %v", ev.RealYTest[1])
	}
	for i := range ev.Predicted {
		want := (ev.Predicted[i] + 1) * bases[i]
		if math.Abs(ev.RealPredicted[i]-want) > 1e-12 {
			t.Errorf("window %d: reconstruction mismatch: %v vs %v", i, ev.RealPredicted[i], want)
		}
	}
}

func TestEvaluateRejectsMismatchedLengths(t *testing.T) {
	net, err := rnn.New(rnn.Config{InputSize: 1, WindowSize: 3, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = Evaluate(net, [][][]float64{{{0}, {0}, {0}}}, []float64{1, 2}, []float64{100})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestPercentChangesWorkedExample(t *testing.T) {
	// dayBefore=0.10, yTest=0.20, yPredict=0.15
	deltaReal, deltaPredict, err := PercentChanges([]float64{0.10}, []float64{0.20}, []float64{0.15})
	if err != nil {
		t.Fatalf("PercentChanges: %v", err)
	}
	if math.Abs(deltaReal[0]-0.1/1.1) > 1e-9 {
		t.Errorf("expected delta_real %.6f, got %v", 0.1/1.1, deltaReal[0])
	}
	if math.Abs(deltaPredict[0]-0.05/1.1) > 1e-9 {
		t.Errorf("expected delta_predict %.6f, got %v", 0.05/1.1, deltaPredict[0])
	}
}

func TestPercentChangesDegenerateBaseline(t *testing.T) {
	_, _, err := PercentChanges([]float64{-1}, []float64{0}, []float64{0})
	if !errors.Is(err, ErrDegenerateBaseline) {
		t.Errorf("expected ErrDegenerateBaseline, got %v", err)
	}
}

func TestBinarizeZeroMapsToDown(t *testing.T) {
	labels := Binarize([]float64{0.01, 0, -0.01})
	want := []int{1, 0, 0}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("delta %d: label %d, want %d", i, labels[i], want[i])
		}
	}
}

func TestScoreWorkedExampleIsTruePositive(t *testing.T) {
	deltaReal := []float64{0.1 / 1.1}
	deltaPredict := []float64{0.05 / 1.1}
	stats, err := Score(deltaPredict, deltaReal, []float64{0.15}, []float64{0.20})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if stats.TruePositives != 1 || stats.FalsePositives != 0 || stats.TrueNegatives != 0 || stats.FalseNegatives != 0 {
		t.Errorf("expected a single true positive, got %+v", stats)
	}
	if stats.Precision != 1 || stats.Recall != 1 || stats.F1 != 1 {
		t.Errorf("expected perfect scores, got %+v", stats)
	}
	if math.Abs(stats.MSE-0.0025) > 1e-12 {
		t.Errorf("expected MSE 0.0025, got %v", stats.MSE)
	}
}

func TestScoreConfusionCountsSum(t *testing.T) {
	deltaPredict := []float64{0.1, -0.1, 0.2, 0, -0.3, 0.05}
	deltaReal := []float64{0.2, 0.1, -0.1, 0, -0.2, 0.01}
	stats, err := Score(deltaPredict, deltaReal, deltaPredict, deltaReal)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	total := stats.TruePositives + stats.FalsePositives + stats.TrueNegatives + stats.FalseNegatives
	if total != len(deltaReal) {
		t.Errorf("confusion counts sum to %d, want %d", total, len(deltaReal))
	}
}

func TestScoreEmptyCategories(t *testing.T) {
	// Model never predicts an increase: precision undefined.
	stats, err := Score([]float64{-0.1, -0.2}, []float64{0.1, -0.1}, []float64{0, 0}, []float64{0, 0})
	if !errors.Is(err, ErrNoPositivePredictions) {
		t.Errorf("expected ErrNoPositivePredictions, got %v", err)
	}
	if stats == nil || stats.FalseNegatives != 1 {
		t.Errorf("expected counts alongside the error, got %+v", stats)
	}

	// No actual increase: recall undefined.
	_, err = Score([]float64{0.1, -0.2}, []float64{-0.1, -0.1}, []float64{0, 0}, []float64{0, 0})
	if !errors.Is(err, ErrNoPositiveActuals) {
		t.Errorf("expected ErrNoPositiveActuals, got %v", err)
	}

	// Positives exist on both sides but never coincide: F1 undefined.
	_, err = Score([]float64{0.1, -0.1}, []float64{-0.1, 0.1}, []float64{0, 0}, []float64{0, 0})
	if !errors.Is(err, ErrNoPositives) {
		t.Errorf("expected ErrNoPositives, got %v", err)
	}

	if _, err := Score(nil, nil, nil, nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	d, err := Describe([]float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if d.Mean != 3 || d.Min != 1 || d.Max != 5 || d.Median != 3 {
		t.Errorf("unexpected distribution: %+v", d)
	}
	if _, err := Describe(nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
}

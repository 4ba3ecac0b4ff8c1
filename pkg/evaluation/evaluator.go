package evaluation

import (
	"errors"
	"fmt"

	"github.com/trendcast/pkg/rnn"
)

// ErrLengthMismatch is returned when parallel series differ in length.
var ErrLengthMismatch = errors.New("series length mismatch")

// Evaluation holds model output on the test partition in both normalized
// and reconstructed real-price form.
type Evaluation struct {
	// Predicted is the raw normalized model output per test window.
	Predicted []float64
	// RealPredicted is Predicted mapped back to price space via the
	// window base: (normalized + 1) * base.
	RealPredicted []float64
	// RealYTest is the ground-truth series mapped back the same way.
	RealYTest []float64
}

// Evaluate runs inference over the test windows and inverts the
// within-window price normalization using the raw window bases.
func Evaluate(net *rnn.Network, xTest [][][]float64, yTest, bases []float64) (*Evaluation, error) {
	if len(xTest) != len(yTest) || len(yTest) != len(bases) {
		return nil, fmt.Errorf("%w: %d windows, %d targets, %d bases", ErrLengthMismatch, len(xTest), len(yTest), len(bases))
	}
	predicted, err := net.PredictBatch(xTest)
	if err != nil {
		return nil, err
	}

	ev := &Evaluation{
		Predicted:     predicted,
		RealPredicted: make([]float64, len(predicted)),
		RealYTest:     make([]float64, len(yTest)),
	}
	for i := range predicted {
		ev.RealPredicted[i] = (predicted[i] + 1) * bases[i]
		ev.RealYTest[i] = (yTest[i] + 1) * bases[i]
	}
	return ev, nil
}

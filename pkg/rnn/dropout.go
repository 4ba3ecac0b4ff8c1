package rnn

import "math/rand"

// dropoutLayer applies inverted dropout per timestep during training and is
// a no-op at inference.
type dropoutLayer struct {
	rate  float64
	masks [][]float64
}

func newDropout(rate float64) *dropoutLayer {
	return &dropoutLayer{rate: rate}
}

func (d *dropoutLayer) forward(seq [][]float64, training bool, rng *rand.Rand) [][]float64 {
	if !training || d.rate <= 0 {
		d.masks = nil
		return seq
	}
	keep := 1 - d.rate
	out := make([][]float64, len(seq))
	d.masks = make([][]float64, len(seq))
	for t, row := range seq {
		mask := make([]float64, len(row))
		dropped := make([]float64, len(row))
		for i := range row {
			if rng.Float64() < keep {
				mask[i] = 1 / keep
				dropped[i] = row[i] * mask[i]
			}
		}
		d.masks[t] = mask
		out[t] = dropped
	}
	return out
}

func (d *dropoutLayer) backward(dOut [][]float64) [][]float64 {
	if d.masks == nil {
		return dOut
	}
	dIn := make([][]float64, len(dOut))
	for t, row := range dOut {
		dIn[t] = make([]float64, len(row))
		for i := range row {
			dIn[t][i] = row[i] * d.masks[t][i]
		}
	}
	return dIn
}

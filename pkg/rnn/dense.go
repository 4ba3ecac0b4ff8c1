package rnn

import "math/rand"

// Dense is the final single-unit linear projection off the last timestep.
type Dense struct {
	W []float64 `json:"w"`
	B []float64 `json:"b"` // single element

	input []float64
	gW    []float64
	gB    []float64
}

func newDenseOut(inputSize int, rng *rand.Rand) *Dense {
	return &Dense{
		W:  randomVector(inputSize, rng),
		B:  randomVector(1, rng),
		gW: make([]float64, inputSize),
		gB: make([]float64, 1),
	}
}

func (d *Dense) forward(v []float64) float64 {
	d.input = v
	sum := d.B[0]
	for i, w := range d.W {
		sum += w * v[i]
	}
	return sum
}

func (d *Dense) backward(dY float64) []float64 {
	dIn := make([]float64, len(d.W))
	for i := range d.W {
		d.gW[i] += dY * d.input[i]
		dIn[i] = dY * d.W[i]
	}
	d.gB[0] += dY
	return dIn
}

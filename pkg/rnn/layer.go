package rnn

import "math/rand"

// direction holds the parameters and per-sequence caches of one recurrence
// direction of a bidirectional layer.
type direction struct {
	Wx [][]float64 `json:"wx"` // input weights, inputSize x hidden
	Wh [][]float64 `json:"wh"` // recurrent weights, hidden x hidden
	B  []float64   `json:"b"`  // hidden biases

	// caches from the latest forward pass
	inputs [][]float64
	pres   [][]float64
	hs     [][]float64

	// accumulated gradients
	gWx [][]float64
	gWh [][]float64
	gB  []float64
}

func newDirection(inputSize, hidden int, rng *rand.Rand) *direction {
	d := &direction{
		Wx:  randomMatrix(inputSize, hidden, rng),
		Wh:  randomMatrix(hidden, hidden, rng),
		B:   randomVector(hidden, rng),
		gWx: zeroMatrix(inputSize, hidden),
		gWh: zeroMatrix(hidden, hidden),
		gB:  make([]float64, hidden),
	}
	return d
}

// forward runs the recurrence over seq in the given time order and caches
// everything backward needs. order is +1 for the forward direction and -1
// for the reversed one; the returned hidden states are indexed by the
// original timestep either way.
func (d *direction) forward(seq [][]float64, act *activation, order int) [][]float64 {
	T := len(seq)
	hidden := len(d.B)
	d.inputs = seq
	d.pres = make([][]float64, T)
	d.hs = make([][]float64, T)

	prev := make([]float64, hidden)
	start, end := 0, T
	if order < 0 {
		start, end = T-1, -1
	}
	for t := start; t != end; t += order {
		x := seq[t]
		pre := make([]float64, hidden)
		h := make([]float64, hidden)
		for j := 0; j < hidden; j++ {
			sum := d.B[j]
			for i, xi := range x {
				sum += xi * d.Wx[i][j]
			}
			for i, hi := range prev {
				sum += hi * d.Wh[i][j]
			}
			pre[j] = sum
			h[j] = act.apply(sum)
		}
		d.pres[t] = pre
		d.hs[t] = h
		prev = h
	}
	return d.hs
}

// backward propagates dH (gradient per original timestep with respect to
// this direction's hidden state) through the recurrence, accumulating
// parameter gradients and returning the gradient with respect to the inputs.
func (d *direction) backward(dH [][]float64, act *activation, order int) [][]float64 {
	T := len(d.inputs)
	hidden := len(d.B)
	dIn := make([][]float64, T)
	for t := range dIn {
		dIn[t] = make([]float64, len(d.inputs[t]))
	}

	// Walk time in the reverse of the forward order.
	carry := make([]float64, hidden)
	start, end := T-1, -1
	if order < 0 {
		start, end = 0, T
	}
	for t := start; t != end; t -= order {
		dPre := make([]float64, hidden)
		for j := 0; j < hidden; j++ {
			dPre[j] = (dH[t][j] + carry[j]) * act.deriv(d.pres[t][j], d.hs[t][j])
		}

		// The first step in forward order ran from the zero state.
		var prev []float64
		if t != end+order {
			prev = d.hs[t-order]
		}
		for i, xi := range d.inputs[t] {
			for j := 0; j < hidden; j++ {
				d.gWx[i][j] += dPre[j] * xi
				dIn[t][i] += dPre[j] * d.Wx[i][j]
			}
		}
		if prev != nil {
			for i, hi := range prev {
				for j := 0; j < hidden; j++ {
					d.gWh[i][j] += dPre[j] * hi
				}
			}
		}
		for j := 0; j < hidden; j++ {
			d.gB[j] += dPre[j]
		}

		// carry to the previous step in forward order: Wh^T * dPre
		for i := 0; i < hidden; i++ {
			sum := 0.0
			for j := 0; j < hidden; j++ {
				sum += dPre[j] * d.Wh[i][j]
			}
			carry[i] = sum
		}
	}
	return dIn
}

// BiLayer is one bidirectional recurrent layer. Its output at each timestep
// is the concatenation of the forward and reversed hidden states, so the
// output width is 2*Hidden.
type BiLayer struct {
	InputSize int        `json:"input_size"`
	Hidden    int        `json:"hidden"`
	Fwd       *direction `json:"fwd"`
	Bwd       *direction `json:"bwd"`

	act *activation
}

func newBiLayer(inputSize, hidden int, act *activation, rng *rand.Rand) *BiLayer {
	return &BiLayer{
		InputSize: inputSize,
		Hidden:    hidden,
		Fwd:       newDirection(inputSize, hidden, rng),
		Bwd:       newDirection(inputSize, hidden, rng),
		act:       act,
	}
}

func (l *BiLayer) forward(seq [][]float64) [][]float64 {
	fh := l.Fwd.forward(seq, l.act, +1)
	bh := l.Bwd.forward(seq, l.act, -1)
	out := make([][]float64, len(seq))
	for t := range out {
		row := make([]float64, 2*l.Hidden)
		copy(row, fh[t])
		copy(row[l.Hidden:], bh[t])
		out[t] = row
	}
	return out
}

func (l *BiLayer) backward(dOut [][]float64) [][]float64 {
	T := len(dOut)
	dFwd := make([][]float64, T)
	dBwd := make([][]float64, T)
	for t := range dOut {
		dFwd[t] = dOut[t][:l.Hidden]
		dBwd[t] = dOut[t][l.Hidden:]
	}
	dInF := l.Fwd.backward(dFwd, l.act, +1)
	dInB := l.Bwd.backward(dBwd, l.act, -1)
	for t := range dInF {
		for i := range dInF[t] {
			dInF[t][i] += dInB[t][i]
		}
	}
	return dInF
}

func randomMatrix(rows, cols int, rng *rand.Rand) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = (rng.Float64() - 0.5) * 0.1
		}
	}
	return m
}

func randomVector(n int, rng *rand.Rand) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = (rng.Float64() - 0.5) * 0.1
	}
	return v
}

func zeroMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

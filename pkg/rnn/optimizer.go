package rnn

import (
	"fmt"
	"math"
)

// gradClip bounds per-value BPTT gradients before an update step.
const gradClip = 5.0

// paramTensor is a flat view over one row of weights with its accumulated
// gradient and optimizer state.
type paramTensor struct {
	w, g []float64
	m, v []float64 // momentum / first and second Adam moments
}

func (p *paramTensor) zeroGrad() {
	for i := range p.g {
		p.g[i] = 0
	}
}

type optimizer interface {
	// step applies the accumulated gradients, scaled by scale (typically
	// 1/batchSize), to every parameter tensor.
	step(params []*paramTensor, lr, scale float64)
}

func resolveOptimizer(name string) (optimizer, error) {
	switch name {
	case "", "sgd":
		return &sgd{}, nil
	case "momentum":
		return &momentum{mu: 0.9}, nil
	case "adam":
		return &adam{beta1: 0.9, beta2: 0.999, eps: 1e-8}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOptimizer, name)
}

type sgd struct{}

func (o *sgd) step(params []*paramTensor, lr, scale float64) {
	for _, p := range params {
		for i := range p.w {
			p.w[i] -= lr * clip(p.g[i]*scale)
		}
		p.zeroGrad()
	}
}

type momentum struct {
	mu float64
}

func (o *momentum) step(params []*paramTensor, lr, scale float64) {
	for _, p := range params {
		if p.m == nil {
			p.m = make([]float64, len(p.w))
		}
		for i := range p.w {
			p.m[i] = o.mu*p.m[i] + clip(p.g[i]*scale)
			p.w[i] -= lr * p.m[i]
		}
		p.zeroGrad()
	}
}

type adam struct {
	beta1, beta2, eps float64
	t                 int
}

func (o *adam) step(params []*paramTensor, lr, scale float64) {
	o.t++
	c1 := 1 - math.Pow(o.beta1, float64(o.t))
	c2 := 1 - math.Pow(o.beta2, float64(o.t))
	for _, p := range params {
		if p.m == nil {
			p.m = make([]float64, len(p.w))
			p.v = make([]float64, len(p.w))
		}
		for i := range p.w {
			g := clip(p.g[i] * scale)
			p.m[i] = o.beta1*p.m[i] + (1-o.beta1)*g
			p.v[i] = o.beta2*p.v[i] + (1-o.beta2)*g*g
			mhat := p.m[i] / c1
			vhat := p.v[i] / c2
			p.w[i] -= lr * mhat / (math.Sqrt(vhat) + o.eps)
		}
		p.zeroGrad()
	}
}

func clip(g float64) float64 {
	if g > gradClip {
		return gradClip
	}
	if g < -gradClip {
		return -gradClip
	}
	return g
}

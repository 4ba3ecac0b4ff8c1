package rnn

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownActivation is returned for an unrecognized activation name.
	ErrUnknownActivation = errors.New("unknown activation")
	// ErrUnknownLoss is returned for an unrecognized loss name.
	ErrUnknownLoss = errors.New("unknown loss")
	// ErrUnknownOptimizer is returned for an unrecognized optimizer name.
	ErrUnknownOptimizer = errors.New("unknown optimizer")
)

// activation is a pointwise nonlinearity with its derivative.
// deriv receives both the pre-activation and the activated output so tanh
// can use the cheaper 1-h^2 form.
type activation struct {
	name  string
	apply func(x float64) float64
	deriv func(pre, out float64) float64
}

func resolveActivation(name string) (*activation, error) {
	switch name {
	case "", "tanh":
		return &activation{
			name:  "tanh",
			apply: math.Tanh,
			deriv: func(_, out float64) float64 { return 1 - out*out },
		}, nil
	case "relu":
		return &activation{
			name:  "relu",
			apply: func(x float64) float64 { return math.Max(0, x) },
			deriv: func(pre, _ float64) float64 {
				if pre > 0 {
					return 1
				}
				return 0
			},
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
}

// loss maps a scalar prediction and target to a loss value and its gradient
// with respect to the prediction.
type loss struct {
	name  string
	value func(pred, target float64) float64
	deriv func(pred, target float64) float64
}

func resolveLoss(name string) (*loss, error) {
	switch name {
	case "", "mse":
		return &loss{
			name:  "mse",
			value: func(p, y float64) float64 { d := p - y; return d * d },
			deriv: func(p, y float64) float64 { return 2 * (p - y) },
		}, nil
	case "mae":
		return &loss{
			name:  "mae",
			value: func(p, y float64) float64 { return math.Abs(p - y) },
			deriv: func(p, y float64) float64 {
				if p > y {
					return 1
				}
				if p < y {
					return -1
				}
				return 0
			},
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLoss, name)
}

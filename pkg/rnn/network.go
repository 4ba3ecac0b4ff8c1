package rnn

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrBadTopology is returned when the configuration cannot produce a
	// usable network.
	ErrBadTopology = errors.New("invalid network topology")
	// ErrBadSequence is returned when an input sequence does not match the
	// network's expected shape.
	ErrBadSequence = errors.New("sequence shape does not match network")
)

// Config describes the fixed network topology and its training knobs.
// WindowSize is the number of timesteps per input sequence and also sets the
// layer widths; InputSize is the number of feature columns per timestep.
type Config struct {
	InputSize  int     `json:"input_size"`
	WindowSize int     `json:"window_size"`
	Dropout    float64 `json:"dropout"`
	Activation string  `json:"activation"` // "tanh" (default) or "relu"
	Loss       string  `json:"loss"`       // "mse" (default) or "mae"
	Optimizer  string  `json:"optimizer"`  // "sgd" (default), "momentum" or "adam"
	Seed       int64   `json:"seed"`
}

// Network is a stack of three bidirectional recurrent layers with widths
// windowSize, 2*windowSize and windowSize, inverted dropout after the first
// two, and a single-unit linear projection off the last timestep.
//
// Weights are plain float64 slices so the whole network serializes to JSON
// for persistence, in the same shape it trains in.
type Network struct {
	Config Config     `json:"config"`
	Layers []*BiLayer `json:"layers"`
	Output *Dense     `json:"output"`

	drops  []*dropoutLayer
	act    *activation
	rng    *rand.Rand
	params []*paramTensor
}

// New builds a network with freshly initialized weights.
func New(cfg Config) (*Network, error) {
	if cfg.InputSize < 1 || cfg.WindowSize < 1 {
		return nil, fmt.Errorf("%w: input size %d, window size %d", ErrBadTopology, cfg.InputSize, cfg.WindowSize)
	}
	if cfg.Dropout < 0 || cfg.Dropout >= 1 {
		return nil, fmt.Errorf("%w: dropout %v", ErrBadTopology, cfg.Dropout)
	}
	act, err := resolveActivation(cfg.Activation)
	if err != nil {
		return nil, err
	}
	if _, err := resolveLoss(cfg.Loss); err != nil {
		return nil, err
	}
	if _, err := resolveOptimizer(cfg.Optimizer); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	w := cfg.WindowSize
	n := &Network{
		Config: cfg,
		Layers: []*BiLayer{
			newBiLayer(cfg.InputSize, w, act, rng),
			newBiLayer(2*w, 2*w, act, rng),
			newBiLayer(4*w, w, act, rng),
		},
		Output: newDenseOut(2*w, rng),
		act:    act,
		rng:    rng,
	}
	n.drops = []*dropoutLayer{newDropout(cfg.Dropout), newDropout(cfg.Dropout)}
	n.collectParams()
	return n, nil
}

// Marshal serializes the network configuration and weights.
func (n *Network) Marshal() ([]byte, error) {
	return json.Marshal(n)
}

// Unmarshal reconstructs a trained network from Marshal output.
func Unmarshal(data []byte) (*Network, error) {
	n := &Network{}
	if err := json.Unmarshal(data, n); err != nil {
		return nil, err
	}
	if err := n.initDeserialized(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Network) initDeserialized() error {
	if len(n.Layers) != 3 || n.Output == nil {
		return fmt.Errorf("%w: expected 3 layers and an output head", ErrBadTopology)
	}
	act, err := resolveActivation(n.Config.Activation)
	if err != nil {
		return err
	}
	n.act = act
	for _, l := range n.Layers {
		l.act = act
		for _, d := range []*direction{l.Fwd, l.Bwd} {
			if d == nil || len(d.Wx) == 0 || len(d.Wh) == 0 {
				return fmt.Errorf("%w: missing direction weights", ErrBadTopology)
			}
			d.gWx = zeroMatrix(len(d.Wx), len(d.Wx[0]))
			d.gWh = zeroMatrix(len(d.Wh), len(d.Wh[0]))
			d.gB = make([]float64, len(d.B))
		}
	}
	n.Output.gW = make([]float64, len(n.Output.W))
	n.Output.gB = make([]float64, 1)
	n.drops = []*dropoutLayer{newDropout(n.Config.Dropout), newDropout(n.Config.Dropout)}
	n.rng = rand.New(rand.NewSource(n.Config.Seed))
	n.collectParams()
	return nil
}

func (n *Network) collectParams() {
	var params []*paramTensor
	addMatrix := func(w, g [][]float64) {
		for i := range w {
			params = append(params, &paramTensor{w: w[i], g: g[i]})
		}
	}
	for _, l := range n.Layers {
		for _, d := range []*direction{l.Fwd, l.Bwd} {
			addMatrix(d.Wx, d.gWx)
			addMatrix(d.Wh, d.gWh)
			params = append(params, &paramTensor{w: d.B, g: d.gB})
		}
	}
	params = append(params, &paramTensor{w: n.Output.W, g: n.Output.gW})
	params = append(params, &paramTensor{w: n.Output.B, g: n.Output.gB})
	n.params = params
}

func (n *Network) checkSequence(seq [][]float64) error {
	if len(seq) != n.Config.WindowSize {
		return fmt.Errorf("%w: %d timesteps, want %d", ErrBadSequence, len(seq), n.Config.WindowSize)
	}
	for t, row := range seq {
		if len(row) != n.Config.InputSize {
			return fmt.Errorf("%w: step %d has %d features, want %d", ErrBadSequence, t, len(row), n.Config.InputSize)
		}
	}
	return nil
}

// forward runs the full stack and caches intermediates for backward.
func (n *Network) forward(seq [][]float64, training bool) float64 {
	out := n.Layers[0].forward(seq)
	out = n.drops[0].forward(out, training, n.rng)
	out = n.Layers[1].forward(out)
	out = n.drops[1].forward(out, training, n.rng)
	out = n.Layers[2].forward(out)
	return n.Output.forward(out[len(out)-1])
}

// backward accumulates gradients given the loss derivative at the output.
func (n *Network) backward(dLoss float64) {
	dLast := n.Output.backward(dLoss)

	// Only the last timestep feeds the output head.
	T := n.Config.WindowSize
	dOut := make([][]float64, T)
	for t := 0; t < T; t++ {
		dOut[t] = make([]float64, 2*n.Config.WindowSize)
	}
	dOut[T-1] = dLast

	d := n.Layers[2].backward(dOut)
	d = n.drops[1].backward(d)
	d = n.Layers[1].backward(d)
	d = n.drops[0].backward(d)
	n.Layers[0].backward(d)
}

// Predict runs inference on one normalized window.
func (n *Network) Predict(seq [][]float64) (float64, error) {
	if err := n.checkSequence(seq); err != nil {
		return 0, err
	}
	return n.forward(seq, false), nil
}

// PredictBatch runs inference over a set of windows, preserving order.
func (n *Network) PredictBatch(seqs [][][]float64) ([]float64, error) {
	out := make([]float64, len(seqs))
	for i, seq := range seqs {
		p, err := n.Predict(seq)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

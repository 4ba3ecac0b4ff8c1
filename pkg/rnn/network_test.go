package rnn

import (
	"errors"
	"math"
	"testing"
)

func testConfig() Config {
	return Config{InputSize: 2, WindowSize: 4, Dropout: 0.2, Seed: 1}
}

func testSequence() [][]float64 {
	return [][]float64{{0, 1}, {0.01, 1.1}, {0.02, 1.2}, {0.03, 1.3}}
}

func TestNewRejectsUnknownIdentifiers(t *testing.T) {
	cfg := testConfig()
	cfg.Activation = "sigmoid"
	if _, err := New(cfg); !errors.Is(err, ErrUnknownActivation) {
		t.Errorf("expected ErrUnknownActivation, got %v", err)
	}

	cfg = testConfig()
	cfg.Loss = "hinge"
	if _, err := New(cfg); !errors.Is(err, ErrUnknownLoss) {
		t.Errorf("expected ErrUnknownLoss, got %v", err)
	}

	cfg = testConfig()
	cfg.Optimizer = "rprop"
	if _, err := New(cfg); !errors.Is(err, ErrUnknownOptimizer) {
		t.Errorf("expected ErrUnknownOptimizer, got %v", err)
	}

	cfg = testConfig()
	cfg.Dropout = 1
	if _, err := New(cfg); !errors.Is(err, ErrBadTopology) {
		t.Errorf("expected ErrBadTopology for dropout 1, got %v", err)
	}
}

func TestLayerWidthsFollowWindowSize(t *testing.T) {
	net, err := New(Config{InputSize: 3, WindowSize: 5, Seed: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	widths := []int{5, 10, 5}
	for i, l := range net.Layers {
		if l.Hidden != widths[i] {
			t.Errorf("layer %d: hidden %d, want %d", i, l.Hidden, widths[i])
		}
	}
	if len(net.Output.W) != 10 {
		t.Errorf("output head width %d, want 10", len(net.Output.W))
	}
}

func TestPredictDeterministicForFixedSeed(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seq := testSequence()
	pa, err := a.Predict(seq)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	pb, err := b.Predict(seq)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pa != pb {
		t.Errorf("same seed, different predictions: %v vs %v", pa, pb)
	}
	if math.IsNaN(pa) || math.IsInf(pa, 0) {
		t.Errorf("prediction not finite: %v", pa)
	}
}

func TestDropoutDisabledAtInference(t *testing.T) {
	cfg := testConfig()
	cfg.Dropout = 0.5
	net, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seq := testSequence()
	p1, _ := net.Predict(seq)
	p2, _ := net.Predict(seq)
	if p1 != p2 {
		t.Errorf("inference not deterministic with dropout configured: %v vs %v", p1, p2)
	}
}

func TestPredictRejectsWrongShape(t *testing.T) {
	net, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := net.Predict([][]float64{{0, 1}}); !errors.Is(err, ErrBadSequence) {
		t.Errorf("expected ErrBadSequence for short sequence, got %v", err)
	}
	bad := testSequence()
	bad[2] = []float64{1}
	if _, err := net.Predict(bad); !errors.Is(err, ErrBadSequence) {
		t.Errorf("expected ErrBadSequence for narrow row, got %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	net, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seq := testSequence()
	before, _ := net.Predict(seq)

	data, err := net.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	loaded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	after, err := loaded.Predict(seq)
	if err != nil {
		t.Fatalf("Predict after load: %v", err)
	}
	if math.Abs(before-after) > 1e-12 {
		t.Errorf("round-trip changed prediction: %v vs %v", before, after)
	}
}

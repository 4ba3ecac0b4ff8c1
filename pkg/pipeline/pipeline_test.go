package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func oscillatingRows(n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		price := 100 + 0.5*float64(i) + 3*math.Sin(float64(i))
		rows[i] = []float64{price, 1000 + 10*float64(i%5)}
	}
	return rows
}

func testConfig() Config {
	return Config{
		Symbol:         "BTCUSDT",
		Rows:           oscillatingRows(80),
		SequenceLength: 6,
		Seed:           11,
		Dropout:        0.1,
		BatchSize:      8,
		Epochs:         3,
		LearningRate:   0.01,
	}
}

func TestRunEndToEnd(t *testing.T) {
	res, err := Run(context.Background(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Split.WindowSize != 5 {
		t.Errorf("window size %d, want 5", res.Split.WindowSize)
	}
	numWindows := 80 - 6
	if got := len(res.Split.XTrain) + len(res.Split.XTest); got != numWindows {
		t.Errorf("total windows %d, want %d", got, numWindows)
	}

	if len(res.Evaluation.Predicted) != len(res.Split.XTest) {
		t.Errorf("predictions %d, want %d", len(res.Evaluation.Predicted), len(res.Split.XTest))
	}
	for i, p := range res.Evaluation.RealPredicted {
		want := (res.Evaluation.Predicted[i] + 1) * res.Split.UnnormalizedBases[i]
		if math.Abs(p-want) > 1e-12 {
			t.Fatalf("window %d: real reconstruction mismatch", i)
		}
	}

	total := res.Stats.TruePositives + res.Stats.FalsePositives + res.Stats.TrueNegatives + res.Stats.FalseNegatives
	if total != len(res.Split.XTest) {
		t.Errorf("confusion counts sum to %d, want %d", total, len(res.Split.XTest))
	}
	if res.FitReport.Elapsed <= 0 {
		t.Errorf("expected positive training time")
	}
	if res.DeltaSummary == nil {
		t.Errorf("expected a delta distribution summary")
	}
}

func TestRunPropagatesWindowingErrors(t *testing.T) {
	cfg := testConfig()
	cfg.SequenceLength = 200
	if _, err := Run(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for sequence length longer than input")
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, testConfig(), zerolog.Nop()); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestSummary(t *testing.T) {
	res, err := Run(context.Background(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	sum := res.Summary("BTCUSDT", 6, 3)
	if sum.Symbol != "BTCUSDT" || sum.SequenceLength != 6 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.TrainWindows != len(res.Split.XTrain) || sum.TestWindows != len(res.Split.XTest) {
		t.Errorf("summary window counts do not match split: %+v", sum)
	}
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendcast/pkg/candle"
	"github.com/trendcast/pkg/common"
	"github.com/trendcast/pkg/dataset"
	"github.com/trendcast/pkg/evaluation"
	"github.com/trendcast/pkg/rnn"
)

// Config gathers every knob of one end-to-end run, replacing ad-hoc global
// state with a single value threaded through the stages.
type Config struct {
	Symbol         string
	CSVPath        string // ignored when Rows is set
	Rows           [][]float64
	SequenceLength int
	TrainFraction  float64
	Seed           int64

	Dropout    float64
	Activation string
	Loss       string
	Optimizer  string

	BatchSize       int
	Epochs          int
	ValidationSplit float64
	LearningRate    float64
	Patience        int
}

// Result is everything one run produces, in stage order.
type Result struct {
	Split      *dataset.Split
	Network    *rnn.Network
	FitReport  *rnn.FitReport
	Evaluation *evaluation.Evaluation

	DeltaReal    []float64
	DeltaPredict []float64
	Stats        *evaluation.Stats
	// ScoreErr records why precision/recall/F1 are undefined, if they are.
	ScoreErr     error
	DeltaSummary *evaluation.Distribution
}

// Summary condenses a result for persistence and broadcast.
func (r *Result) Summary(symbol string, seqLen, epochs int) common.RunSummary {
	return common.RunSummary{
		Symbol:         symbol,
		SequenceLength: seqLen,
		Epochs:         epochs,
		TrainWindows:   len(r.Split.XTrain),
		TestWindows:    len(r.Split.XTest),
		TrainingTime:   r.FitReport.Elapsed,
		Precision:      r.Stats.Precision,
		Recall:         r.Stats.Recall,
		F1:             r.Stats.F1,
		MSE:            r.Stats.MSE,
		CreatedAt:      time.Now().UTC(),
	}
}

// Run executes the pipeline strictly linearly: load, window, build, fit,
// evaluate, analyze change, score. The context is only consulted between
// stages; stages themselves are synchronous.
func Run(ctx context.Context, cfg Config, log zerolog.Logger) (*Result, error) {
	rows := cfg.Rows
	if rows == nil {
		var err error
		rows, err = candle.LoadCSV(cfg.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
	}
	log.Info().Int("rows", len(rows)).Int("sequence_length", cfg.SequenceLength).Msg("building windows")

	split, err := dataset.Build(rows, dataset.Config{
		SequenceLength: cfg.SequenceLength,
		TrainFraction:  cfg.TrainFraction,
		Seed:           cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	net, err := rnn.New(rnn.Config{
		InputSize:  len(rows[0]),
		WindowSize: split.WindowSize,
		Dropout:    cfg.Dropout,
		Activation: cfg.Activation,
		Loss:       cfg.Loss,
		Optimizer:  cfg.Optimizer,
		Seed:       cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	log.Info().
		Int("train_windows", len(split.XTrain)).
		Int("test_windows", len(split.XTest)).
		Msg("fitting network")
	fitReport, err := net.Fit(split.XTrain, split.YTrain, rnn.FitConfig{
		BatchSize:       cfg.BatchSize,
		Epochs:          cfg.Epochs,
		ValidationSplit: cfg.ValidationSplit,
		LearningRate:    cfg.LearningRate,
		Patience:        cfg.Patience,
	})
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	log.Info().Dur("elapsed", fitReport.Elapsed).Int("epochs", fitReport.EpochsRun).Msg("training done")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ev, err := evaluation.Evaluate(net, split.XTest, split.YTest, split.UnnormalizedBases)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	deltaReal, deltaPredict, err := evaluation.PercentChanges(split.YDayBefore, split.YTest, ev.Predicted)
	if err != nil {
		return nil, fmt.Errorf("percent change: %w", err)
	}

	// An empty confusion category leaves the derived statistics undefined;
	// keep the counts and surface the reason instead of aborting the run.
	stats, scoreErr := evaluation.Score(deltaPredict, deltaReal, ev.Predicted, split.YTest)
	if scoreErr != nil {
		if stats == nil {
			return nil, fmt.Errorf("score: %w", scoreErr)
		}
		log.Warn().Err(scoreErr).Msg("directional statistics undefined for this run")
	}
	summary, err := evaluation.Describe(deltaReal)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}

	return &Result{
		Split:        split,
		Network:      net,
		FitReport:    fitReport,
		Evaluation:   ev,
		DeltaReal:    deltaReal,
		DeltaPredict: deltaPredict,
		Stats:        stats,
		ScoreErr:     scoreErr,
		DeltaSummary: summary,
	}, nil
}

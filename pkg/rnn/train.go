package rnn

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoTrainingData is returned when Fit is called with an empty or
// mismatched training set.
var ErrNoTrainingData = errors.New("no training data")

const defaultLearningRate = 0.01

// FitConfig controls one training run.
type FitConfig struct {
	BatchSize       int
	Epochs          int
	ValidationSplit float64 // fraction of examples held out from the tail
	LearningRate    float64 // 0 means the default 0.01
	Patience        int     // early-stopping patience on validation loss, 0 disables
}

// FitReport summarizes a completed training run.
type FitReport struct {
	Elapsed      time.Duration
	EpochsRun    int
	TrainLosses  []float64
	ValLosses    []float64
	BestValLoss  float64
	TrainSamples int
	ValSamples   int
}

// Fit trains the network in place with full backpropagation through time.
// The caller and the trainer share the same network object: after Fit
// returns, the receiver holds the updated weights. There is no copy.
func (n *Network) Fit(X [][][]float64, Y []float64, cfg FitConfig) (*FitReport, error) {
	if len(X) == 0 || len(X) != len(Y) {
		return nil, fmt.Errorf("%w: %d sequences, %d targets", ErrNoTrainingData, len(X), len(Y))
	}
	for i, seq := range X {
		if err := n.checkSequence(seq); err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i, err)
		}
	}
	if cfg.ValidationSplit < 0 || cfg.ValidationSplit >= 1 {
		return nil, fmt.Errorf("%w: validation split %v", ErrNoTrainingData, cfg.ValidationSplit)
	}

	lossFn, err := resolveLoss(n.Config.Loss)
	if err != nil {
		return nil, err
	}
	opt, err := resolveOptimizer(n.Config.Optimizer)
	if err != nil {
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	epochs := cfg.Epochs
	if epochs <= 0 {
		epochs = 1
	}
	lr := cfg.LearningRate
	if lr == 0 {
		lr = defaultLearningRate
	}

	// Hold out the tail as validation; the dataset builder already
	// shuffled training windows.
	splitIdx := len(X) - int(cfg.ValidationSplit*float64(len(X)))
	if splitIdx < 1 {
		splitIdx = 1
	}
	trainX, trainY := X[:splitIdx], Y[:splitIdx]
	valX, valY := X[splitIdx:], Y[splitIdx:]

	report := &FitReport{TrainSamples: len(trainX), ValSamples: len(valX)}
	bestVal := 0.0
	patienceLeft := cfg.Patience

	start := time.Now()
	for epoch := 0; epoch < epochs; epoch++ {
		total := 0.0
		for b := 0; b < len(trainX); b += batchSize {
			end := b + batchSize
			if end > len(trainX) {
				end = len(trainX)
			}
			for i := b; i < end; i++ {
				pred := n.forward(trainX[i], true)
				total += lossFn.value(pred, trainY[i])
				n.backward(lossFn.deriv(pred, trainY[i]))
			}
			opt.step(n.params, lr, 1/float64(end-b))
		}
		report.EpochsRun = epoch + 1
		report.TrainLosses = append(report.TrainLosses, total/float64(len(trainX)))

		if len(valX) == 0 {
			continue
		}
		valLoss := 0.0
		for i, seq := range valX {
			pred := n.forward(seq, false)
			valLoss += lossFn.value(pred, valY[i])
		}
		valLoss /= float64(len(valX))
		report.ValLosses = append(report.ValLosses, valLoss)

		if epoch == 0 || valLoss < bestVal {
			bestVal = valLoss
			patienceLeft = cfg.Patience
		} else if cfg.Patience > 0 {
			patienceLeft--
			if patienceLeft <= 0 {
				break
			}
		}
	}
	report.Elapsed = time.Since(start)
	report.BestValLoss = bestVal
	return report, nil
}

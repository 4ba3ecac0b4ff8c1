package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	// ErrSequenceTooShort is returned when the sequence length leaves no room
	// for both a day-before value and a prediction target.
	ErrSequenceTooShort = errors.New("sequence length must be at least 3")
	// ErrSequenceTooLong is returned when the input has too few rows to build
	// a single window.
	ErrSequenceTooLong = errors.New("sequence length must be shorter than the input")
	// ErrNoColumns is returned when a row has no price column.
	ErrNoColumns = errors.New("rows must have at least one column")
	// ErrRaggedRows is returned when rows differ in column count.
	ErrRaggedRows = errors.New("rows must all have the same column count")
	// ErrZeroBasePrice is returned when a window starts at price zero, which
	// makes the within-window rescaling undefined.
	ErrZeroBasePrice = errors.New("window base price is zero")
)

// Config controls windowing and the train/test partition.
type Config struct {
	SequenceLength int
	TrainFraction  float64 // 0 means the default 0.8
	Seed           int64   // shuffle seed for the training partition
}

// Split is the full output of the dataset builder. Test windows keep the
// chronological order of the input; only training windows are shuffled.
type Split struct {
	XTrain [][][]float64
	YTrain []float64
	XTest  [][][]float64
	YTest  []float64

	// YDayBefore holds, per test window, the normalized price one step
	// before the prediction target.
	YDayBefore []float64
	// UnnormalizedBases holds, per test window, the raw price at window
	// position 0, needed to invert the normalization.
	UnnormalizedBases []float64

	WindowSize int // always SequenceLength - 1
}

// Build slices time-ordered feature rows into overlapping windows of
// SequenceLength rows (stride 1), rescales the price column within each
// window relative to its first value, and partitions the windows into a
// shuffled training set and a chronologically ordered test set.
//
// Only the price column (column 0) is normalized; the remaining feature
// columns pass through raw. That asymmetry is deliberate and the evaluator
// depends on it.
func Build(rows [][]float64, cfg Config) (*Split, error) {
	seqLen := cfg.SequenceLength
	if seqLen < 3 {
		return nil, ErrSequenceTooShort
	}
	if seqLen >= len(rows) {
		return nil, fmt.Errorf("%w: %d rows, sequence length %d", ErrSequenceTooLong, len(rows), seqLen)
	}
	width := len(rows[0])
	if width == 0 {
		return nil, ErrNoColumns
	}
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), width, ErrRaggedRows)
		}
	}

	trainFraction := cfg.TrainFraction
	if trainFraction == 0 {
		trainFraction = 0.8
	}

	numWindows := len(rows) - seqLen
	windows := make([][][]float64, 0, numWindows)
	bases := make([]float64, 0, numWindows)
	for i := 0; i < numWindows; i++ {
		base := rows[i][0]
		if base == 0 {
			return nil, fmt.Errorf("window %d: %w", i, ErrZeroBasePrice)
		}
		w := make([][]float64, seqLen)
		for t := 0; t < seqLen; t++ {
			row := make([]float64, width)
			copy(row, rows[i+t])
			if t > 0 {
				row[0] = rows[i+t][0]/base - 1
			} else {
				row[0] = 0
			}
			w[t] = row
		}
		windows = append(windows, w)
		bases = append(bases, base)
	}

	splitIdx := int(math.Round(trainFraction * float64(numWindows)))
	trainWindows := windows[:splitIdx]
	testWindows := windows[splitIdx:]
	testBases := bases[splitIdx:]

	// Shuffle training windows only; test order stays chronological.
	rng := rand.New(rand.NewSource(cfg.Seed))
	rng.Shuffle(len(trainWindows), func(i, j int) {
		trainWindows[i], trainWindows[j] = trainWindows[j], trainWindows[i]
	})

	s := &Split{
		XTrain:            make([][][]float64, len(trainWindows)),
		YTrain:            make([]float64, len(trainWindows)),
		XTest:             make([][][]float64, len(testWindows)),
		YTest:             make([]float64, len(testWindows)),
		YDayBefore:        make([]float64, len(testWindows)),
		UnnormalizedBases: testBases,
		WindowSize:        seqLen - 1,
	}
	for i, w := range trainWindows {
		s.XTrain[i] = w[:seqLen-1]
		s.YTrain[i] = w[seqLen-1][0]
	}
	for i, w := range testWindows {
		s.XTest[i] = w[:seqLen-1]
		s.YTest[i] = w[seqLen-1][0]
		s.YDayBefore[i] = w[seqLen-2][0]
	}
	return s, nil
}

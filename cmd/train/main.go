package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendcast/pkg/candle"
	"github.com/trendcast/pkg/evaluation"
	"github.com/trendcast/pkg/pipeline"
	"github.com/trendcast/pkg/store"
)

func main() {
	csvPath := flag.String("csv", "", "path to OHLC CSV file (required)")
	symbol := flag.String("symbol", "BTCUSDT", "symbol label for the run")
	seqLen := flag.Int("seq-len", 50, "window length in rows, including the target row")
	trainFrac := flag.Float64("train-frac", 0.8, "fraction of windows used for training")
	epochs := flag.Int("epochs", 10, "training epochs")
	batch := flag.Int("batch", 32, "mini-batch size")
	dropout := flag.Float64("dropout", 0.2, "dropout rate after the first two layers")
	activation := flag.String("activation", "tanh", "activation (tanh, relu)")
	lossName := flag.String("loss", "mse", "loss (mse, mae)")
	optimizer := flag.String("optimizer", "adam", "optimizer (sgd, momentum, adam)")
	learningRate := flag.Float64("lr", 0.001, "learning rate")
	valSplit := flag.Float64("val-split", 0.1, "tail fraction of train windows held out for validation")
	patience := flag.Int("patience", 0, "early-stopping patience in epochs (0 disables)")
	seed := flag.Int64("seed", 42, "shuffle and weight-init seed")
	outPath := flag.String("out", "", "write real vs predicted series to this CSV")
	persist := flag.Bool("persist", false, "save run, predictions and weights to Postgres (PG_DSN)")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		log.Fatal("-csv is required")
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	res, err := pipeline.Run(context.Background(), pipeline.Config{
		Symbol:          *symbol,
		CSVPath:         *csvPath,
		SequenceLength:  *seqLen,
		TrainFraction:   *trainFrac,
		Seed:            *seed,
		Dropout:         *dropout,
		Activation:      *activation,
		Loss:            *lossName,
		Optimizer:       *optimizer,
		BatchSize:       *batch,
		Epochs:          *epochs,
		ValidationSplit: *valSplit,
		LearningRate:    *learningRate,
		Patience:        *patience,
	}, logger)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	fmt.Printf("Symbol:        %s\n", *symbol)
	fmt.Printf("Train windows: %d  Test windows: %d  Window size: %d\n",
		len(res.Split.XTrain), len(res.Split.XTest), res.Split.WindowSize)
	fmt.Printf("Epochs run:    %d (of %d)  Elapsed: %s\n",
		res.FitReport.EpochsRun, *epochs, res.FitReport.Elapsed.Round(time.Millisecond))
	if res.ScoreErr != nil {
		fmt.Printf("Scores:        undefined (%v)\n", res.ScoreErr)
	}
	if res.Stats != nil {
		fmt.Print(statsReport(res.Stats))
	}
	if res.DeltaSummary != nil {
		d := res.DeltaSummary
		fmt.Printf("Real deltas:   mean=%.5f std=%.5f min=%.5f median=%.5f max=%.5f\n",
			d.Mean, d.StdDev, d.Min, d.Median, d.Max)
	}

	if *outPath != "" {
		err := candle.WriteSeriesCSV(*outPath, res.Evaluation.RealYTest, res.Evaluation.RealPredicted)
		if err != nil {
			log.Fatalf("write series: %v", err)
		}
		fmt.Printf("Series written to %s\n", *outPath)
	}

	if *persist {
		persistRun(res, *symbol, *seqLen, *epochs)
	}
}

func statsReport(s *evaluation.Stats) string {
	return fmt.Sprintf("Confusion:     TP=%d FP=%d TN=%d FN=%d\n",
		s.TruePositives, s.FalsePositives, s.TrueNegatives, s.FalseNegatives) +
		fmt.Sprintf("Precision=%.4f Recall=%.4f F1=%.4f MSE=%.6f\n",
			s.Precision, s.Recall, s.F1, s.MSE)
}

func persistRun(res *pipeline.Result, symbol string, seqLen, epochs int) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		dsn = "host=localhost user=admin password=password dbname=trendcast sslmode=disable"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, dsn)
	if err != nil {
		log.Fatalf("DB open: %v", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := st.SaveRun(ctx, res.Summary(symbol, seqLen, epochs)); err != nil {
		log.Fatalf("save run: %v", err)
	}
	if err := st.SavePredictions(ctx, symbol, res.Evaluation.RealYTest, res.Evaluation.RealPredicted); err != nil {
		log.Fatalf("save predictions: %v", err)
	}
	if err := st.SaveModel(ctx, symbol, res.Network); err != nil {
		log.Fatalf("save model: %v", err)
	}
	fmt.Println("Run persisted to Postgres")
}

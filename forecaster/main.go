package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/trendcast/pkg/candle"
	"github.com/trendcast/pkg/common"
	"github.com/trendcast/pkg/logger"
	"github.com/trendcast/pkg/metrics"
	"github.com/trendcast/pkg/pipeline"
	"github.com/trendcast/pkg/rnn"
	"github.com/trendcast/pkg/store"
	"github.com/trendcast/pkg/stream"
	"github.com/trendcast/pkg/validator"
)

const (
	maxCandleHistory = 1440
	httpReadTimeout  = 5 * time.Second
	httpWriteTimeout = 30 * time.Second
	httpIdleTimeout  = 60 * time.Second
)

// Forecaster buffers candles per symbol, runs the training pipeline on
// demand and serves forecasts over HTTP.
type Forecaster struct {
	store    *store.Store
	cache    *stream.CandleCache
	consumer *stream.CandleConsumer
	producer *stream.SignalProducer

	mu      sync.RWMutex
	history map[string][]candle.Candle
	models  map[string]*rnn.Network
	lastRun map[string]common.RunSummary

	runLimiter *rate.Limiter
	cfg        runConfig
	httpServer *http.Server
}

type runConfig struct {
	SequenceLength int
	Epochs         int
	BatchSize      int
	Dropout        float64
	Activation     string
	Loss           string
	Optimizer      string
	LearningRate   float64
}

func newForecaster(cfg runConfig) *Forecaster {
	return &Forecaster{
		history: make(map[string][]candle.Candle),
		models:  make(map[string]*rnn.Network),
		lastRun: make(map[string]common.RunSummary),
		// Training is expensive; allow at most one run per 10s with a
		// small burst.
		runLimiter: rate.NewLimiter(rate.Every(10*time.Second), 2),
		cfg:        cfg,
	}
}

// addCandle buffers one candle and reports whether it passed validation.
func (f *Forecaster) addCandle(k candle.Candle) bool {
	if err := validator.ValidateSymbol(k.Symbol); err != nil {
		log.Debug().Str("symbol", k.Symbol).Err(err).Msg("dropping candle")
		return false
	}
	if err := validator.ValidatePrice(k.Close); err != nil {
		log.Debug().Str("symbol", k.Symbol).Err(err).Msg("dropping candle")
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	h := append(f.history[k.Symbol], k)
	if len(h) > maxCandleHistory {
		trimmed := make([]candle.Candle, maxCandleHistory)
		copy(trimmed, h[len(h)-maxCandleHistory:])
		h = trimmed
	}
	f.history[k.Symbol] = h
	return true
}

func (f *Forecaster) symbolHistory(symbol string) []candle.Candle {
	f.mu.RLock()
	defer f.mu.RUnlock()
	h := f.history[symbol]
	out := make([]candle.Candle, len(h))
	copy(out, h)
	return out
}

// runPipeline trains on the buffered history of one symbol and records the
// outcome. The new model replaces the previous one for that symbol.
func (f *Forecaster) runPipeline(ctx context.Context, symbol string) (*pipeline.Result, error) {
	history := f.symbolHistory(symbol)
	if len(history) == 0 && f.cache != nil {
		var err error
		history, err = f.cache.History(ctx, symbol, maxCandleHistory)
		if err != nil {
			return nil, err
		}
	}

	cfg := pipeline.Config{
		Symbol:         symbol,
		Rows:           candle.Rows(history),
		SequenceLength: f.cfg.SequenceLength,
		Dropout:        f.cfg.Dropout,
		Activation:     f.cfg.Activation,
		Loss:           f.cfg.Loss,
		Optimizer:      f.cfg.Optimizer,
		BatchSize:      f.cfg.BatchSize,
		Epochs:         f.cfg.Epochs,
		LearningRate:   f.cfg.LearningRate,
		Seed:           time.Now().UnixNano(),
	}
	res, err := pipeline.Run(ctx, cfg, log.Logger)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues(symbol, "error").Inc()
		return nil, err
	}
	metrics.PipelineRunsTotal.WithLabelValues(symbol, "ok").Inc()
	metrics.TrainingDuration.WithLabelValues(symbol).Observe(res.FitReport.Elapsed.Seconds())

	summary := res.Summary(symbol, f.cfg.SequenceLength, f.cfg.Epochs)
	f.mu.Lock()
	f.models[symbol] = res.Network
	f.lastRun[symbol] = summary
	f.mu.Unlock()

	if f.store != nil {
		if err := f.store.SaveModel(ctx, symbol, res.Network); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to persist model")
		}
		if err := f.store.SaveRun(ctx, summary); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to persist run summary")
		}
		if err := f.store.SavePredictions(ctx, symbol, res.Evaluation.RealYTest, res.Evaluation.RealPredicted); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to persist predictions")
		}
	}
	return res, nil
}

// forecast predicts the next price for a symbol from its freshest window
// using the latest trained model.
func (f *Forecaster) forecast(ctx context.Context, symbol string) (*common.ForecastSignal, error) {
	f.mu.RLock()
	net := f.models[symbol]
	f.mu.RUnlock()
	if net == nil && f.store != nil {
		loaded, err := f.store.LoadModel(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			f.mu.Lock()
			f.models[symbol] = loaded
			f.mu.Unlock()
			net = loaded
		}
	}
	if net == nil {
		return nil, errNoModel
	}

	history := f.symbolHistory(symbol)
	windowSize := net.Config.WindowSize
	if len(history) < windowSize+1 {
		return nil, errNotEnoughCandles
	}

	// Build one normalized window off the tail of the history, the same
	// rescaling the training windows use.
	tail := history[len(history)-windowSize-1:]
	base := tail[0].Close
	if base == 0 {
		return nil, errNotEnoughCandles
	}
	rows := candle.Rows(tail)
	seq := make([][]float64, windowSize)
	for t := 0; t < windowSize; t++ {
		row := make([]float64, len(rows[t]))
		copy(row, rows[t])
		if t > 0 {
			row[0] = rows[t][0]/base - 1
		} else {
			row[0] = 0
		}
		seq[t] = row
	}

	normalized, err := net.Predict(seq)
	if err != nil {
		return nil, err
	}
	current := history[len(history)-1].Close
	predicted := (normalized + 1) * base

	direction := common.DirectionDown
	if predicted > current {
		direction = common.DirectionUp
	}
	metrics.ForecastsTotal.WithLabelValues(symbol, direction).Inc()

	signal := &common.ForecastSignal{
		Symbol:         symbol,
		Timestamp:      time.Now().Unix(),
		Direction:      direction,
		PredictedPrice: predicted,
		CurrentPrice:   current,
		PredictedDelta: (predicted - current) / current,
		ModelUsed:      "birnn",
		CreatedAt:      time.Now().UTC(),
	}
	if f.producer != nil {
		if err := f.producer.Publish(ctx, *signal); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to publish signal")
		}
	}
	return signal, nil
}

func main() {
	logger.Init("forecaster")
	log.Info().Msg("starting forecaster")

	cfg := runConfig{
		SequenceLength: envInt("SEQUENCE_LENGTH", 50),
		Epochs:         envInt("TRAIN_EPOCHS", 10),
		BatchSize:      envInt("TRAIN_BATCH_SIZE", 32),
		Dropout:        envFloat("TRAIN_DROPOUT", 0.2),
		Activation:     os.Getenv("TRAIN_ACTIVATION"),
		Loss:           os.Getenv("TRAIN_LOSS"),
		Optimizer:      os.Getenv("TRAIN_OPTIMIZER"),
		LearningRate:   envFloat("TRAIN_LEARNING_RATE", 0.01),
	}
	f := newForecaster(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		s, err := store.Open(ctx, dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres unavailable")
		}
		if err := s.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres migration failed")
		}
		f.store = s
		defer s.Close()
	}
	if dsn := os.Getenv("CH_DSN"); dsn != "" {
		cache, err := stream.OpenCandleCache(ctx, dsn)
		if err != nil {
			log.Error().Err(err).Msg("clickhouse unavailable, candle cache disabled")
		} else {
			f.cache = cache
			defer cache.Close()
		}
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		brokerList := strings.Split(brokers, ",")
		f.consumer = stream.NewCandleConsumer(brokerList, "candle_1m", "forecaster-group")
		defer f.consumer.Close()
		f.producer = stream.NewSignalProducer(brokerList[0], "forecast_signals")
		defer f.producer.Close()

		go func() {
			handle := func(k candle.Candle) { f.addCandle(k) }
			if err := f.consumer.Run(ctx, handle); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("candle consumer stopped")
			}
		}()
	}

	f.startHTTPServer()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")
	cancel()
	if f.httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		f.httpServer.Shutdown(shutdownCtx)
	}
}

func envInt(key string, dflt int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return dflt
}

func envFloat(key string, dflt float64) float64 {
	if v := os.Getenv(key); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			return x
		}
	}
	return dflt
}

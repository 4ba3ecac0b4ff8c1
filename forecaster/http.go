package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/trendcast/pkg/candle"
	"github.com/trendcast/pkg/validator"
)

var (
	errNoModel          = errors.New("no trained model for symbol")
	errNotEnoughCandles = errors.New("not enough candles buffered for a forecast")
)

func (f *Forecaster) startHTTPServer() {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", f.handleHealthz)
	r.GET("/healthz", f.handleHealthz)
	r.GET("/readyz", f.handleReadyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/v1/candles", f.handleIngestCandles)
	r.POST("/api/v1/run", f.handleRun)
	r.GET("/api/v1/forecast", f.handleForecast)
	r.GET("/api/v1/stats", f.handleStats)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	f.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
	}
	go func() {
		log.Info().Str("port", port).Msg("http server listening")
		if err := f.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
}

func (f *Forecaster) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (f *Forecaster) handleReadyz(c *gin.Context) {
	f.mu.RLock()
	buffered := len(f.history)
	f.mu.RUnlock()

	// Ready once any candle source or buffered history exists.
	ready := f.consumer != nil || f.cache != nil || buffered > 0
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"time":   time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "ready",
		"symbols_tracked": buffered,
		"time":            time.Now().UTC(),
	})
}

// handleIngestCandles accepts a JSON candle batch, the HTTP alternative to
// the Kafka topic.
func (f *Forecaster) handleIngestCandles(c *gin.Context) {
	var candles []candle.Candle
	if err := c.ShouldBindJSON(&candles); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	accepted := 0
	for _, k := range candles {
		if err := validator.ValidateTimestamp(k.Timestamp); err != nil {
			continue
		}
		if f.addCandle(k) {
			accepted++
		}
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted, "received": len(candles)})
}

func (f *Forecaster) handleRun(c *gin.Context) {
	symbol := c.Query("symbol")
	if err := validator.ValidateSymbol(symbol); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !f.runLimiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "training already running or rate limited"})
		return
	}

	res, err := f.runPipeline(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":        symbol,
		"train_windows": len(res.Split.XTrain),
		"test_windows":  len(res.Split.XTest),
		"training_ms":   res.FitReport.Elapsed.Milliseconds(),
		"epochs_run":    res.FitReport.EpochsRun,
		"stats":         res.Stats,
	})
}

func (f *Forecaster) handleForecast(c *gin.Context) {
	symbol := c.Query("symbol")
	if err := validator.ValidateSymbol(symbol); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	signal, err := f.forecast(c.Request.Context(), symbol)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, errNoModel) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, signal)
}

func (f *Forecaster) handleStats(c *gin.Context) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if symbol := c.Query("symbol"); symbol != "" {
		run, ok := f.lastRun[symbol]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded for symbol"})
			return
		}
		c.JSON(http.StatusOK, run)
		return
	}
	c.JSON(http.StatusOK, f.lastRun)
}

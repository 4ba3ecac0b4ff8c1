package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trendcast/pkg/candle"
)

func fullHistory(symbol string, n int) []candle.Candle {
	h := make([]candle.Candle, n)
	base := time.Now().Unix() - int64(n)*60
	for i := range h {
		h[i] = candle.Candle{Symbol: symbol, Timestamp: base + int64(i)*60, Close: 100}
	}
	return h
}

func TestAddCandleReportsAcceptance(t *testing.T) {
	f := newForecaster(runConfig{})
	now := time.Now().Unix()

	if !f.addCandle(candle.Candle{Symbol: "BTCUSDT", Timestamp: now, Close: 100}) {
		t.Error("valid candle should be accepted")
	}
	if f.addCandle(candle.Candle{Symbol: "btcusdt", Timestamp: now, Close: 100}) {
		t.Error("invalid symbol should be rejected")
	}
	if f.addCandle(candle.Candle{Symbol: "BTCUSDT", Timestamp: now, Close: 0}) {
		t.Error("non-positive price should be rejected")
	}
}

func TestAddCandleAcceptedAtFullBuffer(t *testing.T) {
	f := newForecaster(runConfig{})
	f.history["BTCUSDT"] = fullHistory("BTCUSDT", maxCandleHistory)

	latest := candle.Candle{Symbol: "BTCUSDT", Timestamp: time.Now().Unix(), Close: 101}
	if !f.addCandle(latest) {
		t.Fatal("valid candle should be accepted even when the buffer is full")
	}
	h := f.symbolHistory("BTCUSDT")
	if len(h) != maxCandleHistory {
		t.Fatalf("buffer should stay capped at %d, got %d", maxCandleHistory, len(h))
	}
	if h[len(h)-1].Close != 101 {
		t.Errorf("newest candle should survive the trim, got close %v", h[len(h)-1].Close)
	}
}

func TestIngestEndpointCountsAcceptedAtFullBuffer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newForecaster(runConfig{})
	f.history["BTCUSDT"] = fullHistory("BTCUSDT", maxCandleHistory)
	r := gin.New()
	r.POST("/api/v1/candles", f.handleIngestCandles)

	now := time.Now().Unix()
	batch := []candle.Candle{
		{Symbol: "BTCUSDT", Timestamp: now, Close: 102},
		{Symbol: "bad", Timestamp: now, Close: 103},
	}
	body, _ := json.Marshal(batch)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/candles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Accepted int `json:"accepted"`
		Received int `json:"received"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Received != 2 {
		t.Errorf("expected 2 received, got %d", resp.Received)
	}
	if resp.Accepted != 1 {
		t.Errorf("expected 1 accepted with a full buffer, got %d", resp.Accepted)
	}
}

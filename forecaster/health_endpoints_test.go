package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthzEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := &Forecaster{}
	r := gin.New()
	r.GET("/healthz", f.handleHealthz)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestReadyzEndpointWithoutCandleSource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := &Forecaster{}
	r := gin.New()
	r.GET("/readyz", f.handleReadyz)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a candle source, got %d", w.Code)
	}
}

func TestRunEndpointRejectsBadSymbol(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newForecaster(runConfig{SequenceLength: 10})
	r := gin.New()
	r.POST("/api/v1/run", f.handleRun)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/run?symbol=lowercase", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid symbol, got %d", w.Code)
	}
}

func TestForecastEndpointWithoutModel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newForecaster(runConfig{SequenceLength: 10})
	r := gin.New()
	r.GET("/api/v1/forecast", f.handleForecast)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?symbol=BTCUSDT", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a trained model, got %d", w.Code)
	}
}

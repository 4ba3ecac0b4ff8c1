package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/trendcast/pkg/common"
	"github.com/trendcast/pkg/logger"
	"github.com/trendcast/pkg/validator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		allowed := os.Getenv("WS_ALLOWED_ORIGINS")
		if allowed == "" {
			allowed = "http://localhost:3000,http://127.0.0.1:3000"
		}
		for _, v := range strings.Split(allowed, ",") {
			if strings.TrimSpace(v) == origin {
				return true
			}
		}
		return false
	},
}

func main() {
	logger.Init("signal-stream")

	hub := newHub()
	go hub.run()

	brokers := []string{"kafka:9092"}
	if env := os.Getenv("KAFKA_BROKERS"); env != "" {
		brokers = strings.Split(env, ",")
	}
	topic := os.Getenv("KAFKA_SIGNAL_TOPIC")
	if topic == "" {
		topic = "forecast_signals"
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: "signal-stream-group",
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go consumeSignals(ctx, reader, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.serveWs)
	mux.HandleFunc("/health", handleHealthz)
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/readyz", handleReadyz(reader))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Str("topic", topic).Msg("signal-stream listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// consumeSignals reads forecast signals from Kafka and pushes them into the
// hub. Malformed or invalid payloads are skipped.
func consumeSignals(ctx context.Context, reader *kafka.Reader, hub *Hub) {
	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("kafka read failed")
			continue
		}
		var sig common.ForecastSignal
		if err := json.Unmarshal(m.Value, &sig); err != nil {
			log.Warn().Err(err).Msg("skipping malformed signal")
			continue
		}
		if err := validator.ValidateSymbol(sig.Symbol); err != nil {
			log.Warn().Str("symbol", sig.Symbol).Err(err).Msg("skipping invalid signal")
			continue
		}
		hub.publish(sig, m.Value)
	}
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
}

func handleReadyz(reader *kafka.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if reader == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "not_ready"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready"})
	}
}

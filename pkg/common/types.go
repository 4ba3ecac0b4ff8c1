package common

import "time"

// Direction labels for a day-over-day price move.
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
)

// ForecastSignal is the unit of output shared by the forecaster service,
// the Kafka signals topic and the websocket broadcaster.
type ForecastSignal struct {
	Symbol         string    `json:"symbol"`
	Timestamp      int64     `json:"timestamp"`
	Direction      string    `json:"direction"`
	PredictedPrice float64   `json:"predicted_price"`
	CurrentPrice   float64   `json:"current_price"`
	PredictedDelta float64   `json:"predicted_delta"`
	ModelUsed      string    `json:"model_used"`
	CreatedAt      time.Time `json:"created_at"`
}

// RunSummary captures one end-to-end pipeline run for persistence.
type RunSummary struct {
	Symbol         string        `json:"symbol"`
	SequenceLength int           `json:"sequence_length"`
	Epochs         int           `json:"epochs"`
	TrainWindows   int           `json:"train_windows"`
	TestWindows    int           `json:"test_windows"`
	TrainingTime   time.Duration `json:"training_time"`
	Precision      float64       `json:"precision"`
	Recall         float64       `json:"recall"`
	F1             float64       `json:"f1"`
	MSE            float64       `json:"mse"`
	CreatedAt      time.Time     `json:"created_at"`
}

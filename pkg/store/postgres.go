package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/trendcast/pkg/common"
	"github.com/trendcast/pkg/rnn"
)

// Store persists trained networks, run summaries and per-window predictions
// in Postgres.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, mainly for tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables this store writes to.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS model_weights (
			id SERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			weights JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id SERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			sequence_length INT NOT NULL,
			epochs INT NOT NULL,
			train_windows INT NOT NULL,
			test_windows INT NOT NULL,
			training_ms BIGINT NOT NULL,
			precision_score DOUBLE PRECISION NOT NULL,
			recall_score DOUBLE PRECISION NOT NULL,
			f1_score DOUBLE PRECISION NOT NULL,
			mse DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS forecast_predictions (
			id SERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			window_index INT NOT NULL,
			real_price DOUBLE PRECISION NOT NULL,
			predicted_price DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveModel stores the serialized network for a symbol.
func (s *Store) SaveModel(ctx context.Context, symbol string, net *rnn.Network) error {
	data, err := net.Marshal()
	if err != nil {
		return fmt.Errorf("marshal network: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO model_weights (symbol, weights, updated_at) VALUES ($1, $2, now())`,
		symbol, data)
	return err
}

// LoadModel returns the latest stored network for a symbol, or nil when no
// model has been saved yet. A missing model is not an error.
func (s *Store) LoadModel(ctx context.Context, symbol string) (*rnn.Network, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT weights FROM model_weights WHERE symbol = $1 ORDER BY updated_at DESC LIMIT 1`,
		symbol).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rnn.Unmarshal(data)
}

// SaveRun records the summary of one pipeline run.
func (s *Store) SaveRun(ctx context.Context, run common.RunSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO forecast_runs
			(symbol, sequence_length, epochs, train_windows, test_windows, training_ms,
			 precision_score, recall_score, f1_score, mse, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.Symbol, run.SequenceLength, run.Epochs, run.TrainWindows, run.TestWindows,
		run.TrainingTime.Milliseconds(), run.Precision, run.Recall, run.F1, run.MSE,
		run.CreatedAt)
	return err
}

// SavePredictions records the reconstructed real/predicted series of a run.
func (s *Store) SavePredictions(ctx context.Context, symbol string, real, predicted []float64) error {
	if len(real) != len(predicted) {
		return fmt.Errorf("series length mismatch: %d vs %d", len(real), len(predicted))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO forecast_predictions (symbol, window_index, real_price, predicted_price)
		 VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range real {
		if _, err := stmt.ExecContext(ctx, symbol, i, real[i], predicted[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PredictionRow is one persisted prediction with its ground truth.
type PredictionRow struct {
	Symbol         string
	WindowIndex    int
	RealPrice      float64
	PredictedPrice float64
	CreatedAt      time.Time
}

// ListPredictions returns persisted predictions for a symbol in a window of
// creation time, in insertion order.
func (s *Store) ListPredictions(ctx context.Context, symbol string, from, to time.Time) ([]PredictionRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, window_index, real_price, predicted_price, created_at
		 FROM forecast_predictions
		 WHERE symbol = $1 AND created_at >= $2 AND created_at <= $3
		 ORDER BY created_at ASC, window_index ASC`,
		symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PredictionRow
	for rows.Next() {
		var r PredictionRow
		if err := rows.Scan(&r.Symbol, &r.WindowIndex, &r.RealPrice, &r.PredictedPrice, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

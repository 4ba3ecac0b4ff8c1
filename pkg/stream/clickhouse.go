package stream

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/trendcast/pkg/candle"
)

// CandleCache reads candle history out of the ClickHouse candle cache, the
// same table the fetcher side writes minute candles into.
type CandleCache struct {
	db *sql.DB
}

// OpenCandleCache connects to ClickHouse and ensures the candle table exists.
func OpenCandleCache(ctx context.Context, dsn string) (*CandleCache, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS candle_1m (
		symbol String,
		timestamp Int64,
		open Float64,
		high Float64,
		low Float64,
		close Float64,
		volume Float64,
		created_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(created_at)
	PARTITION BY toYYYYMM(toDateTime(timestamp))
	ORDER BY (symbol, timestamp)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("candle table init: %w", err)
	}
	return &CandleCache{db: db}, nil
}

func (c *CandleCache) Close() error {
	return c.db.Close()
}

// Insert writes one candle into the cache.
func (c *CandleCache) Insert(ctx context.Context, k candle.Candle) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO candle_1m (symbol, timestamp, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		k.Symbol, k.Timestamp, k.Open, k.High, k.Low, k.Close, k.Volume)
	return err
}

// History returns the latest limit candles for a symbol in chronological
// order. Chronology matters downstream: the dataset builder treats row order
// as time order.
func (c *CandleCache) History(ctx context.Context, symbol string, limit int) ([]candle.Candle, error) {
	// DESC picks the freshest window out of the cache; the slice is
	// reversed afterwards to restore time order.
	rows, err := c.db.QueryContext(ctx,
		`SELECT symbol, timestamp, open, high, low, close, volume
		 FROM candle_1m
		 WHERE symbol = ?
		 ORDER BY timestamp DESC
		 LIMIT ?`,
		symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []candle.Candle
	for rows.Next() {
		var k candle.Candle
		if err := rows.Scan(&k.Symbol, &k.Timestamp, &k.Open, &k.High, &k.Low, &k.Close, &k.Volume); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverseCandles(out)
	return out, nil
}

func reverseCandles(candles []candle.Candle) {
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
}

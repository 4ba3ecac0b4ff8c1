package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/trendcast/pkg/candle"
	"github.com/trendcast/pkg/common"
	"github.com/trendcast/pkg/metrics"
)

// SignalProducer publishes forecast signals to a Kafka topic.
type SignalProducer struct {
	writer *kafka.Writer
}

func NewSignalProducer(broker, topic string) *SignalProducer {
	return &SignalProducer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(broker),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *SignalProducer) Publish(ctx context.Context, signal common.ForecastSignal) error {
	value, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(signal.Symbol),
		Value: value,
	})
}

func (p *SignalProducer) Close() error {
	return p.writer.Close()
}

// CandleConsumer reads candle JSON from a Kafka topic and hands each decoded
// candle to a callback. Run blocks until the context is canceled.
type CandleConsumer struct {
	reader *kafka.Reader
}

func NewCandleConsumer(brokers []string, topic, groupID string) *CandleConsumer {
	return &CandleConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
	}
}

func (c *CandleConsumer) Run(ctx context.Context, handle func(candle.Candle)) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read candle message: %w", err)
		}
		var k candle.Candle
		if err := json.Unmarshal(m.Value, &k); err != nil {
			// Skip malformed messages, the topic is shared.
			continue
		}
		metrics.CandlesConsumed.WithLabelValues(k.Symbol).Inc()
		handle(k)
	}
}

func (c *CandleConsumer) Close() error {
	return c.reader.Close()
}

// Package kafka publishes run aggregates to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/temp-choropleth-service/internal/config"
	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
)

const (
	publishAttempts = 3
	baseBackoff     = 200 * time.Millisecond
	maxBackoff      = 5 * time.Second
)

// Writer produces aggregate messages to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured aggregate topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes all aggregates in a single WriteMessages
// call, keyed by cell so one cell's series lands on one partition. Transient
// failures are retried with exponential backoff until the context is done or
// the attempts are spent.
func (w *Writer) Publish(ctx context.Context, aggs []domain.Aggregate) error {
	if len(aggs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(aggs))
	for i := range aggs {
		msg, err := serializeToMessage(aggs[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	backoff := baseBackoff
	for attempt := 1; ; attempt++ {
		err := w.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			w.logger.Info("aggregates published", "topic", w.writer.Topic, "messages", len(msgs))
			return nil
		}
		if attempt == publishAttempts {
			return fmt.Errorf("write %d messages to %s after %d attempts: %w", len(msgs), w.writer.Topic, attempt, err)
		}
		w.logger.Warn("publish failed, retrying", "attempt", attempt, "error", err)
		if err := sleepWithContext(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff)
	}
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// aggregateMessage is the wire form of a domain.Aggregate.
type aggregateMessage struct {
	Cell     int       `json:"cell"`
	Time     time.Time `json:"time"`
	MeanT2mK float64   `json:"mean_t2m_k"`
	Count    int       `json:"count"`
}

// serializeToMessage marshals an aggregate into a Kafka message.
func serializeToMessage(agg domain.Aggregate) (kafkago.Message, error) {
	data, err := json.Marshal(aggregateMessage{
		Cell:     int(agg.Cell),
		Time:     agg.Time,
		MeanT2mK: agg.Mean,
		Count:    agg.Count,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize aggregate: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(int(agg.Cell))),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "timestamp", Value: []byte(agg.Time.Format(time.RFC3339))},
		},
	}, nil
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

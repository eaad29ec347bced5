package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/couchcryptid/burn-risk/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher emits freshly computed assessments to a Kafka topic for
// downstream consumers. Publishing is best-effort: a failed publish is the
// caller's to log, never to fail the computation that produced the record.
type Publisher struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the assessments topic.
func NewPublisher(brokers []string, topic string, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// Publish serializes and emits one assessment.
func (p *Publisher) Publish(ctx context.Context, area domain.BurnArea, computedAt time.Time) error {
	msg, err := serializeToMessage(area, computedAt)
	if err != nil {
		p.metrics.AssessmentsPublished.WithLabelValues("error").Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.AssessmentsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("write message: %w", err)
	}
	p.metrics.AssessmentsPublished.WithLabelValues("success").Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a burn area into a Kafka message. Keying by
// area ID keeps recomputations of the same cell in one partition, so
// consumers see them in order.
func serializeToMessage(area domain.BurnArea, computedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(area)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize burn area: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(area.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "degraded", Value: []byte(strconv.FormatBool(len(area.DegradedSources) > 0))},
			{Key: "computed_at", Value: []byte(computedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}

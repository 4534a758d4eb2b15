package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"zone-signal-lab/internal/domain"
)

// ErrNoBrokers is returned when no broker address is configured.
var ErrNoBrokers = errors.New("kafka brokers are required")

// KafkaPublisher writes run events to one topic.
// Messages are hashed by run id so a run's events stay on one partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaPublisher creates a publisher. No connection is made until the first write.
func NewKafkaPublisher(opts ...KafkaOption) (*KafkaPublisher, error) {
	cfg := &KafkaConfig{
		Topic:        "zone-signal-outcomes",
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}

	return &KafkaPublisher{writer: writer, topic: cfg.Topic}, nil
}

// PublishRun writes one message per outcome plus a run_completed event in a single call.
func (p *KafkaPublisher) PublishRun(ctx context.Context, run *domain.RunRecord, outcomes []*domain.OutcomeRecord, summary *domain.RunSummary) error {
	msgs, err := encode(BuildMessages(run, outcomes, summary), time.Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish run %s to %s: %w", run.RunID, p.topic, err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func encode(msgs []Message, now time.Time) ([]kafka.Message, error) {
	out := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		v, err := json.Marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s event: %w", m.Value.Type, err)
		}
		out = append(out, kafka.Message{
			Key:   m.Key,
			Value: v,
			Time:  now,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(m.Value.Type)},
			},
		})
	}
	return out, nil
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

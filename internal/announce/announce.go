// Package announce tells downstream consumers that a new snapshot is live.
package announce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/artifact"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/config"
)

type Publisher interface {
	Publish(ctx context.Context, m *artifact.Manifest) error
	Close() error
}

// Nop is used when no announcement target is configured.
type Nop struct{}

func (Nop) Publish(context.Context, *artifact.Manifest) error { return nil }

func (Nop) Close() error { return nil }

// KafkaPublisher writes the manifest as a keyed record, so a compacted
// topic always holds the latest snapshot.
type KafkaPublisher struct {
	writer messageWriter
	key    []byte
}

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// New returns a KafkaPublisher when brokers are configured and Nop otherwise.
func New(cfg config.Kafka) Publisher {
	var brokers []string
	for _, b := range cfg.Brokers {
		for _, a := range strings.Split(b, ",") {
			if a = strings.TrimSpace(a); a != "" {
				brokers = append(brokers, a)
			}
		}
	}
	if len(brokers) == 0 {
		return Nop{}
	}
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}, key: []byte(cfg.Key)}
}

// NewKafkaPublisherWith is only for tests to inject a fake writer.
func NewKafkaPublisherWith(w messageWriter, key string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, key: []byte(key)}
}

func (k *KafkaPublisher) Publish(ctx context.Context, m *artifact.Manifest) error {
	b, err := m.Encode()
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	msg := kafka.Message{
		Key:   k.key,
		Value: b,
		Headers: []kafka.Header{
			{Key: "snapshot_id", Value: []byte(m.SnapshotID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", m.SnapshotID, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error { return k.writer.Close() }

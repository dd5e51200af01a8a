package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Sidetalker/rental-registry/internal/adapter/sqlite"
	"github.com/Sidetalker/rental-registry/internal/config"
)

// Publisher produces normalized listings to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishBatch serializes and publishes the full listing batch in a single
// WriteMessages call.
func (p *Publisher) PublishBatch(ctx context.Context, listings []sqlite.StoredListing) error {
	if len(listings) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(listings))
	for i := range listings {
		msg, err := serializeToMessage(listings[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a listing into a Kafka message keyed by
// listing ID so that re-syncs of the same parcel land on one partition.
func serializeToMessage(listing sqlite.StoredListing) (kafkago.Message, error) {
	data, err := json.Marshal(listing)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize listing: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(listing.Record.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "schedule_number", Value: []byte(listing.Record.ScheduleNumber)},
			{Key: "renewal_category", Value: []byte(listing.Renewal.Category)},
			{Key: "processed_at", Value: []byte(listing.Record.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}

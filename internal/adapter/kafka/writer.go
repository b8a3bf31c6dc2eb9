package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/config"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// maxBatch bounds the number of messages handed to one WriteMessages call.
const maxBatch = 1000

// Writer publishes daily aggregate rows to a Kafka topic.
// It implements pipeline.AggregateSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured aggregate topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// aggregateMessage is the JSON value of a published row.
type aggregateMessage struct {
	Date        string    `json:"date"`
	RegionCode  string    `json:"region_code"`
	RegionName  string    `json:"region_name"`
	Count       int       `json:"count"`
	ProcessedAt time.Time `json:"processed_at"`
}

// PublishAggregates serializes rows and writes them in batches. Rows for the
// same region hash to the same partition.
func (w *Writer) PublishAggregates(ctx context.Context, rows []domain.DailyAggregate) error {
	if len(rows) == 0 {
		return nil
	}
	processedAt := domain.Now().UTC()
	for start := 0; start < len(rows); start += maxBatch {
		end := min(start+maxBatch, len(rows))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, row := range rows[start:end] {
			msg, err := serializeToMessage(row, processedAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("write aggregates %d-%d: %w", start, end, err)
		}
	}
	w.logger.Info("aggregates published", "topic", w.writer.Topic, "rows", len(rows))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DailyAggregate into a Kafka message keyed
// by "date|code".
func serializeToMessage(row domain.DailyAggregate, processedAt time.Time) (kafkago.Message, error) {
	date := row.Date.Format(domain.DateLayout)
	data, err := json.Marshal(aggregateMessage{
		Date:        date,
		RegionCode:  row.RegionCode,
		RegionName:  row.RegionName,
		Count:       row.Count,
		ProcessedAt: processedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize aggregate: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(date + "|" + row.RegionCode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region_code", Value: []byte(row.RegionCode)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}

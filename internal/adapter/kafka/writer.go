package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/fire-risk-service/internal/config"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/pipeline"
)

// Writer publishes scored hotspots to a Kafka topic, one message per row.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured predictions topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaPredictionsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Publish writes every record of the prediction in a single WriteMessages
// call. All messages of one call share a run_id header.
func (w *Writer) Publish(ctx context.Context, pred *pipeline.Prediction) error {
	if pred == nil || len(pred.Records) == 0 {
		return nil
	}
	runID := uuid.NewString()
	msgs, err := serializeToMessages(pred, runID)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish predictions: %w", err)
	}
	w.metrics.PredictionsProduced.Add(float64(len(msgs)))
	w.logger.Info("predictions published",
		"topic", w.writer.Topic,
		"date", pred.Date.Format(time.DateOnly),
		"messages", len(msgs),
		"run_id", runID,
	)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessages marshals each scored hotspot into a Kafka message
// keyed by hotspot id.
func serializeToMessages(pred *pipeline.Prediction, runID string) ([]kafkago.Message, error) {
	date := []byte(pred.Date.Format(time.DateOnly))
	version := []byte(pred.ModelVersion)
	msgs := make([]kafkago.Message, len(pred.Records))
	for i, rec := range pred.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("serialize hotspot %s: %w", rec.ID, err)
		}
		msgs[i] = kafkago.Message{
			Key:   []byte(rec.ID),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "prediction_date", Value: date},
				{Key: "model_version", Value: version},
				{Key: "run_id", Value: []byte(runID)},
			},
		}
	}
	return msgs, nil
}

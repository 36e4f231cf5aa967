//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/inpe"
	"github.com/couchcryptid/fire-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/fire-risk-service/internal/adapter/parquet"
	"github.com/couchcryptid/fire-risk-service/internal/config"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/model"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/pipeline"
	"github.com/couchcryptid/fire-risk-service/internal/scheduler"
)

const testTopic = "test-fire-risk-predictions"

// TestWriterPublishesPredictions verifies one message per hotspot with the
// prediction headers, all sharing a run id.
func TestWriterPublishesPredictions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaPredictionsTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger(), observability.NewMetricsForTesting())
	t.Cleanup(func() { _ = writer.Close() })

	day := time.Date(2024, time.August, 10, 0, 0, 0, 0, time.UTC)
	recs := hotspotDay(day, true)
	require.NoError(t, writer.Publish(ctx, &pipeline.Prediction{Date: day, ModelVersion: "ridge-test", Records: recs}))

	msgs := readMessages(ctx, t, broker, testTopic, len(recs))
	runID := msgs[0].Headers["run_id"]
	assert.NotEmpty(t, runID)
	for i, m := range msgs {
		assert.Equal(t, recs[i].ID, m.Key)
		assert.Equal(t, "2024-08-10", m.Headers["prediction_date"])
		assert.Equal(t, "ridge-test", m.Headers["model_version"])
		assert.Equal(t, runID, m.Headers["run_id"])

		var got domain.HotspotRecord
		require.NoError(t, json.Unmarshal(m.Value, &got))
		assert.Equal(t, recs[i].Municipality, got.Municipality)
	}
}

// TestTrainPredictPublish runs the whole flow: build the training table,
// select a model, score a day from local files via the scheduler, and
// publish to Kafka.
func TestTrainPredictPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	historyDir, dailyDir, work := t.TempDir(), t.TempDir(), t.TempDir()
	start := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	for d := range 20 {
		day := start.AddDate(0, 0, d)
		writeDailyCSV(t, historyDir, day, hotspotDay(day, true))
	}
	target := time.Date(2024, time.August, 10, 0, 0, 0, 0, time.UTC)
	writeDailyCSV(t, dailyDir, target.AddDate(0, 0, -1), hotspotDay(target.AddDate(0, 0, -1), false))
	writeDailyCSV(t, dailyDir, target, hotspotDay(target, false))

	logger, metrics := discardLogger(), observability.NewMetricsForTesting()

	tablePath := filepath.Join(work, "data_prepared.parquet")
	cutoff := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	trainTable, err := pipeline.NewTrainingAssembler(cutoff, logger, metrics).Build(ctx, historyDir, tablePath)
	require.NoError(t, err)

	persisted, err := parquet.ReadTable(tablePath)
	require.NoError(t, err)
	assert.Equal(t, trainTable.Names(), persisted.Names())

	art, _, err := model.NewSelector(5, logger).Select(persisted)
	require.NoError(t, err)
	modelPath := filepath.Join(work, "model.json")
	require.NoError(t, art.Save(modelPath))

	svc := model.NewService(modelPath, logger, metrics)
	_, err = svc.Reload()
	require.NoError(t, err)

	predictor := pipeline.NewPredictor(
		inpe.NewArchive(dailyDir, nil, logger, metrics),
		pipeline.NewPredictionAssembler(parquet.SchemaFile{Path: tablePath}, logger, metrics),
		svc,
		logger,
	)

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)
	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaPredictionsTopic: testTopic}
	writer := kafka.NewWriter(cfg, logger, metrics)
	t.Cleanup(func() { _ = writer.Close() })

	domain.SetClock(clockwork.NewFakeClockAt(target.Add(30 * time.Hour)))
	t.Cleanup(func() { domain.SetClock(nil) })

	sched := scheduler.New("06:00", predictor, writer, logger, metrics)
	require.NoError(t, sched.RunOnce(ctx))

	want := hotspotDay(target, false)
	msgs := readMessages(ctx, t, broker, testTopic, len(want))
	for i, m := range msgs {
		assert.Equal(t, want[i].ID, m.Key)
		assert.Equal(t, art.Version(), m.Headers["model_version"])

		var got domain.HotspotRecord
		require.NoError(t, json.Unmarshal(m.Value, &got))
		require.NotNil(t, got.FireRisk, "every hotspot carries a prediction")
	}
}

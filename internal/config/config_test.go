package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "data", cfg.HistoryDir)
	assert.Equal(t, "daily_data", cfg.DailyDir)
	assert.Equal(t, "prepared_data/data_prepared.parquet", cfg.TrainingTablePath)
	assert.Equal(t, "fire_risk_model.json", cfg.ModelPath)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), cfg.DateCutoff)
	assert.Equal(t, 30, cfg.ValidationDays)
	assert.Equal(t, DefaultArchiveBaseURL, cfg.ArchiveBaseURL)
	assert.True(t, cfg.ArchiveEnabled)
	assert.Equal(t, 30*time.Second, cfg.ArchiveTimeout)
	assert.Equal(t, 32, cfg.PredictionCacheSize)
	assert.False(t, cfg.ScheduleEnabled)
	assert.Equal(t, "06:00", cfg.ScheduleAt)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "fire-risk-predictions", cfg.KafkaPredictionsTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("HISTORY_DIR", "/srv/history")
	t.Setenv("DAILY_DIR", "/srv/daily")
	t.Setenv("TRAINING_TABLE_PATH", "/srv/prepared.parquet")
	t.Setenv("MODEL_PATH", "/srv/model.json")
	t.Setenv("DATE_CUTOFF", "2024-06-01")
	t.Setenv("VALIDATION_DAYS", "14")
	t.Setenv("ARCHIVE_ENABLED", "false")
	t.Setenv("ARCHIVE_TIMEOUT", "5s")
	t.Setenv("PREDICTION_CACHE_SIZE", "8")
	t.Setenv("SCHEDULE_ENABLED", "true")
	t.Setenv("SCHEDULE_AT", "07:30")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_PREDICTIONS_TOPIC", "risk")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/srv/history", cfg.HistoryDir)
	assert.Equal(t, "/srv/daily", cfg.DailyDir)
	assert.Equal(t, "/srv/prepared.parquet", cfg.TrainingTablePath)
	assert.Equal(t, "/srv/model.json", cfg.ModelPath)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), cfg.DateCutoff)
	assert.Equal(t, 14, cfg.ValidationDays)
	assert.False(t, cfg.ArchiveEnabled)
	assert.Equal(t, 5*time.Second, cfg.ArchiveTimeout)
	assert.Equal(t, 8, cfg.PredictionCacheSize)
	assert.True(t, cfg.ScheduleEnabled)
	assert.Equal(t, "07:30", cfg.ScheduleAt)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "risk", cfg.KafkaPredictionsTopic)
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"shutdown timeout", "SHUTDOWN_TIMEOUT", "soon"},
		{"archive timeout", "ARCHIVE_TIMEOUT", "-1s"},
		{"cutoff", "DATE_CUTOFF", "01-01-2023"},
		{"validation days", "VALIDATION_DAYS", "0"},
		{"cache size", "PREDICTION_CACHE_SIZE", "lots"},
		{"schedule", "SCHEDULE_AT", "6am"},
		{"kafka without brokers", "KAFKA_ENABLED", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

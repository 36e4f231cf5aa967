package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultArchiveBaseURL is the INPE directory listing of daily Brazil hotspot CSVs.
const DefaultArchiveBaseURL = "https://dataserver-coids.inpe.br/queimadas/queimadas/focos/csv/diario/Brasil/"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Data locations.
	HistoryDir        string
	DailyDir          string
	TrainingTablePath string
	ModelPath         string

	// Training.
	DateCutoff     time.Time
	ValidationDays int

	// INPE archive fetching.
	ArchiveBaseURL string
	ArchiveEnabled bool
	ArchiveTimeout time.Duration

	PredictionCacheSize int

	// Daily scheduled prediction.
	ScheduleEnabled bool
	ScheduleAt      string

	// Kafka prediction publishing.
	KafkaBrokers          []string
	KafkaEnabled          bool
	KafkaPredictionsTopic string
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is loaded first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	archiveTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("ARCHIVE_TIMEOUT", "30s"))
	if err != nil || archiveTimeout <= 0 {
		return nil, errors.New("invalid ARCHIVE_TIMEOUT")
	}

	cutoff, err := time.ParseInLocation(time.DateOnly, sharedcfg.EnvOrDefault("DATE_CUTOFF", "2023-01-01"), time.UTC)
	if err != nil {
		return nil, errors.New("invalid DATE_CUTOFF: want YYYY-MM-DD")
	}

	validationDays, err := positiveInt("VALIDATION_DAYS", 30)
	if err != nil {
		return nil, err
	}
	cacheSize, err := positiveInt("PREDICTION_CACHE_SIZE", 32)
	if err != nil {
		return nil, err
	}

	scheduleAt := sharedcfg.EnvOrDefault("SCHEDULE_AT", "06:00")
	if _, err := time.Parse("15:04", scheduleAt); err != nil {
		return nil, errors.New("invalid SCHEDULE_AT: want HH:MM")
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		HistoryDir:        sharedcfg.EnvOrDefault("HISTORY_DIR", "data"),
		DailyDir:          sharedcfg.EnvOrDefault("DAILY_DIR", "daily_data"),
		TrainingTablePath: sharedcfg.EnvOrDefault("TRAINING_TABLE_PATH", "prepared_data/data_prepared.parquet"),
		ModelPath:         sharedcfg.EnvOrDefault("MODEL_PATH", "fire_risk_model.json"),

		DateCutoff:     cutoff,
		ValidationDays: validationDays,

		ArchiveBaseURL: sharedcfg.EnvOrDefault("ARCHIVE_BASE_URL", DefaultArchiveBaseURL),
		ArchiveEnabled: sharedcfg.EnvOrDefault("ARCHIVE_ENABLED", "true") == "true",
		ArchiveTimeout: archiveTimeout,

		PredictionCacheSize: cacheSize,

		ScheduleEnabled: os.Getenv("SCHEDULE_ENABLED") == "true",
		ScheduleAt:      scheduleAt,

		KafkaBrokers:          brokers,
		KafkaEnabled:          kafkaEnabled,
		KafkaPredictionsTopic: sharedcfg.EnvOrDefault("KAFKA_PREDICTIONS_TOPIC", "fire-risk-predictions"),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaPredictionsTopic == "" {
		return nil, errors.New("KAFKA_PREDICTIONS_TOPIC is required")
	}
	if cfg.ArchiveEnabled && cfg.ArchiveBaseURL == "" {
		return nil, errors.New("ARCHIVE_BASE_URL is required when ARCHIVE_ENABLED is true")
	}

	return cfg, nil
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	LogLevel     slog.Level
	HTTPPort     string
	StoreBackend string
	PostgresDSN  string
	AutoMigrate  bool
	KafkaBrokers []string

	PostgresMaxOpenConns int
	PostgresMaxIdleConns int

	PollMaxOptions     int
	PollMaxLabelLength int
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "strawpoll"
	}

	var level slog.Level
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND")))
	if backend == "" {
		backend = StoreBackendMemory
	}
	if backend != StoreBackendMemory && backend != StoreBackendPostgres {
		return Config{}, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendMemory, StoreBackendPostgres, backend)
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	maxOptions, err := envInt("POLL_MAX_OPTIONS", 5)
	if err != nil {
		return Config{}, err
	}
	if maxOptions < 1 || maxOptions > 255 {
		return Config{}, fmt.Errorf("POLL_MAX_OPTIONS must be between 1 and 255, got %d", maxOptions)
	}
	maxLabelLength, err := envInt("POLL_MAX_LABEL_LENGTH", 50)
	if err != nil {
		return Config{}, err
	}
	if maxLabelLength < 1 {
		return Config{}, fmt.Errorf("POLL_MAX_LABEL_LENGTH must be positive, got %d", maxLabelLength)
	}
	maxOpen, err := envInt("POSTGRES_MAX_OPEN_CONNS", 20)
	if err != nil {
		return Config{}, err
	}
	maxIdle, err := envInt("POSTGRES_MAX_IDLE_CONNS", 5)
	if err != nil {
		return Config{}, err
	}
	batchSize, err := envInt("OUTBOX_BATCH_SIZE", 100)
	if err != nil {
		return Config{}, err
	}
	interval, err := envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName:  service,
		LogLevel:     level,
		HTTPPort:     port,
		StoreBackend: backend,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		AutoMigrate:  envBool("AUTO_MIGRATE", true),
		KafkaBrokers: brokers,

		PostgresMaxOpenConns: maxOpen,
		PostgresMaxIdleConns: maxIdle,

		PollMaxOptions:     maxOptions,
		PollMaxLabelLength: maxLabelLength,
		OutboxPollInterval: interval,
		OutboxBatchSize:    batchSize,
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return value, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return value, nil
}

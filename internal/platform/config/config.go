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
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	PushBackendFCM    = "fcm"
	PushBackendMemory = "memory"

	ExpiryScanFull       = "full"
	ExpiryScanCandidates = "candidates"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string
	LogLevel     slog.Level

	StoreBackend string
	PushBackend  string

	FCMProjectID       string
	FCMCredentialsFile string

	OrderUpdatesTopic        string
	OrderNotifyConsumerGroup string
	EnableOrderNotifyDedup   bool

	ExpiryScheduleHour     int
	ExpiryScheduleMinute   int
	ExpiryScheduleLocation *time.Location
	ExpiryScanMode         string
	ExpiryCandidateWindow  time.Duration
	ExpiryBatchSize        int
	ExpiryConcurrency      int

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "ticketops"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
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

	hour, minute, err := parseClock(envString("EXPIRY_SCHEDULE_AT", "00:00"))
	if err != nil {
		return Config{}, err
	}
	location, err := time.LoadLocation(envString("EXPIRY_SCHEDULE_TZ", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("load EXPIRY_SCHEDULE_TZ: %w", err)
	}

	scanMode := strings.ToLower(envString("EXPIRY_SCAN_MODE", ExpiryScanFull))
	if scanMode != ExpiryScanFull && scanMode != ExpiryScanCandidates {
		scanMode = ExpiryScanFull
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,
		LogLevel:     envLevel("LOG_LEVEL", slog.LevelInfo),

		StoreBackend: envChoice("STORE_BACKEND", StoreBackendPostgres, StoreBackendPostgres, StoreBackendMemory),
		PushBackend:  envChoice("PUSH_BACKEND", PushBackendFCM, PushBackendFCM, PushBackendMemory),

		FCMProjectID:       os.Getenv("FCM_PROJECT_ID"),
		FCMCredentialsFile: os.Getenv("FCM_CREDENTIALS_FILE"),

		OrderUpdatesTopic:        envString("ORDER_UPDATES_TOPIC", "orders.updated"),
		OrderNotifyConsumerGroup: envString("ORDER_NOTIFY_CONSUMER_GROUP", "order-notifier-cg"),
		EnableOrderNotifyDedup:   envBool("ENABLE_ORDER_NOTIFY_DEDUP", true),

		ExpiryScheduleHour:     hour,
		ExpiryScheduleMinute:   minute,
		ExpiryScheduleLocation: location,
		ExpiryScanMode:         scanMode,
		ExpiryCandidateWindow:  envDuration("EXPIRY_CANDIDATE_WINDOW", 30*24*time.Hour),
		ExpiryBatchSize:        envInt("EXPIRY_BATCH_SIZE", 200),
		ExpiryConcurrency:      envInt("EXPIRY_CONCURRENCY", 8),

		OutboxPollInterval: envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    envInt("OUTBOX_BATCH_SIZE", 100),
	}, nil
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envChoice(name string, fallback string, allowed ...string) string {
	value := strings.ToLower(envString(name, fallback))
	for _, candidate := range allowed {
		if value == candidate {
			return value
		}
	}
	return fallback
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

// envInt accepts positive integers only.
func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envLevel(name string, fallback slog.Level) slog.Level {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return fallback
	}
	return level
}

func parseClock(value string) (int, int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("parse EXPIRY_SCHEDULE_AT %q: %w", value, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// Package config loads process configuration from the environment so main
// stays lean. The publish mode is validated here: an unrecognized value must
// abort startup, never fail per publish call.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// PublishMode selects how domain events leave the process.
type PublishMode string

const (
	// PublishModeSync delivers each event to its webhook before returning.
	PublishModeSync PublishMode = "sync"
	// PublishModeAsync hands events to a background worker and returns
	// immediately; delivery acknowledgements resolve later.
	PublishModeAsync PublishMode = "async"
	// PublishModeKafka produces events to a Kafka topic.
	PublishModeKafka PublishMode = "kafka"
	// PublishModeNATS publishes events to a NATS subject.
	PublishModeNATS PublishMode = "nats"
)

// ParsePublishMode validates a publish mode string.
func ParsePublishMode(s string) (PublishMode, error) {
	m := PublishMode(s)
	switch m {
	case PublishModeSync, PublishModeAsync, PublishModeKafka, PublishModeNATS:
		return m, nil
	}
	return "", fmt.Errorf("unknown publish mode %q (want sync, async, kafka, or nats)", s)
}

// Redis captures connection settings for the go-redis client.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Config is the full process configuration.
type Config struct {
	Addr           string
	LogLevel       string
	PublishMode    PublishMode
	WebhookBaseURL string
	DatabaseURL    string
	Redis          Redis
	KafkaBrokers   string
	NATSURL        string

	// UserDirectoryFile optionally points at a JSON provisioning file for
	// the user directory.
	UserDirectoryFile string

	// MaxRequestsPerYear caps verification-request creation per
	// (customer, requestor, year).
	MaxRequestsPerYear int
	// OfficerWorkloadLimit is the open-assignment count above which an
	// officer cannot be auto-assigned.
	OfficerWorkloadLimit int
}

// FromEnv builds the configuration from environment variables. It returns an
// error for values that must be valid at boot, most importantly the publish
// mode.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:                 envOr("VERIFLOW_ADDR", ":8080"),
		LogLevel:             envOr("LOG_LEVEL", "info"),
		WebhookBaseURL:       envOr("WEBHOOK_BASE_URL", "http://localhost:8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		KafkaBrokers:         envOr("KAFKA_BROKERS", "localhost:9092"),
		NATSURL:              envOr("NATS_URL", "nats://localhost:4222"),
		UserDirectoryFile:    os.Getenv("USER_DIRECTORY_FILE"),
		MaxRequestsPerYear:   10,
		OfficerWorkloadLimit: 5,
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	mode, err := ParsePublishMode(envOr("PUBLISH_MODE", string(PublishModeSync)))
	if err != nil {
		return Config{}, err
	}
	cfg.PublishMode = mode

	if v := os.Getenv("MAX_REQUESTS_PER_YEAR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid MAX_REQUESTS_PER_YEAR %q", v)
		}
		cfg.MaxRequestsPerYear = n
	}

	if v := os.Getenv("OFFICER_WORKLOAD_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid OFFICER_WORKLOAD_LIMIT %q", v)
		}
		cfg.OfficerWorkloadLimit = n
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures service level configuration. Values come from the
// environment so main stays lean; development defaults are deliberate.
type Config struct {
	Addr            string
	DatabaseURL     string
	JWTVerifyingKey string

	Redis  RedisConfig
	Kafka  KafkaConfig
	Alerts AlertsConfig

	PrisonerSearchURL string
	ManageUsersURL    string

	// ReconciliationWritesEnabled gates note synthesis. When false the
	// reconciliation and verification engines only report mismatches.
	ReconciliationWritesEnabled bool
}

// RedisConfig controls connection pooling for the gating/cache client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig names the brokers and the topics this service produces to and
// consumes from.
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	// EventsTopic carries outbound case-note domain events.
	EventsTopic string
	// InboundTopic carries alert, merge and reconciliation trigger events.
	InboundTopic string
	// TriggerTopic receives re-published reconciliation trigger batches.
	TriggerTopic string
}

// AlertsConfig points at the alerts service.
type AlertsConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:            envOr("CASE_NOTES_ADDR", ":8080"),
		DatabaseURL:     envOr("DATABASE_URL", "postgres://localhost:5432/case_notes?sslmode=disable"),
		JWTVerifyingKey: os.Getenv("JWT_VERIFYING_KEY"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(envOr("KAFKA_BROKERS", "localhost:9092")),
			ConsumerGroup: envOr("KAFKA_CONSUMER_GROUP", "offender-case-notes"),
			EventsTopic:   envOr("KAFKA_EVENTS_TOPIC", "case-notes.events"),
			InboundTopic:  envOr("KAFKA_INBOUND_TOPIC", "case-notes.inbound"),
			TriggerTopic:  envOr("KAFKA_TRIGGER_TOPIC", "case-notes.reconciliation"),
		},
		Alerts: AlertsConfig{
			BaseURL:    envOr("ALERTS_API_URL", "http://localhost:8081"),
			Timeout:    10 * time.Second,
			MaxRetries: uint64(envIntOr("ALERTS_API_MAX_RETRIES", 3)),
		},
		PrisonerSearchURL:           envOr("PRISONER_SEARCH_URL", "http://localhost:8082"),
		ManageUsersURL:              envOr("MANAGE_USERS_URL", "http://localhost:8083"),
		ReconciliationWritesEnabled: os.Getenv("RECONCILIATION_WRITES_ENABLED") == "true",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

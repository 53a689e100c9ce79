package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	// DevTokens exposes POST /dev/token for local testing.
	DevTokens bool

	RequestTimeout time.Duration
	SessionTTL     time.Duration
	// LatestTaxYear and TaxYearCount define the selectable tax years.
	LatestTaxYear int
	TaxYearCount  int

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Audit    AuditConfig
}

// PostgresConfig configures the step-data, submission and outbox stores.
// An empty URL selects the in-memory stores.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig configures the draft session store. An empty URL selects the
// in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures event publication. No brokers disables the outbox
// relay and the audit consumer.
type KafkaConfig struct {
	Brokers            []string
	ClientID           string
	ConsumerGroup      string
	ComplianceTopic    string
	OpsTopic           string
	SubmissionsTopic   string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// AuditConfig tunes the operational audit tracker.
type AuditConfig struct {
	OpsSampleRate       float64
	OpsBufferSize       int
	BreakerThreshold    int
	BreakerCooldown     time.Duration
	OpsFlushInterval    time.Duration
	ComplianceTimeout   time.Duration
	MaterializeConsumer bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:           envString("TAXFILE_ADDR", ":8080"),
		JWTSigningKey:  jwtSigningKey,
		JWTIssuer:      envString("JWT_ISSUER", "taxfile"),
		DevTokens:      envBool("DEV_TOKENS", false),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 15*time.Second),
		SessionTTL:     envDuration("SESSION_TTL", 24*time.Hour),
		LatestTaxYear:  envInt("LATEST_TAX_YEAR", time.Now().Year()),
		TaxYearCount:   envInt("TAX_YEAR_COUNT", 5),
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     envBool("DATABASE_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:            envList("KAFKA_BROKERS"),
			ClientID:           envString("KAFKA_CLIENT_ID", "taxfile"),
			ConsumerGroup:      envString("KAFKA_CONSUMER_GROUP", "taxfile-audit"),
			ComplianceTopic:    envString("KAFKA_TOPIC_AUDIT_COMPLIANCE", "taxfile.audit.compliance"),
			OpsTopic:           envString("KAFKA_TOPIC_AUDIT_OPS", "taxfile.audit.ops"),
			SubmissionsTopic:   envString("KAFKA_TOPIC_SUBMISSIONS", "taxfile.filing.submissions"),
			OutboxPollInterval: envDuration("OUTBOX_POLL_INTERVAL", time.Second),
			OutboxBatchSize:    envInt("OUTBOX_BATCH_SIZE", 100),
		},
		Audit: AuditConfig{
			OpsSampleRate:       envFloat("AUDIT_OPS_SAMPLE_RATE", 1.0),
			OpsBufferSize:       envInt("AUDIT_OPS_BUFFER_SIZE", 10000),
			BreakerThreshold:    envInt("AUDIT_BREAKER_THRESHOLD", 5),
			BreakerCooldown:     envDuration("AUDIT_BREAKER_COOLDOWN", time.Minute),
			OpsFlushInterval:    envDuration("AUDIT_OPS_FLUSH_INTERVAL", 500*time.Millisecond),
			ComplianceTimeout:   envDuration("AUDIT_COMPLIANCE_TIMEOUT", 2*time.Second),
			MaterializeConsumer: envBool("AUDIT_MATERIALIZE", true),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

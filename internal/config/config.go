package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Service holds general service settings
type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8080"`
	Host        string `envconfig:"SERVICE_HOST" default:"localhost:8080"`
}

// Postgres holds settings for the transactional store
type Postgres struct {
	Host            string `envconfig:"POSTGRES_HOST" required:"true"`
	Port            string `envconfig:"POSTGRES_PORT" default:"5432"`
	Database        string `envconfig:"POSTGRES_DB" required:"true"`
	User            string `envconfig:"POSTGRES_USER" required:"true"`
	Password        string `envconfig:"POSTGRES_PASSWORD" default:""`
	SSLMode         string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxOpenConns    int    `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int    `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime int    `envconfig:"POSTGRES_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// ClickHouse holds settings for the event archive store
type ClickHouse struct {
	Host            string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port            string `envconfig:"CLICKHOUSE_PORT" required:"true"`
	Database        string `envconfig:"CLICKHOUSE_DB" required:"true"`
	User            string `envconfig:"CLICKHOUSE_USER" default:""`
	Password        string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
	UseTLS          bool   `envconfig:"CLICKHOUSE_USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"CLICKHOUSE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"CLICKHOUSE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// SQS holds settings for the archive queue
type SQS struct {
	Endpoint string `envconfig:"SQS_ENDPOINT"`
	QueueURL string `envconfig:"SQS_QUEUE_URL" required:"true"`
	Region   string `envconfig:"SQS_REGION" required:"true"`
}

// Redis holds settings for the optional shared abuse-counter store
type Redis struct {
	Enabled  bool   `envconfig:"REDIS_ABUSE_GUARD_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	FailOpen bool   `envconfig:"REDIS_ABUSE_GUARD_FAIL_OPEN" default:"true"`
}

// Tracking holds settings for the visitor resolution and scoring pipeline
type Tracking struct {
	// IPSalt defaults to a fixed fallback; override it in production.
	IPSalt                  string `envconfig:"IP_HASH_SALT" default:"default-salt-change-in-production"`
	AnonymizeIPs            bool   `envconfig:"ENABLE_IP_ANONYMIZATION" default:"false"`
	AbuseThresholdPerMinute int    `envconfig:"ABUSE_THRESHOLD_PER_MINUTE" default:"50"`
	// AbuseBlockTTLSec of 0 keeps blocked IPs blocked for the process lifetime.
	AbuseBlockTTLSec   int    `envconfig:"ABUSE_BLOCK_TTL_SEC" default:"0"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
	GeoTimeoutSec      int    `envconfig:"GEO_LOOKUP_TIMEOUT_SEC" default:"5"`
	IPInfoToken        string `envconfig:"IPINFO_TOKEN" default:""`
	AdminAPIToken      string `envconfig:"ADMIN_API_TOKEN" required:"true"`
	AllowedOrigins     string `envconfig:"ALLOWED_ORIGINS" default:""`
}

// Consumer holds settings for the archive consumer
type Consumer struct {
	BatchSizeMin    int    `envconfig:"CONSUMER_BATCH_SIZE_MIN" default:"100"`
	BatchSizeMax    int    `envconfig:"CONSUMER_BATCH_SIZE_MAX" default:"2000"`
	BatchTimeoutSec int    `envconfig:"CONSUMER_BATCH_TIMEOUT_SEC" default:"10"`
	HealthCheckPort string `envconfig:"CONSUMER_HEALTH_CHECK_PORT" default:"8081"`
}

// Config is the full service configuration loaded from the environment
type Config struct {
	Service    Service
	Postgres   Postgres
	ClickHouse ClickHouse
	SQS        SQS
	Redis      Redis
	Tracking   Tracking
	Consumer   Consumer
}

// Load reads configuration from a .env file (if present) and the environment
func Load() (*Config, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

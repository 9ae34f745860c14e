package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/leadsight/visitor-analytics-service/internal/config"
)

// Client wraps the Postgres connection pool
type Client struct {
	db  *sql.DB
	log *zap.Logger
}

// NewClient creates a new Postgres client with the given configuration
func NewClient(ctx context.Context, cfg *config.Postgres, log *zap.Logger) (*Client, error) {
	dsn := fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.SSLMode)

	log.Info("Connecting to Postgres",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Database))

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	log.Info("Postgres connection established successfully")

	return &Client{db: db, log: log}, nil
}

// DB returns the underlying connection pool
func (c *Client) DB() *sql.DB {
	return c.db
}

// Ping checks if the Postgres connection is alive
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the Postgres connection pool
func (c *Client) Close() error {
	c.log.Info("Closing Postgres connection")
	return c.db.Close()
}

// InitSchema creates the visitor, session, and page event tables if they do
// not exist.
func (c *Client) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS visitors (
			id UUID PRIMARY KEY,
			identity_key TEXT NOT NULL UNIQUE,
			country TEXT,
			region TEXT,
			city TEXT,
			timezone TEXT,
			device_type TEXT,
			browser TEXT,
			os TEXT,
			screen_resolution TEXT,
			referrer TEXT,
			utm_source TEXT,
			utm_medium TEXT,
			utm_campaign TEXT,
			primary_referral_source TEXT,
			first_visit_date TIMESTAMPTZ NOT NULL,
			last_visit_date TIMESTAMPTZ NOT NULL,
			visit_count INT NOT NULL DEFAULT 1,
			total_time_spent INT NOT NULL DEFAULT 0,
			avg_session_duration INT NOT NULL DEFAULT 0,
			pages_per_session NUMERIC(10,2) NOT NULL DEFAULT 0,
			most_visited_page TEXT,
			engagement_score INT NOT NULL DEFAULT 0,
			intent_score INT NOT NULL DEFAULT 0,
			heat_level TEXT NOT NULL DEFAULT 'Cold',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			visitor_id UUID NOT NULL REFERENCES visitors(id),
			session_start TIMESTAMPTZ NOT NULL,
			session_end TIMESTAMPTZ,
			session_duration INT NOT NULL DEFAULT 0,
			pages_visited_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_visitor_start
			ON sessions (visitor_id, session_start DESC)`,
		`CREATE TABLE IF NOT EXISTS page_events (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES sessions(id),
			page_url TEXT NOT NULL,
			event_type TEXT NOT NULL,
			scroll_depth INT NOT NULL DEFAULT 0,
			click_target TEXT,
			time_spent INT NOT NULL DEFAULT 0,
			timestamp TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_page_events_session
			ON page_events (session_id)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	c.log.Info("Postgres schema initialized successfully")
	return nil
}

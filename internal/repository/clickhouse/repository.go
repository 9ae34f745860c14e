package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/leadsight/visitor-analytics-service/internal/domain"
	"github.com/leadsight/visitor-analytics-service/internal/repository"
)

// Repository implements ArchiveRepository for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse archive repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema initializes the archive schema with a ReplacingMergeTree engine
// so redelivered events collapse on event_id.
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS page_events_archive (
		event_id String,
		visitor_id String,
		session_id String,
		page_url LowCardinality(String),
		event_type LowCardinality(String),
		scroll_depth Int32,
		click_target String,
		time_spent Int32,
		intent_delta Int32,
		engagement_delta Int32,
		country LowCardinality(String),
		device_type LowCardinality(String),
		browser LowCardinality(String),
		os LowCardinality(String),
		referrer String,
		utm_source LowCardinality(String),
		utm_medium LowCardinality(String),
		utm_campaign LowCardinality(String),
		is_new_visitor Bool,
		is_new_session Bool,
		timestamp Int64,
		processed_at DateTime64(3) DEFAULT now64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	PRIMARY KEY (event_id)
	ORDER BY (event_id, timestamp)
	PARTITION BY toYYYYMM(toDateTime(timestamp))
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create archive table: %w", err)
	}

	r.log.Info("ClickHouse archive schema initialized successfully")
	return nil
}

// InsertBatch inserts a batch of enriched events into the archive
func (r *Repository) InsertBatch(ctx context.Context, events []*domain.ArchiveEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO page_events_archive")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	insertedCount := 0
	for _, event := range events {
		if event.Version == 0 {
			event.Version = uint64(time.Now().UnixNano())
		}

		err := batch.Append(
			event.EventID,
			event.VisitorID,
			event.SessionID,
			event.PageURL,
			event.EventType,
			event.ScrollDepth,
			event.ClickTarget,
			event.TimeSpent,
			event.IntentDelta,
			event.EngagementDelta,
			event.Country,
			event.DeviceType,
			event.Browser,
			event.OS,
			event.Referrer,
			event.UTMSource,
			event.UTMMedium,
			event.UTMCampaign,
			event.IsNewVisitor,
			event.IsNewSession,
			event.Timestamp,
			event.ProcessedAt,
			event.Version,
		)

		if err != nil {
			return 0, fmt.Errorf("failed to append event to batch: %w", err)
		}
		insertedCount++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return insertedCount, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// GetMetrics retrieves aggregated pageview metrics from the archive
func (r *Repository) GetMetrics(ctx context.Context, query repository.ArchiveQuery) (*repository.ArchiveResult, error) {
	result := &repository.ArchiveResult{
		Groups: []repository.ArchiveGroupResult{},
	}

	whereClause := "WHERE timestamp >= ? AND timestamp <= ?"
	args := []interface{}{query.From, query.To}

	overallQuery := fmt.Sprintf(`
		SELECT
			count() as total_count,
			uniq(visitor_id) as unique_visitors
		FROM page_events_archive FINAL
		%s
	`, whereClause)

	row := r.client.Conn().QueryRow(ctx, overallQuery, args...)
	if err := row.Scan(&result.TotalCount, &result.UniqueVisitors); err != nil {
		return nil, fmt.Errorf("failed to query overall metrics: %w", err)
	}

	if query.GroupBy != "" {
		var selectField string
		var groupByClause string
		var orderBy string

		switch query.GroupBy {
		case "page":
			selectField = "page_url"
			groupByClause = "GROUP BY page_url"
			orderBy = "ORDER BY total_count DESC"
		case "country":
			selectField = "country"
			groupByClause = "GROUP BY country"
			orderBy = "ORDER BY total_count DESC"
		case "day":
			selectField = "formatDateTime(toStartOfDay(toDateTime(timestamp)), '%Y-%m-%d')"
			groupByClause = "GROUP BY toStartOfDay(toDateTime(timestamp))"
			orderBy = "ORDER BY group_value ASC"
		default:
			return nil, fmt.Errorf("unsupported group_by value: %s (supported: page, country, day)", query.GroupBy)
		}

		groupedQuery := fmt.Sprintf(`
			SELECT
				%s as group_value,
				count() as total_count
			FROM page_events_archive FINAL
			%s
			%s
			%s
		`, selectField, whereClause, groupByClause, orderBy)

		rows, err := r.client.Conn().Query(ctx, groupedQuery, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query grouped metrics: %w", err)
		}
		defer func(rows driver.Rows) {
			if err := rows.Close(); err != nil {
				r.log.Error("Failed to close grouped metrics rows", zap.Error(err))
			}
		}(rows)

		for rows.Next() {
			var group repository.ArchiveGroupResult
			if err := rows.Scan(&group.GroupValue, &group.TotalCount); err != nil {
				return nil, fmt.Errorf("failed to scan grouped metrics row: %w", err)
			}
			result.Groups = append(result.Groups, group)
		}

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating grouped metrics rows: %w", err)
		}
	}

	return result, nil
}

package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/leadsight/visitor-analytics-service/internal/domain"
	"github.com/leadsight/visitor-analytics-service/internal/repository"
)

// PageEventRepo implements repository.PageEventRepository for Postgres
type PageEventRepo struct {
	client *Client
	log    *zap.Logger
}

// NewPageEventRepo creates a new Postgres page event repository
func NewPageEventRepo(client *Client, log *zap.Logger) *PageEventRepo {
	return &PageEventRepo{client: client, log: log}
}

// Insert implements repository.PageEventRepository. Page events are
// append-only; there is no update path.
func (r *PageEventRepo) Insert(ctx context.Context, e *domain.PageEvent) error {
	query := `INSERT INTO page_events (id, session_id, page_url, event_type, scroll_depth, click_target, time_spent, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.client.DB().ExecContext(ctx, query,
		e.ID, e.SessionID, e.PageURL, e.EventType, e.ScrollDepth,
		nullable(e.ClickTarget), e.TimeSpent, e.Timestamp, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert page event: %w", err)
	}
	return nil
}

// CountBySession implements repository.PageEventRepository
func (r *PageEventRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	query := `SELECT COUNT(*) FROM page_events WHERE session_id = $1`

	var count int
	if err := r.client.DB().QueryRowContext(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count page events: %w", err)
	}
	return count, nil
}

// URLCountsByVisitor implements repository.PageEventRepository. Ties are
// broken by first occurrence so most_visited_page stays deterministic.
func (r *PageEventRepo) URLCountsByVisitor(ctx context.Context, visitorID string) ([]repository.URLCount, error) {
	query := `SELECT e.page_url, COUNT(*) AS visits
		FROM page_events e
		JOIN sessions s ON s.id = e.session_id
		WHERE s.visitor_id = $1
		GROUP BY e.page_url
		ORDER BY visits DESC, MIN(e.timestamp) ASC`

	rows, err := r.client.DB().QueryContext(ctx, query, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query page url counts: %w", err)
	}
	defer rows.Close()

	var counts []repository.URLCount
	for rows.Next() {
		var c repository.URLCount
		if err := rows.Scan(&c.PageURL, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan page url count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page url counts: %w", err)
	}
	return counts, nil
}

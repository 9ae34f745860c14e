package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leadsight/visitor-analytics-service/internal/domain"
)

// SessionRepo implements repository.SessionRepository for Postgres
type SessionRepo struct {
	client *Client
	log    *zap.Logger
}

// NewSessionRepo creates a new Postgres session repository
func NewSessionRepo(client *Client, log *zap.Logger) *SessionRepo {
	return &SessionRepo{client: client, log: log}
}

// FindOpen implements repository.SessionRepository. Ordering by session_start
// descending makes the tie-break deterministic when concurrent creation left
// more than one open candidate.
func (r *SessionRepo) FindOpen(ctx context.Context, visitorID string, cutoff time.Time) (*domain.Session, error) {
	query := `SELECT id, visitor_id, session_start, session_end, session_duration, pages_visited_count, created_at
		FROM sessions
		WHERE visitor_id = $1 AND session_end IS NULL AND session_start >= $2
		ORDER BY session_start DESC
		LIMIT 1`

	var s domain.Session
	err := r.client.DB().QueryRowContext(ctx, query, visitorID, cutoff).Scan(
		&s.ID, &s.VisitorID, &s.SessionStart, &s.SessionEnd,
		&s.SessionDuration, &s.PagesVisitedCount, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query open session: %w", err)
	}
	return &s, nil
}

// Insert implements repository.SessionRepository
func (r *SessionRepo) Insert(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO sessions (id, visitor_id, session_start, session_end, session_duration, pages_visited_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.client.DB().ExecContext(ctx, query,
		s.ID, s.VisitorID, s.SessionStart, s.SessionEnd,
		s.SessionDuration, s.PagesVisitedCount, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// RecordEvent implements repository.SessionRepository. The duration update is
// a relative increment so concurrent events cannot lose time.
func (r *SessionRepo) RecordEvent(ctx context.Context, sessionID string, timeSpent, pagesCount int) error {
	query := `UPDATE sessions SET
		session_duration = session_duration + $2,
		pages_visited_count = $3
	WHERE id = $1`

	_, err := r.client.DB().ExecContext(ctx, query, sessionID, timeSpent, pagesCount)
	if err != nil {
		return fmt.Errorf("failed to record event on session: %w", err)
	}
	return nil
}

// SumDurations implements repository.SessionRepository
func (r *SessionRepo) SumDurations(ctx context.Context, visitorID string) (int, error) {
	query := `SELECT COALESCE(SUM(session_duration), 0) FROM sessions WHERE visitor_id = $1`

	var total int
	if err := r.client.DB().QueryRowContext(ctx, query, visitorID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum session durations: %w", err)
	}
	return total, nil
}

// CountSince implements repository.SessionRepository
func (r *SessionRepo) CountSince(ctx context.Context, visitorID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE visitor_id = $1 AND session_start >= $2`

	var count int
	if err := r.client.DB().QueryRowContext(ctx, query, visitorID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

package repository

import (
	"context"
	"time"

	"github.com/leadsight/visitor-analytics-service/internal/domain"
)

// VisitorQuery represents an admin visitor listing query
type VisitorQuery struct {
	SortBy    string
	Limit     int
	Country   string
	HeatLevel string
}

// MetricsUpdate carries the cumulative deltas and recomputed derived stats
// applied to a visitor row in a single update. Score and time fields are
// relative increments so the store can apply them atomically.
type MetricsUpdate struct {
	IntentDelta        int
	EngagementDelta    int
	TimeSpentDelta     int
	HeatLevel          string
	AvgSessionDuration int
	PagesPerSession    float64
	MostVisitedPage    string
}

// VisitorRepository defines storage operations for visitor rows
type VisitorRepository interface {
	// GetByIdentityKey returns the visitor for the given identity key, or
	// (nil, nil) when none exists.
	GetByIdentityKey(ctx context.Context, key string) (*domain.Visitor, error)

	// Insert creates a new visitor row. The identity key is unique; a
	// concurrent duplicate insert surfaces as an error.
	Insert(ctx context.Context, visitor *domain.Visitor) error

	// UpdateOnVisit applies the non-null-wins attribute merge and visit
	// bookkeeping for a returning visitor.
	UpdateOnVisit(ctx context.Context, visitor *domain.Visitor) error

	// ApplyMetrics adds score/time increments and stores the recomputed
	// derived stats.
	ApplyMetrics(ctx context.Context, visitorID string, update MetricsUpdate) error

	// List returns visitors for the admin report.
	List(ctx context.Context, query VisitorQuery) ([]*domain.Visitor, error)
}

// SessionRepository defines storage operations for session rows
type SessionRepository interface {
	// FindOpen returns the most recently started session for the visitor
	// with no end time and session_start >= cutoff, or (nil, nil).
	FindOpen(ctx context.Context, visitorID string, cutoff time.Time) (*domain.Session, error)

	// Insert creates a new session row.
	Insert(ctx context.Context, session *domain.Session) error

	// RecordEvent adds timeSpent to the session's duration and sets its
	// page count.
	RecordEvent(ctx context.Context, sessionID string, timeSpent, pagesCount int) error

	// SumDurations returns the total duration across all of the visitor's
	// sessions.
	SumDurations(ctx context.Context, visitorID string) (int, error)

	// CountSince returns how many of the visitor's sessions started at or
	// after the given instant.
	CountSince(ctx context.Context, visitorID string, since time.Time) (int, error)
}

// URLCount is a per-URL event tally for one visitor
type URLCount struct {
	PageURL string
	Count   int
}

// PageEventRepository defines storage operations for the append-only event log
type PageEventRepository interface {
	// Insert appends one immutable page event.
	Insert(ctx context.Context, event *domain.PageEvent) error

	// CountBySession returns the number of events recorded for a session.
	CountBySession(ctx context.Context, sessionID string) (int, error)

	// URLCountsByVisitor tallies events per page URL across all of the
	// visitor's sessions, ordered by count descending with first-seen
	// breaking ties.
	URLCountsByVisitor(ctx context.Context, visitorID string) ([]URLCount, error)
}

// ArchiveQuery represents an archive metrics query
type ArchiveQuery struct {
	From    int64
	To      int64
	GroupBy string
}

// ArchiveGroupResult represents aggregated archive metrics for one group
type ArchiveGroupResult struct {
	GroupValue string
	TotalCount uint64
}

// ArchiveResult represents the result of an archive metrics query
type ArchiveResult struct {
	TotalCount     uint64
	UniqueVisitors uint64
	Groups         []ArchiveGroupResult
}

// ArchiveRepository defines the interface for the append-only event archive
type ArchiveRepository interface {
	// InsertBatch inserts a batch of enriched events into the archive
	InsertBatch(ctx context.Context, events []*domain.ArchiveEvent) (int, error)

	// InitSchema initializes the archive schema
	InitSchema(ctx context.Context) error

	// Ping checks if the archive connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error

	// GetMetrics retrieves aggregated pageview metrics from the archive
	GetMetrics(ctx context.Context, query ArchiveQuery) (*ArchiveResult, error)
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/leadsight/visitor-analytics-service/internal/domain"
	"github.com/leadsight/visitor-analytics-service/internal/repository"
)

// VisitorRepo implements repository.VisitorRepository for Postgres
type VisitorRepo struct {
	client *Client
	log    *zap.Logger
}

// NewVisitorRepo creates a new Postgres visitor repository
func NewVisitorRepo(client *Client, log *zap.Logger) *VisitorRepo {
	return &VisitorRepo{client: client, log: log}
}

const visitorColumns = `id, identity_key,
	COALESCE(country, ''), COALESCE(region, ''), COALESCE(city, ''), COALESCE(timezone, ''),
	COALESCE(device_type, ''), COALESCE(browser, ''), COALESCE(os, ''), COALESCE(screen_resolution, ''),
	COALESCE(referrer, ''), COALESCE(utm_source, ''), COALESCE(utm_medium, ''), COALESCE(utm_campaign, ''),
	COALESCE(primary_referral_source, ''),
	first_visit_date, last_visit_date, visit_count, total_time_spent,
	avg_session_duration, pages_per_session, COALESCE(most_visited_page, ''),
	engagement_score, intent_score, heat_level, created_at, updated_at`

func scanVisitor(row interface{ Scan(...any) error }) (*domain.Visitor, error) {
	var v domain.Visitor
	err := row.Scan(&v.ID, &v.IdentityKey,
		&v.Country, &v.Region, &v.City, &v.Timezone,
		&v.DeviceType, &v.Browser, &v.OS, &v.ScreenResolution,
		&v.Referrer, &v.UTMSource, &v.UTMMedium, &v.UTMCampaign,
		&v.PrimaryReferralSource,
		&v.FirstVisitDate, &v.LastVisitDate, &v.VisitCount, &v.TotalTimeSpent,
		&v.AvgSessionDuration, &v.PagesPerSession, &v.MostVisitedPage,
		&v.EngagementScore, &v.IntentScore, &v.HeatLevel, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// nullable maps empty strings to SQL NULL so the non-null-wins merge keeps
// existing values.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetByIdentityKey implements repository.VisitorRepository
func (r *VisitorRepo) GetByIdentityKey(ctx context.Context, key string) (*domain.Visitor, error) {
	query := fmt.Sprintf(`SELECT %s FROM visitors WHERE identity_key = $1`, visitorColumns)

	visitor, err := scanVisitor(r.client.DB().QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query visitor by identity key: %w", err)
	}
	return visitor, nil
}

// Insert implements repository.VisitorRepository
func (r *VisitorRepo) Insert(ctx context.Context, v *domain.Visitor) error {
	query := `INSERT INTO visitors (
		id, identity_key, country, region, city, timezone,
		device_type, browser, os, screen_resolution,
		referrer, utm_source, utm_medium, utm_campaign, primary_referral_source,
		first_visit_date, last_visit_date, visit_count, total_time_spent,
		avg_session_duration, pages_per_session, most_visited_page,
		engagement_score, intent_score, heat_level, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`

	_, err := r.client.DB().ExecContext(ctx, query,
		v.ID, v.IdentityKey,
		nullable(v.Country), nullable(v.Region), nullable(v.City), nullable(v.Timezone),
		nullable(v.DeviceType), nullable(v.Browser), nullable(v.OS), nullable(v.ScreenResolution),
		nullable(v.Referrer), nullable(v.UTMSource), nullable(v.UTMMedium), nullable(v.UTMCampaign),
		nullable(v.PrimaryReferralSource),
		v.FirstVisitDate, v.LastVisitDate, v.VisitCount, v.TotalTimeSpent,
		v.AvgSessionDuration, v.PagesPerSession, nullable(v.MostVisitedPage),
		v.EngagementScore, v.IntentScore, v.HeatLevel, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert visitor: %w", err)
	}
	return nil
}

// UpdateOnVisit implements repository.VisitorRepository. COALESCE(NULLIF over
// the incoming values gives the non-null-wins merge, and the write-once
// primary referral source only fills in when previously unset.
func (r *VisitorRepo) UpdateOnVisit(ctx context.Context, v *domain.Visitor) error {
	query := `UPDATE visitors SET
		last_visit_date = $2,
		visit_count = visit_count + 1,
		country = COALESCE($3, country),
		region = COALESCE($4, region),
		city = COALESCE($5, city),
		timezone = COALESCE($6, timezone),
		device_type = COALESCE($7, device_type),
		browser = COALESCE($8, browser),
		os = COALESCE($9, os),
		screen_resolution = COALESCE($10, screen_resolution),
		referrer = COALESCE($11, referrer),
		utm_source = COALESCE($12, utm_source),
		utm_medium = COALESCE($13, utm_medium),
		utm_campaign = COALESCE($14, utm_campaign),
		primary_referral_source = COALESCE(primary_referral_source, $11),
		updated_at = $2
	WHERE id = $1`

	result, err := r.client.DB().ExecContext(ctx, query,
		v.ID, v.LastVisitDate,
		nullable(v.Country), nullable(v.Region), nullable(v.City), nullable(v.Timezone),
		nullable(v.DeviceType), nullable(v.Browser), nullable(v.OS), nullable(v.ScreenResolution),
		nullable(v.Referrer), nullable(v.UTMSource), nullable(v.UTMMedium), nullable(v.UTMCampaign))
	if err != nil {
		return fmt.Errorf("failed to update visitor on visit: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("visitor %s not found", v.ID)
	}
	return nil
}

// ApplyMetrics implements repository.VisitorRepository. Score and time fields
// are relative increments so concurrent updates from other processes cannot
// lose additions.
func (r *VisitorRepo) ApplyMetrics(ctx context.Context, visitorID string, u repository.MetricsUpdate) error {
	query := `UPDATE visitors SET
		intent_score = intent_score + $2,
		engagement_score = engagement_score + $3,
		total_time_spent = total_time_spent + $4,
		heat_level = $5,
		avg_session_duration = $6,
		pages_per_session = $7,
		most_visited_page = COALESCE($8, most_visited_page),
		updated_at = now()
	WHERE id = $1`

	_, err := r.client.DB().ExecContext(ctx, query,
		visitorID, u.IntentDelta, u.EngagementDelta, u.TimeSpentDelta,
		u.HeatLevel, u.AvgSessionDuration, u.PagesPerSession, nullable(u.MostVisitedPage))
	if err != nil {
		return fmt.Errorf("failed to apply visitor metrics: %w", err)
	}
	return nil
}

// List implements repository.VisitorRepository
func (r *VisitorRepo) List(ctx context.Context, q repository.VisitorQuery) ([]*domain.Visitor, error) {
	sortColumns := map[string]string{
		"intent_score":    "intent_score",
		"visit_count":     "visit_count",
		"last_visit_date": "last_visit_date",
	}
	sortBy, ok := sortColumns[q.SortBy]
	if !ok {
		sortBy = "intent_score"
	}

	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM visitors WHERE 1=1`, visitorColumns)
	args := []any{}

	if q.Country != "" {
		args = append(args, q.Country)
		query += fmt.Sprintf(" AND country = $%d", len(args))
	}
	if q.HeatLevel != "" {
		args = append(args, q.HeatLevel)
		query += fmt.Sprintf(" AND heat_level = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY %s DESC LIMIT $%d", sortBy, len(args))

	rows, err := r.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	defer rows.Close()

	var visitors []*domain.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visitor row: %w", err)
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visitor rows: %w", err)
	}
	return visitors, nil
}

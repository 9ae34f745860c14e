package domain

import "time"

// PageEvent is one immutable row per tracked interaction. Rows are append-only
// and are the source of truth for most_visited_page and pages_per_session.
type PageEvent struct {
	ID          string
	SessionID   string
	PageURL     string
	EventType   string
	ScrollDepth int
	ClickTarget string
	TimeSpent   int
	Timestamp   time.Time
	CreatedAt   time.Time
}

// ArchiveEvent is the enriched, denormalized form of a tracked event written
// to the ClickHouse archive by the consumer.
type ArchiveEvent struct {
	EventID         string    `ch:"event_id" json:"event_id"`
	VisitorID       string    `ch:"visitor_id" json:"visitor_id"`
	SessionID       string    `ch:"session_id" json:"session_id"`
	PageURL         string    `ch:"page_url" json:"page_url"`
	EventType       string    `ch:"event_type" json:"event_type"`
	ScrollDepth     int32     `ch:"scroll_depth" json:"scroll_depth"`
	ClickTarget     string    `ch:"click_target" json:"click_target"`
	TimeSpent       int32     `ch:"time_spent" json:"time_spent"`
	IntentDelta     int32     `ch:"intent_delta" json:"intent_delta"`
	EngagementDelta int32     `ch:"engagement_delta" json:"engagement_delta"`
	Country         string    `ch:"country" json:"country"`
	DeviceType      string    `ch:"device_type" json:"device_type"`
	Browser         string    `ch:"browser" json:"browser"`
	OS              string    `ch:"os" json:"os"`
	Referrer        string    `ch:"referrer" json:"referrer"`
	UTMSource       string    `ch:"utm_source" json:"utm_source"`
	UTMMedium       string    `ch:"utm_medium" json:"utm_medium"`
	UTMCampaign     string    `ch:"utm_campaign" json:"utm_campaign"`
	IsNewVisitor    bool      `ch:"is_new_visitor" json:"is_new_visitor"`
	IsNewSession    bool      `ch:"is_new_session" json:"is_new_session"`
	Timestamp       int64     `ch:"timestamp" json:"timestamp"`
	ProcessedAt     time.Time `ch:"processed_at" json:"processed_at"`
	Version         uint64    `ch:"version" json:"version"`
}

package dto

import "time"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"page_url is required"`
}

// TrackResponse represents the result of a tracked event
type TrackResponse struct {
	Status          string `json:"status" example:"success"`
	Message         string `json:"message,omitempty" example:"Bot detected"`
	VisitorID       string `json:"visitor_id,omitempty" example:"7f9c24e5-08a7-4c21-b4d7-5a2f8f1f3f60"`
	SessionID       string `json:"session_id,omitempty" example:"0b6a9c9d-3f14-4f4b-9a61-2f3c8a2a1d11"`
	IntentDelta     int    `json:"intent_delta,omitempty" example:"50"`
	EngagementDelta int    `json:"engagement_delta,omitempty" example:"50"`
}

// VisitorSummary represents one visitor row in the admin listing
type VisitorSummary struct {
	ID                 string    `json:"id" example:"7f9c24e5-08a7-4c21-b4d7-5a2f8f1f3f60"`
	Country            string    `json:"country,omitempty" example:"DE"`
	DeviceType         string    `json:"device_type,omitempty" example:"Desktop"`
	Browser            string    `json:"browser,omitempty" example:"Chrome"`
	VisitCount         int       `json:"visit_count" example:"4"`
	TotalTimeSpent     int       `json:"total_time_spent" example:"360"`
	AvgSessionDuration int       `json:"avg_session_duration" example:"90"`
	PagesPerSession    float64   `json:"pages_per_session" example:"2.25"`
	MostVisitedPage    string    `json:"most_visited_page,omitempty" example:"/pricing"`
	EngagementScore    int       `json:"engagement_score" example:"120"`
	IntentScore        int       `json:"intent_score" example:"85"`
	HeatLevel          string    `json:"heat_level" example:"Hot"`
	LastVisitDate      time.Time `json:"last_visit_date"`
}

// ListVisitorsResponse represents the admin visitor listing
type ListVisitorsResponse struct {
	Visitors []VisitorSummary `json:"visitors"`
	Count    int              `json:"count" example:"42"`
}

// MetricsGroupData represents aggregated archive metrics for one group
type MetricsGroupData struct {
	GroupValue string `json:"group_value" example:"/pricing"`
	TotalCount uint64 `json:"total_count" example:"1500"`
}

// GetMetricsResponse represents the archive metrics query response
type GetMetricsResponse struct {
	From           int64              `json:"from" example:"1723475612"`
	To             int64              `json:"to" example:"1723562012"`
	TotalCount     uint64             `json:"total_count" example:"5000"`
	UniqueVisitors uint64             `json:"unique_visitors" example:"2500"`
	GroupBy        string             `json:"group_by,omitempty" example:"page"`
	Groups         []MetricsGroupData `json:"groups,omitempty"`
}

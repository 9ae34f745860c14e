package tracker

import (
	"context"

	"github.com/leadsight/visitor-analytics-service/internal/dto"
)

// Result statuses returned by the tracking pipeline. Filtered and blocked
// events are statuses, not errors; errors are reserved for store failures.
const (
	StatusSuccess = "success"
	StatusIgnored = "ignored"
	StatusError   = "error"
)

// Result is the outcome of one tracked event
type Result struct {
	Status          string
	Message         string
	VisitorID       string
	SessionID       string
	IntentDelta     int
	EngagementDelta int
}

// Tracker defines the interface for the visitor resolution and scoring
// pipeline
type Tracker interface {
	Track(ctx context.Context, req *dto.TrackRequest, headers map[string]string, remoteAddr string) (*Result, error)
}

package domain

import "time"

// Heat levels derived from the cumulative intent score.
const (
	HeatCold            = "Cold"
	HeatWarm            = "Warm"
	HeatHot             = "Hot"
	HeatEnterpriseReady = "Enterprise Ready"
)

// Visitor is one row per distinct privacy-transformed client identity.
// Scores are cumulative and only ever increase; HeatLevel is re-derived from
// IntentScore on every update and is never authoritative on its own.
type Visitor struct {
	ID                    string
	IdentityKey           string
	Country               string
	Region                string
	City                  string
	Timezone              string
	DeviceType            string
	Browser               string
	OS                    string
	ScreenResolution      string
	Referrer              string
	UTMSource             string
	UTMMedium             string
	UTMCampaign           string
	PrimaryReferralSource string
	FirstVisitDate        time.Time
	LastVisitDate         time.Time
	VisitCount            int
	TotalTimeSpent        int
	AvgSessionDuration    int
	PagesPerSession       float64
	MostVisitedPage       string
	EngagementScore       int
	IntentScore           int
	HeatLevel             string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// GeoData is a transient value object produced by the geolocation lookup.
// Empty fields are preserved-over on merge (non-empty-wins).
type GeoData struct {
	Country  string
	Region   string
	City     string
	Timezone string
}

// DeviceInfo is a transient value object produced by user-agent parsing.
type DeviceInfo struct {
	DeviceType string
	Browser    string
	OS         string
}

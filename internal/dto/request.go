package dto

// TrackRequest represents an inbound tracking pixel event
type TrackRequest struct {
	PageURL     string `json:"page_url" binding:"required" example:"/pricing"`
	EventType   string `json:"event_type" binding:"required" example:"page_view"`
	TimeSpent   int    `json:"time_spent" binding:"gte=0" example:"30"`
	ScrollDepth int    `json:"scroll_depth" binding:"gte=0,lte=100" example:"80"`
	ClickTarget string `json:"click_target" example:"button.signup"`
	UTMSource   string `json:"utm_source" example:"newsletter"`
	UTMMedium   string `json:"utm_medium" example:"email"`
	UTMCampaign string `json:"utm_campaign" example:"q3_launch"`
}

// ListVisitorsRequest represents an admin visitor listing query
type ListVisitorsRequest struct {
	SortBy    string `form:"sort_by" example:"intent_score"`
	Limit     int    `form:"limit" example:"100"`
	Country   string `form:"country" example:"DE"`
	HeatLevel string `form:"heat_level" example:"Hot"`
}

// GetMetricsRequest represents an admin archive metrics query
type GetMetricsRequest struct {
	From    int64  `form:"from" binding:"required" example:"1723475612"`
	To      int64  `form:"to" binding:"required" example:"1723562012"`
	GroupBy string `form:"group_by" example:"page"`
}

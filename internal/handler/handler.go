package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/leadsight/visitor-analytics-service/docs"
	"github.com/leadsight/visitor-analytics-service/internal/abuse"
	"github.com/leadsight/visitor-analytics-service/internal/dto"
	"github.com/leadsight/visitor-analytics-service/internal/repository"
	"github.com/leadsight/visitor-analytics-service/internal/tracker"
)

// Options configures the HTTP surface around the tracking pipeline
type Options struct {
	Guard              abuse.Guard
	Bypass             BypassFunc
	RateLimitPerMinute int
	AdminAPIToken      string
	AllowedOrigins     string
}

type Handler struct {
	tracker  tracker.Tracker
	visitors repository.VisitorRepository
	archive  repository.ArchiveRepository
	router   *gin.Engine
	log      *zap.Logger
}

// NewHandler wires routes, middleware, and the tracking pipeline together
func NewHandler(t tracker.Tracker, visitors repository.VisitorRepository, archive repository.ArchiveRepository, opts Options, log *zap.Logger) *Handler {
	h := &Handler{
		tracker:  t,
		visitors: visitors,
		archive:  archive,
		router:   gin.Default(),
		log:      log,
	}

	h.registerRoutes(opts)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes(opts Options) {
	bypass := opts.Bypass
	if bypass == nil {
		bypass = DefaultBypass
	}

	if opts.AllowedOrigins != "" {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = splitOrigins(opts.AllowedOrigins)
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Screen-Resolution")
		h.router.Use(cors.New(corsConfig))
	}

	if opts.Guard != nil {
		h.router.Use(AbuseGuardMiddleware(opts.Guard, bypass, h.log))
	}
	if opts.RateLimitPerMinute > 0 {
		h.router.Use(RateLimitMiddleware(opts.RateLimitPerMinute, bypass, h.log))
	}

	h.router.GET("/health", h.healthCheck)
	h.router.POST("/api/track", h.track)

	admin := h.router.Group("/api/admin", AdminAuthMiddleware(opts.AdminAPIToken, h.log))
	admin.GET("/visitors", h.listVisitors)
	admin.GET("/metrics", h.getMetrics)

	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func splitOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// headerMap lowers the header names the pipeline cares about into a plain map
func headerMap(c *gin.Context) map[string]string {
	keys := []string{"user-agent", "x-forwarded-for", "x-real-ip", "referer", "referrer", "x-screen-resolution"}
	headers := make(map[string]string, len(keys))
	for _, k := range keys {
		if v := c.GetHeader(k); v != "" {
			headers[k] = v
		}
	}
	return headers
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// track handles POST /api/track
// @Summary Track a page view
// @Description Record a tracked interaction and fold it into the visitor's behavioral profile
// @Tags tracking
// @Accept json
// @Produce json
// @Param event body dto.TrackRequest true "Tracked event"
// @Success 200 {object} dto.TrackResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/track [post]
func (h *Handler) track(c *gin.Context) {
	var req dto.TrackRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid track request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	remoteAddr := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		remoteAddr = host
	}

	result, err := h.tracker.Track(c.Request.Context(), &req, headerMap(c), remoteAddr)
	if err != nil {
		h.log.Error("Failed to process tracked event",
			zap.Error(err),
			zap.String("page_url", req.PageURL))
		// Persistence failures return a generic message without internal
		// detail.
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to process event",
		})
		return
	}

	c.JSON(http.StatusOK, dto.TrackResponse{
		Status:          result.Status,
		Message:         result.Message,
		VisitorID:       result.VisitorID,
		SessionID:       result.SessionID,
		IntentDelta:     result.IntentDelta,
		EngagementDelta: result.EngagementDelta,
	})
}

// listVisitors handles GET /api/admin/visitors
// @Summary List visitors
// @Description List visitor profiles for sales prioritization, sorted and filtered
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param sort_by query string false "Sort by (intent_score, visit_count, last_visit_date)" example:"intent_score"
// @Param limit query int false "Maximum rows to return" example:"100"
// @Param country query string false "Filter by country"
// @Param heat_level query string false "Filter by heat level"
// @Success 200 {object} dto.ListVisitorsResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/admin/visitors [get]
func (h *Handler) listVisitors(c *gin.Context) {
	var req dto.ListVisitorsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	visitors, err := h.visitors.List(c.Request.Context(), repository.VisitorQuery{
		SortBy:    req.SortBy,
		Limit:     req.Limit,
		Country:   req.Country,
		HeatLevel: req.HeatLevel,
	})
	if err != nil {
		h.log.Error("Failed to list visitors", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list visitors",
		})
		return
	}

	response := dto.ListVisitorsResponse{
		Visitors: make([]dto.VisitorSummary, 0, len(visitors)),
		Count:    len(visitors),
	}
	for _, v := range visitors {
		response.Visitors = append(response.Visitors, dto.VisitorSummary{
			ID:                 v.ID,
			Country:            v.Country,
			DeviceType:         v.DeviceType,
			Browser:            v.Browser,
			VisitCount:         v.VisitCount,
			TotalTimeSpent:     v.TotalTimeSpent,
			AvgSessionDuration: v.AvgSessionDuration,
			PagesPerSession:    v.PagesPerSession,
			MostVisitedPage:    v.MostVisitedPage,
			EngagementScore:    v.EngagementScore,
			IntentScore:        v.IntentScore,
			HeatLevel:          v.HeatLevel,
			LastVisitDate:      v.LastVisitDate,
		})
	}

	c.JSON(http.StatusOK, response)
}

// getMetrics handles GET /api/admin/metrics
// @Summary Get archive metrics
// @Description Aggregated pageview metrics from the event archive with optional grouping by page, country, or day
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param from query int true "Start timestamp (Unix epoch)" example:"1723475612"
// @Param to query int true "End timestamp (Unix epoch)" example:"1723562012"
// @Param group_by query string false "Field to group by (page, country, day)" Enums(page, country, day)
// @Success 200 {object} dto.GetMetricsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/admin/metrics [get]
func (h *Handler) getMetrics(c *gin.Context) {
	var req dto.GetMetricsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if req.From > req.To {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "from must be less than or equal to to",
		})
		return
	}

	result, err := h.archive.GetMetrics(c.Request.Context(), repository.ArchiveQuery{
		From:    req.From,
		To:      req.To,
		GroupBy: req.GroupBy,
	})
	if err != nil {
		h.log.Error("Failed to get archive metrics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get metrics",
		})
		return
	}

	response := dto.GetMetricsResponse{
		From:           req.From,
		To:             req.To,
		TotalCount:     result.TotalCount,
		UniqueVisitors: result.UniqueVisitors,
		GroupBy:        req.GroupBy,
		Groups:         make([]dto.MetricsGroupData, 0, len(result.Groups)),
	}
	for _, group := range result.Groups {
		response.Groups = append(response.Groups, dto.MetricsGroupData{
			GroupValue: group.GroupValue,
			TotalCount: group.TotalCount,
		})
	}

	c.JSON(http.StatusOK, response)
}

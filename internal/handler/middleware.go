package handler

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/leadsight/visitor-analytics-service/internal/abuse"
	"github.com/leadsight/visitor-analytics-service/internal/dto"
	"github.com/leadsight/visitor-analytics-service/internal/identity"
)

// BypassFunc decides whether a request path skips the abuse guard and rate
// limiter. Health checks and the authenticated admin surface bypass both.
type BypassFunc func(path string) bool

// DefaultBypass skips protection for health checks, the admin API, and the
// docs UI.
func DefaultBypass(path string) bool {
	if path == "/health" || path == "/" {
		return true
	}
	return strings.HasPrefix(path, "/api/admin") || strings.HasPrefix(path, "/docs")
}

func clientIPFromRequest(c *gin.Context) string {
	headers := map[string]string{
		"x-forwarded-for": c.GetHeader("X-Forwarded-For"),
		"x-real-ip":       c.GetHeader("X-Real-IP"),
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		host = c.Request.RemoteAddr
	}
	return identity.ResolveClientIP(headers, host)
}

// AbuseGuardMiddleware gates entry to the pipeline per source IP. It runs
// before bot classification so the window reflects true request volume.
func AbuseGuardMiddleware(guard abuse.Guard, bypass BypassFunc, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bypass(c.Request.URL.Path) {
			c.Next()
			return
		}

		ip := clientIPFromRequest(c)
		if guard.CheckAndRecord(c.Request.Context(), ip, time.Now()) {
			log.Warn("Blocked abusive request",
				zap.String("ip", ip),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:   "rate_limited",
				Message: "Too many requests. Please try again later.",
			})
			return
		}

		c.Next()
	}
}

// ipRateLimiter hands out one token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newIPRateLimiter(perMinute int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
}

func (l *ipRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

// RateLimitMiddleware applies a per-IP token bucket, separate from and in
// addition to the abuse guard.
func RateLimitMiddleware(perMinute int, bypass BypassFunc, log *zap.Logger) gin.HandlerFunc {
	limiters := newIPRateLimiter(perMinute)

	return func(c *gin.Context) {
		if bypass(c.Request.URL.Path) {
			c.Next()
			return
		}

		ip := clientIPFromRequest(c)
		if !limiters.limiter(ip).Allow() {
			log.Warn("Rate limit exceeded",
				zap.String("ip", ip),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:   "rate_limited",
				Message: "Too many requests. Please try again later.",
			})
			return
		}

		c.Next()
	}
}

// AdminAuthMiddleware requires a bearer token matching the configured admin
// API token.
func AdminAuthMiddleware(token string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "unauthorized",
				Message: "Missing Authorization header",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] != token {
			log.Warn("Invalid admin API token", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid API token",
			})
			return
		}

		c.Next()
	}
}

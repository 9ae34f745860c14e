// Package geo enriches visitors with location facts from ipinfo.io. Lookups
// are best effort: failures and timeouts degrade to empty geo data and the
// pipeline continues.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/leadsight/visitor-analytics-service/internal/domain"
)

const defaultBaseURL = "https://ipinfo.io"

// Locator resolves an IP address into geo facts.
type Locator interface {
	Lookup(ctx context.Context, ip string) domain.GeoData
}

// Client is an ipinfo.io-backed Locator.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *zap.Logger
}

// NewClient creates a geo client with a bounded request timeout.
func NewClient(token string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		token:      token,
		log:        log,
	}
}

// NewClientWithBaseURL creates a geo client against a custom endpoint.
// Used in tests.
func NewClientWithBaseURL(baseURL, token string, timeout time.Duration, log *zap.Logger) *Client {
	c := NewClient(token, timeout, log)
	c.baseURL = baseURL
	return c
}

type ipinfoResponse struct {
	Country  string `json:"country"`
	Region   string `json:"region"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
}

// Lookup implements Locator. It never returns an error: any failure yields
// empty geo data.
func (c *Client) Lookup(ctx context.Context, ip string) domain.GeoData {
	url := fmt.Sprintf("%s/%s/json", c.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Warn("Failed to build geo lookup request", zap.String("ip", ip), zap.Error(err))
		return domain.GeoData{}
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Geo lookup failed", zap.String("ip", ip), zap.Error(err))
		return domain.GeoData{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Geo lookup returned non-200 status",
			zap.String("ip", ip),
			zap.Int("status", resp.StatusCode))
		return domain.GeoData{}
	}

	var body ipinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Warn("Failed to decode geo lookup response", zap.String("ip", ip), zap.Error(err))
		return domain.GeoData{}
	}

	return domain.GeoData{
		Country:  body.Country,
		Region:   body.Region,
		City:     body.City,
		Timezone: body.Timezone,
	}
}

// Package classifier turns a raw user-agent string into device facts and a
// bot verdict. Classification is pure; callers decide whether to drop the
// event.
package classifier

import (
	"strings"

	"github.com/leadsight/visitor-analytics-service/internal/domain"
)

// ParseUserAgent extracts device type, browser, and OS from a user-agent
// string using case-insensitive token matching. Unrecognized values default
// to "Unknown" (browser/OS) and "Desktop" (device).
func ParseUserAgent(userAgent string) domain.DeviceInfo {
	if userAgent == "" {
		return domain.DeviceInfo{}
	}

	ua := strings.ToLower(userAgent)

	deviceType := "Desktop"
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") {
		deviceType = "Mobile"
	} else if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		deviceType = "Tablet"
	}

	browser := "Unknown"
	switch {
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "edg") && !strings.Contains(ua, "headless"):
		browser = "Chrome"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		browser = "Safari"
	case strings.Contains(ua, "edg") || strings.Contains(ua, "edge"):
		browser = "Edge"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	case strings.Contains(ua, "brave"):
		browser = "Brave"
	}

	osName := "Unknown"
	switch {
	case strings.Contains(ua, "windows"):
		osName = "Windows"
	case strings.Contains(ua, "mac") || strings.Contains(ua, "darwin"):
		osName = "macOS"
	case strings.Contains(ua, "linux"):
		osName = "Linux"
	case strings.Contains(ua, "android"):
		osName = "Android"
	case strings.Contains(ua, "ios") || strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		osName = "iOS"
	}

	return domain.DeviceInfo{
		DeviceType: deviceType,
		Browser:    browser,
		OS:         osName,
	}
}

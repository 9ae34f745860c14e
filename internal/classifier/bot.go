package classifier

import "strings"

// botPatterns is a deliberately over-inclusive signature list: false positives
// are acceptable, false negatives are the greater risk.
var botPatterns = []string{
	// common bots
	"bot", "crawler", "spider", "scraper", "crawling",
	// tools
	"curl", "wget", "python-requests", "go-http-client",
	"java/", "apache-httpclient", "okhttp", "scrapy",
	// search engine bots
	"googlebot", "bingbot", "slurp", "duckduckbot",
	"baiduspider", "yandexbot", "sogou", "exabot",
	// social media preview fetchers
	"facebookexternalhit", "twitterbot", "linkedinbot",
	"whatsapp", "telegrambot", "slackbot",
	// monitoring
	"pingdom", "uptimerobot", "monitor", "check",
	// security scanners
	"sqlmap", "nikto", "nmap", "masscan", "zap", "burp",
	// headless browsers
	"headless", "phantom", "selenium", "webdriver",
	// feed readers
	"feed", "rss", "parser", "indexer",
}

var scannerPatterns = []string{
	"sqlmap", "nikto", "nmap", "masscan",
	"zap", "burp", "acunetix", "nessus",
}

var exploitPatterns = []string{
	"exploit", "injection", "xss", "sqli",
	"payload", "shell", "cmd",
}

// IsBot reports whether the user agent appears to be automated. Empty agents
// and agents shorter than 10 or longer than 500 characters count as bots.
func IsBot(userAgent string) bool {
	if userAgent == "" {
		return true
	}

	ua := strings.ToLower(userAgent)

	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}

	for _, pattern := range scannerPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}

	for _, pattern := range exploitPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}

	if len(userAgent) < 10 || len(userAgent) > 500 {
		return true
	}

	return false
}

// IsSuspicious reports whether the user agent matches security-scanner or
// exploit tokens. Suspicious requests are logged, not blocked.
func IsSuspicious(userAgent string) bool {
	if userAgent == "" {
		return true
	}

	ua := strings.ToLower(userAgent)

	for _, pattern := range scannerPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}

	for _, pattern := range exploitPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}

	return false
}

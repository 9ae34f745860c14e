// Package scoring holds the pure functions that turn page visits and
// interaction signals into intent and engagement deltas, and derive a heat
// level from the cumulative intent score.
package scoring

import "strings"

// ctaTokens mark click targets that count as a call-to-action.
var ctaTokens = []string{"button", "cta", "submit", "contact", "signup", "trial", "demo"}

// IntentDelta computes the intent contribution of a single page visit.
// First match wins: pricing 50, contact 60, product 25, homepage 5. The
// fallback is also 5, matching the homepage rule.
func IntentDelta(pageURL string) int {
	page := strings.ToLower(pageURL)

	switch {
	case strings.Contains(page, "pricing"):
		return 50
	case strings.Contains(page, "contact"):
		return 60
	case strings.Contains(page, "product"):
		return 25
	case strings.HasSuffix(page, "/") || strings.Contains(page, "home"):
		return 5
	default:
		return 5
	}
}

// EngagementDelta computes the engagement contribution of a single event as
// the sum of independently triggered signals. Scroll depth and page rules are
// each mutually exclusive internally; everything else is additive.
func EngagementDelta(scrollDepth int, clickTarget, pageURL string, isReturning bool, sessionsIn7Days int) int {
	score := 0

	if scrollDepth > 75 {
		score += 20
	} else if scrollDepth > 50 {
		score += 10
	}

	if clickTarget != "" {
		click := strings.ToLower(clickTarget)
		for _, token := range ctaTokens {
			if strings.Contains(click, token) {
				score += 30
				break
			}
		}
	}

	page := strings.ToLower(pageURL)
	if strings.Contains(page, "contact") {
		score += 40
	} else if strings.Contains(page, "product") {
		score += 20
	} else if strings.HasSuffix(page, "/") || strings.Contains(page, "home") {
		score += 5
	}

	if isReturning {
		score += 15
	}

	if sessionsIn7Days > 1 {
		score += 25
	}

	return score
}

// HeatLevel derives the visitor's heat label from the cumulative intent
// score. It must always be computed from the cumulative value, never from a
// delta.
func HeatLevel(intentScore int) string {
	switch {
	case intentScore <= 30:
		return "Cold"
	case intentScore <= 70:
		return "Warm"
	case intentScore <= 150:
		return "Hot"
	default:
		return "Enterprise Ready"
	}
}

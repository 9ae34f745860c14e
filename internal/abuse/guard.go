// Package abuse protects the tracking pipeline from volumetric abuse with a
// per-source sliding-window counter and a blocklist. State is process-local
// by default; a Redis-backed guard is available for multi-instance
// deployments.
package abuse

import (
	"context"
	"time"
)

// Window is the trailing interval over which requests are counted.
const Window = 60 * time.Second

// Guard gates entry to the tracking pipeline per source IP.
type Guard interface {
	// CheckAndRecord records a request from ip at the given instant and
	// reports whether the source is blocked. Blocked sources stay blocked
	// without further recording.
	CheckAndRecord(ctx context.Context, ip string, now time.Time) bool
}

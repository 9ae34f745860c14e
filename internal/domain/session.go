package domain

import "time"

// SessionIdleWindow is the idle window after which a session is considered
// closed. Closure is a computed predicate, never a timer.
const SessionIdleWindow = 30 * time.Minute

// Session is one row per continuous visit, scoped to a Visitor.
type Session struct {
	ID                string
	VisitorID         string
	SessionStart      time.Time
	SessionEnd        *time.Time
	SessionDuration   int
	PagesVisitedCount int
	CreatedAt         time.Time
}

// IsClosed reports whether the session's idle window has elapsed. A session
// with a nil SessionEnd is still effectively closed once more than 30 minutes
// have passed since it started without a qualifying new event.
func (s *Session) IsClosed(now time.Time) bool {
	if s.SessionEnd != nil {
		return true
	}
	return now.Sub(s.SessionStart) > SessionIdleWindow
}

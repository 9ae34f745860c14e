package consumer

import (
	"github.com/leadsight/visitor-analytics-service/internal/domain"
)

// MessageParser defines the interface for parsing raw message bytes into
// archive events
type MessageParser interface {
	Parse(body []byte) (*domain.ArchiveEvent, error)
}

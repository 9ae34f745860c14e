package consumer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/leadsight/visitor-analytics-service/internal/domain"
)

// JSONEventParser implements MessageParser for JSON-formatted archive events
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse parses a JSON message body into an ArchiveEvent
func (p *JSONEventParser) Parse(body []byte) (*domain.ArchiveEvent, error) {
	var event domain.ArchiveEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	if event.EventID == "" {
		return nil, fmt.Errorf("message missing event_id")
	}
	if event.VisitorID == "" || event.SessionID == "" {
		return nil, fmt.Errorf("message missing visitor_id or session_id")
	}

	event.ProcessedAt = time.Now()
	if event.Version == 0 {
		event.Version = uint64(time.Now().UnixNano())
	}

	return &event, nil
}

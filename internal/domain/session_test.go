package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsClosed(t *testing.T) {
	start := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	session := &Session{SessionStart: start}

	assert.False(t, session.IsClosed(start.Add(29*time.Minute)))
	assert.False(t, session.IsClosed(start.Add(30*time.Minute)))
	assert.True(t, session.IsClosed(start.Add(30*time.Minute+time.Second)))
}

func TestSession_IsClosed_ExplicitEnd(t *testing.T) {
	start := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Minute)
	session := &Session{SessionStart: start, SessionEnd: &end}

	assert.True(t, session.IsClosed(start.Add(2*time.Minute)))
}

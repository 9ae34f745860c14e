package abuse

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMemoryGuard_UnderThresholdAllowed(t *testing.T) {
	guard := NewMemoryGuard(50, 0, zap.NewNop())
	now := time.Now()

	for i := 0; i < 50; i++ {
		blocked := guard.CheckAndRecord(context.Background(), "1.2.3.4", now.Add(time.Duration(i)*time.Millisecond))
		assert.False(t, blocked, "request %d should be allowed", i+1)
	}
}

func TestMemoryGuard_ThresholdExceededBlocks(t *testing.T) {
	guard := NewMemoryGuard(50, 0, zap.NewNop())
	now := time.Now()

	for i := 0; i < 50; i++ {
		guard.CheckAndRecord(context.Background(), "1.2.3.4", now)
	}

	assert.True(t, guard.CheckAndRecord(context.Background(), "1.2.3.4", now))
}

func TestMemoryGuard_BlockIsTerminalWithoutTTL(t *testing.T) {
	guard := NewMemoryGuard(5, 0, zap.NewNop())
	now := time.Now()

	for i := 0; i < 6; i++ {
		guard.CheckAndRecord(context.Background(), "1.2.3.4", now)
	}

	// Far outside the sliding window, yet still blocked.
	assert.True(t, guard.CheckAndRecord(context.Background(), "1.2.3.4", now.Add(time.Hour)))
}

func TestMemoryGuard_BlockExpiresAfterTTL(t *testing.T) {
	guard := NewMemoryGuard(5, 10*time.Minute, zap.NewNop())
	now := time.Now()

	for i := 0; i < 6; i++ {
		guard.CheckAndRecord(context.Background(), "1.2.3.4", now)
	}

	assert.True(t, guard.CheckAndRecord(context.Background(), "1.2.3.4", now.Add(5*time.Minute)))
	assert.False(t, guard.CheckAndRecord(context.Background(), "1.2.3.4", now.Add(11*time.Minute)))
}

func TestMemoryGuard_OldRequestsFallOutOfWindow(t *testing.T) {
	guard := NewMemoryGuard(5, 0, zap.NewNop())
	now := time.Now()

	for i := 0; i < 5; i++ {
		guard.CheckAndRecord(context.Background(), "1.2.3.4", now)
	}

	// The first five requests have aged out, so this one does not tip the
	// count over the threshold.
	assert.False(t, guard.CheckAndRecord(context.Background(), "1.2.3.4", now.Add(2*time.Minute)))
}

func TestMemoryGuard_SourcesAreIndependent(t *testing.T) {
	guard := NewMemoryGuard(5, 0, zap.NewNop())
	now := time.Now()

	for i := 0; i < 6; i++ {
		guard.CheckAndRecord(context.Background(), "1.2.3.4", now)
	}

	assert.True(t, guard.CheckAndRecord(context.Background(), "1.2.3.4", now))
	assert.False(t, guard.CheckAndRecord(context.Background(), "5.6.7.8", now))
}

func TestMemoryGuard_ConcurrentAccess(t *testing.T) {
	guard := NewMemoryGuard(1000, 0, zap.NewNop())
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			ip := fmt.Sprintf("10.0.0.%d", worker%4)
			for j := 0; j < 100; j++ {
				guard.CheckAndRecord(context.Background(), ip, now.Add(time.Duration(j)*time.Millisecond))
			}
		}(i)
	}
	wg.Wait()

	// 5 workers per IP x 100 requests each is under the 1000 threshold, so no
	// source ended up blocked.
	for i := 0; i < 4; i++ {
		ip := fmt.Sprintf("10.0.0.%d", i)
		assert.False(t, guard.CheckAndRecord(context.Background(), ip, now.Add(2*time.Minute)))
	}
}

package abuse

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const shardCount = 32

type sourceState struct {
	requestTimes []time.Time
	blockedAt    *time.Time
}

type shard struct {
	mu      sync.Mutex
	sources map[string]*sourceState
}

// MemoryGuard is the process-local Guard. Sources are spread across sharded
// mutex-protected maps so concurrent request handlers only contend when they
// hash to the same shard.
type MemoryGuard struct {
	shards    [shardCount]*shard
	threshold int
	// blockTTL of zero keeps a blocked source blocked for the process
	// lifetime.
	blockTTL time.Duration
	log      *zap.Logger
}

// NewMemoryGuard creates an in-memory guard with the given per-minute
// threshold. A blockTTL of zero makes blocking permanent for the process
// lifetime.
func NewMemoryGuard(threshold int, blockTTL time.Duration, log *zap.Logger) *MemoryGuard {
	g := &MemoryGuard{
		threshold: threshold,
		blockTTL:  blockTTL,
		log:       log,
	}
	for i := range g.shards {
		g.shards[i] = &shard{sources: make(map[string]*sourceState)}
	}
	return g
}

func (g *MemoryGuard) shardFor(ip string) *shard {
	h := fnv.New32a()
	h.Write([]byte(ip))
	return g.shards[h.Sum32()%shardCount]
}

// CheckAndRecord implements Guard. It runs even for requests that are later
// classified as bots so the window reflects true request volume.
func (g *MemoryGuard) CheckAndRecord(_ context.Context, ip string, now time.Time) bool {
	s := g.shardFor(ip)
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sources[ip]
	if !ok {
		state = &sourceState{}
		s.sources[ip] = state
	}

	if state.blockedAt != nil {
		if g.blockTTL > 0 && now.Sub(*state.blockedAt) > g.blockTTL {
			state.blockedAt = nil
			state.requestTimes = nil
		} else {
			return true
		}
	}

	cutoff := now.Add(-Window)
	kept := state.requestTimes[:0]
	for _, t := range state.requestTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	state.requestTimes = append(kept, now)

	if len(state.requestTimes) > g.threshold {
		state.blockedAt = &now
		g.log.Warn("Abuse threshold exceeded, blocking source",
			zap.String("ip", ip),
			zap.Int("requests_in_window", len(state.requestTimes)),
			zap.Int("threshold", g.threshold))
		return true
	}

	return false
}

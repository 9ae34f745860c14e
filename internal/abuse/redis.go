package abuse

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisGuard shares the sliding window and blocklist across instances through
// Redis. With failOpen set, Redis errors let the request through so a cache
// outage cannot take tracking down with it.
type RedisGuard struct {
	client    *redis.Client
	threshold int
	blockTTL  time.Duration
	failOpen  bool
	log       *zap.Logger
}

// NewRedisGuard creates a Redis-backed guard. A blockTTL of zero blocks
// sources indefinitely (until the key is removed out of band).
func NewRedisGuard(client *redis.Client, threshold int, blockTTL time.Duration, failOpen bool, log *zap.Logger) *RedisGuard {
	return &RedisGuard{
		client:    client,
		threshold: threshold,
		blockTTL:  blockTTL,
		failOpen:  failOpen,
		log:       log,
	}
}

func blockKey(ip string) string  { return "abuse:block:" + ip }
func windowKey(ip string) string { return "abuse:window:" + ip }

// CheckAndRecord implements Guard.
func (g *RedisGuard) CheckAndRecord(ctx context.Context, ip string, now time.Time) bool {
	blocked, err := g.client.Exists(ctx, blockKey(ip)).Result()
	if err != nil {
		return g.onError("blocklist check", ip, err)
	}
	if blocked > 0 {
		return true
	}

	cutoff := now.Add(-Window)
	member := strconv.FormatInt(now.UnixNano(), 10)

	pipe := g.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, windowKey(ip), "0", fmt.Sprintf("%d", cutoff.UnixNano()))
	pipe.ZAdd(ctx, windowKey(ip), redis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, windowKey(ip))
	pipe.Expire(ctx, windowKey(ip), Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return g.onError("window update", ip, err)
	}

	if int(count.Val()) > g.threshold {
		if err := g.client.Set(ctx, blockKey(ip), "1", g.blockTTL).Err(); err != nil {
			return g.onError("block set", ip, err)
		}
		g.log.Warn("Abuse threshold exceeded, blocking source",
			zap.String("ip", ip),
			zap.Int64("requests_in_window", count.Val()),
			zap.Int("threshold", g.threshold))
		return true
	}

	return false
}

func (g *RedisGuard) onError(op, ip string, err error) bool {
	g.log.Error("Redis abuse guard error",
		zap.String("operation", op),
		zap.String("ip", ip),
		zap.Bool("fail_open", g.failOpen),
		zap.Error(err))
	return !g.failOpen
}

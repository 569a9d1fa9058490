// Package quota implements the print quota gates.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/labelbridge/backend/internal/domain/printing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Unlimited allows every request
type Unlimited struct{}

// Validate implements printing.QuotaGate
func (Unlimited) Validate(context.Context, int) (*printing.QuotaDecision, error) {
	return &printing.QuotaDecision{Allowed: true, Remaining: -1, Limit: -1}, nil
}

// reserveScript checks and charges atomically. It returns {allowed, remaining}.
var reserveScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local count = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
if current + count > limit then
	return {0, limit - current}
end
local total = redis.call('INCRBY', KEYS[1], count)
redis.call('EXPIREAT', KEYS[1], ARGV[3])
return {1, limit - total}
`)

// RedisGate enforces a monthly label budget shared by every instance
type RedisGate struct {
	client    redis.UniversalClient
	limit     int64
	keyPrefix string
	now       func() time.Time
	logger    *zap.Logger
}

// RedisGateOption configures a RedisGate
type RedisGateOption func(*RedisGate)

// WithKeyPrefix sets the counter key prefix
func WithKeyPrefix(prefix string) RedisGateOption {
	return func(g *RedisGate) {
		if prefix != "" {
			g.keyPrefix = prefix
		}
	}
}

// WithClock overrides the clock used to pick the month
func WithClock(now func() time.Time) RedisGateOption {
	return func(g *RedisGate) {
		g.now = now
	}
}

// WithLogger sets the gate logger
func WithLogger(logger *zap.Logger) RedisGateOption {
	return func(g *RedisGate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewRedisGate creates a gate allowing limit labels per calendar month (UTC)
func NewRedisGate(client redis.UniversalClient, limit int64, opts ...RedisGateOption) *RedisGate {
	g := &RedisGate{
		client:    client,
		limit:     limit,
		keyPrefix: "labelbridge:quota",
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate implements printing.QuotaGate. An allowed request is charged immediately.
func (g *RedisGate) Validate(ctx context.Context, count int) (*printing.QuotaDecision, error) {
	if count <= 0 {
		return nil, fmt.Errorf("quota count must be positive, got %d", count)
	}

	now := g.now().UTC()
	key := g.key(now)
	res, err := reserveScript.Run(ctx, g.client, []string{key}, count, g.limit, monthEnd(now).Unix()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to check print quota: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected quota script result %v", res)
	}

	decision := &printing.QuotaDecision{
		Allowed:   res[0] == 1,
		Remaining: res[1],
		Limit:     g.limit,
	}
	if !decision.Allowed {
		decision.Reason = fmt.Sprintf("monthly print quota exceeded: %d requested, %d of %d remaining", count, max(decision.Remaining, 0), g.limit)
	}

	g.logger.Debug("Quota checked",
		zap.String("key", key),
		zap.Int("count", count),
		zap.Bool("allowed", decision.Allowed),
		zap.Int64("remaining", decision.Remaining))
	return decision, nil
}

// Usage returns how many labels were charged this month
func (g *RedisGate) Usage(ctx context.Context) (int64, error) {
	used, err := g.client.Get(ctx, g.key(g.now().UTC())).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota usage: %w", err)
	}
	return used, nil
}

func (g *RedisGate) key(now time.Time) string {
	return fmt.Sprintf("%s:%04d-%02d", g.keyPrefix, now.Year(), now.Month())
}

// monthEnd is the first instant of the following month
func monthEnd(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

var (
	_ printing.QuotaGate = Unlimited{}
	_ printing.QuotaGate = (*RedisGate)(nil)
)

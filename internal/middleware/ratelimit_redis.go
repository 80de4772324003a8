package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisTokenBucketScript runs the token bucket atomically in Redis.
// KEYS[1] = bucket key
// ARGV[1] = refill rate (tokens per second)
// ARGV[2] = capacity (max tokens)
// ARGV[3] = current unix timestamp (seconds, microsecond precision)
// ARGV[4] = key ttl in seconds
var redisTokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    last_refill = now
end

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, ttl)

return allowed
`)

// RedisLimiterStore implements LimiterStore with buckets shared by every
// instance behind the load balancer.
type RedisLimiterStore struct {
	client redis.Scripter
	prefix string
	rate   float64
	burst  int
	ttl    int
	now    func() time.Time
}

// NewRedisLimiterStore creates a store using client. Keys are namespaced by
// prefix so several limiters can share one Redis.
func NewRedisLimiterStore(client redis.Scripter, prefix string, config RateLimiterConfig) *RedisLimiterStore {
	rate := config.RequestsPerSecond
	if rate <= 0 {
		rate = 1
	}
	burst := config.BurstSize
	if burst < 1 {
		burst = 1
	}
	// Keep a bucket at least as long as it takes to refill completely.
	ttl := int(float64(burst)/rate) + 1
	if ttl < 60 {
		ttl = 60
	}
	return &RedisLimiterStore{
		client: client,
		prefix: prefix,
		rate:   rate,
		burst:  burst,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Allow implements LimiterStore.
func (s *RedisLimiterStore) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(s.now().UnixMicro()) / 1e6

	allowed, err := redisTokenBucketScript.Run(ctx, s.client, []string{s.prefix + key}, s.rate, s.burst, now, s.ttl).Int64()
	if err != nil {
		return false, fmt.Errorf("redis limiter error: %w", err)
	}
	return allowed == 1, nil
}

// ConnectRedis parses url, connects and pings.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

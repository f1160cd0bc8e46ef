package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/character-api/internal/apperr"
	"github.com/iliyamo/character-api/internal/config"
)

// takeScript refills the bucket continuously, refill tokens per interval,
// and takes one token if available.  State lives in a hash so concurrent
// replicas share one bucket per key.
//
// KEYS[1] bucket key
// ARGV    now_ms, capacity, refill, interval_ms, ttl_ms
// returns {allowed, remaining, retry_after_ms}
var takeScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local cap = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])

local st = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(st[1]) or cap
local ts = tonumber(st[2]) or now
if now > ts then
  tokens = math.min(cap, tokens + (now - ts) * refill / interval)
end

local allowed, wait = 0, 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  wait = math.ceil((1 - tokens) * interval / refill)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', now)
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {allowed, math.floor(tokens), wait}
`)

// Decision is the outcome of one Take.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// TokenBucket is a Redis-backed limiter shared by every replica.
type TokenBucket struct {
	rdb *redis.Client
	cfg config.RateLimitConfig
	now func() time.Time
}

func newTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) *TokenBucket {
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval < time.Millisecond {
		cfg.RefillInterval = time.Second
	}
	return &TokenBucket{rdb: rdb, cfg: cfg, now: time.Now}
}

// Take spends one token from the bucket at key.
func (b *TokenBucket) Take(ctx context.Context, key string) (Decision, error) {
	res, err := takeScript.Run(ctx, b.rdb, []string{key},
		b.now().UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		b.cfg.TTL.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  res[1],
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket returns the rate limit middleware.  It is a no-op when
// disabled or when no Redis client is available, and it lets requests
// through when Redis errors so a limiter outage never takes the API down.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	bucket := newTokenBucket(cfg, rdb)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			d, err := bucket.Take(c.Request().Context(), key)
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] key=%s: %v", key, err)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			if d.Allowed {
				return next(c)
			}

			secs := int64((d.RetryAfter + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.FormatInt(secs, 10))
			if cfg.Debug {
				c.Logger().Infof("[ratelimit] blocked key=%s retry=%s", key, d.RetryAfter)
			}
			return apperr.ErrTooManyRequests
		}
	}
}

// rateKey builds the bucket key for the configured strategy.  The login and
// register routes are unauthenticated, so user-based strategies mostly see
// "anon" there.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = []string{"ip", ip}
	case "user":
		parts = []string{"user", userID(c)}
	case "user_route":
		parts = []string{"user", userID(c), "route", route}
	case "ip_route", "":
		parts = []string{"ip", ip, "route", route}
	default:
		parts = []string{"ip", ip, "user", userID(c), "route", route}
	}
	return cfg.Prefix + ":" + strings.Join(parts, ":")
}

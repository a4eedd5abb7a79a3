package middleware

import (
	"customer-manager/internal/config"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisRateLimitPrefix = "customer-manager:ratelimit:"

// RedisRateLimiter counts requests per IP in a fixed window kept in redis, so
// every server instance shares one budget. Redis failures let the request
// through.
type RedisRateLimiter struct {
	redisClient *redis.Client
	cfg         config.RateLimitConfig
	logger      *slog.Logger
	window      time.Duration
}

func NewRedisRateLimiter(cfg config.RateLimitConfig, redisClient *redis.Client, logger *slog.Logger) *RedisRateLimiter {
	logger = logger.With("component", "redis_rate_limiter")

	if cfg.Enabled && redisClient == nil {
		logger.Warn("Rate limiting enabled but no Redis client provided; disabling")
		cfg.Enabled = false
	}

	return &RedisRateLimiter{
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
		window:      time.Second,
	}
}

func (rl *RedisRateLimiter) IsEnabled() bool {
	return rl.cfg.Enabled && rl.redisClient != nil
}

// limit is the number of requests allowed per window.
func (rl *RedisRateLimiter) limit() int64 {
	n := int64(math.Ceil(rl.cfg.RPS * rl.window.Seconds()))
	if n < int64(rl.cfg.Burst) {
		n = int64(rl.cfg.Burst)
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (rl *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	if !rl.IsEnabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := extractIP(r)
		key := redisRateLimitPrefix + ip

		pipe := rl.redisClient.Pipeline()
		incrCmd := pipe.Incr(ctx, key)
		ttlCmd := pipe.TTL(ctx, key)

		if _, err := pipe.Exec(ctx); err != nil {
			rl.logger.ErrorContext(ctx, "Redis pipeline failed during rate limiting check", slog.Any("error", err), "ip", ip)
			next.ServeHTTP(w, r)
			return
		}

		currentCount, err := incrCmd.Result()
		if err != nil {
			rl.logger.ErrorContext(ctx, "Failed to read INCR result", slog.Any("error", err), "ip", ip)
			next.ServeHTTP(w, r)
			return
		}

		// -1 means no expiry, -2 a key that vanished between commands.
		if ttl, err := ttlCmd.Result(); err == nil && (ttl == -1 || ttl == -2) {
			if err := rl.redisClient.Expire(ctx, key, rl.window).Err(); err != nil {
				rl.logger.ErrorContext(ctx, "Failed to set expiry on rate limit key", slog.Any("error", err), "key", key)
			}
		}

		if currentCount > rl.limit() {
			rl.logger.WarnContext(ctx, "Rate limit exceeded", "ip", ip, "count", currentCount, "limit", rl.limit(), "backend", config.RateLimitBackendRedis)
			writeRateLimited(w,
				fmt.Sprintf("Rate limit exceeded. Limit is %d requests per %v.", rl.limit(), rl.window),
				fmt.Sprintf("%.0f", rl.window.Seconds()),
			)
			return
		}

		next.ServeHTTP(w, r)
	})
}

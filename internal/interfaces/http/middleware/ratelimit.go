package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/boutique/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitResult is the outcome of one RateLimiter.Allow call
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
}

// RateLimiter counts requests per key in fixed windows
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

// MemoryRateLimiter is a process-local fixed window limiter
type MemoryRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	stop    chan struct{}
	once    sync.Once
}

type window struct {
	count   int
	started time.Time
}

// NewMemoryRateLimiter creates a limiter and starts its cleanup loop; call Stop to end it
func NewMemoryRateLimiter(limit int, per time.Duration) *MemoryRateLimiter {
	rl := &MemoryRateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  per,
		stop:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *MemoryRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, w := range rl.clients {
				if now.Sub(w.started) > rl.window*2 {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow implements RateLimiter
func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) (RateLimitResult, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.started) >= rl.window {
		w = &window{started: now}
		rl.clients[key] = w
	}
	if w.count >= rl.limit {
		return RateLimitResult{Allowed: false, Limit: rl.limit}, nil
	}
	w.count++
	return RateLimitResult{Allowed: true, Limit: rl.limit, Remaining: rl.limit - w.count}, nil
}

// Stop ends the cleanup loop
func (rl *MemoryRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// RedisRateLimiter shares the window across server replicas
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewRedisRateLimiter creates a Redis backed limiter
func NewRedisRateLimiter(client redis.UniversalClient, prefix string, limit int, per time.Duration) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisRateLimiter{client: client, prefix: prefix, limit: limit, window: per}
}

// Allow implements RateLimiter
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	slot := time.Now().UnixNano() / int64(rl.window)
	redisKey := rl.prefix + key + ":" + strconv.FormatInt(slot, 10)

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, rl.window)
		return nil
	})
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	n := int(incr.Val())
	if n > rl.limit {
		return RateLimitResult{Allowed: false, Limit: rl.limit}, nil
	}
	return RateLimitResult{Allowed: true, Limit: rl.limit, Remaining: rl.limit - n}, nil
}

// KeyByClientIP keys requests by client address
func KeyByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// errors are logged and the request is let through.
func RateLimit(limiter RateLimiter, keyFunc func(*gin.Context) string, log *zap.Logger) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = KeyByClientIP
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := keyFunc(c)
		res, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("Rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}

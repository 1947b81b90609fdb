package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	SearchesPerMinute int           // Max searches per client per minute
	BurstSize         int           // Allow burst of N requests
	CleanupInterval   time.Duration // How often to clean up old entries
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := time.Since(tb.lastRefill).Seconds()
	tokens := min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	return int(tokens)
}

// idle reports whether the bucket has been untouched for longer than d.
func (tb *TokenBucket) idle(d time.Duration) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return time.Since(tb.lastRefill) > d
}

// ClientRateLimiter manages search rate limits per client
type ClientRateLimiter struct {
	config      RateLimiterConfig
	buckets     map[uuid.UUID]*TokenBucket
	mu          sync.RWMutex
	logger      *zap.Logger
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewClientRateLimiter creates a limiter and starts its cleanup routine.
func NewClientRateLimiter(config RateLimiterConfig, logger *zap.Logger) *ClientRateLimiter {
	if config.SearchesPerMinute <= 0 {
		config.SearchesPerMinute = 60
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 10
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := &ClientRateLimiter{
		config:      config,
		buckets:     make(map[uuid.UUID]*TokenBucket),
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}

	go limiter.cleanupRoutine()

	return limiter
}

// cleanupRoutine periodically removes stale entries
func (l *ClientRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup drops buckets idle for a full cleanup interval. An idle bucket has
// refilled completely, so dropping it does not change any client's limit.
func (l *ClientRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, bucket := range l.buckets {
		if bucket.idle(l.config.CleanupInterval) {
			delete(l.buckets, id)
			removed++
		}
	}
	if removed > 0 {
		l.logger.Debug("Cleaned up rate limiter buckets",
			zap.Int("removed", removed),
			zap.Int("remaining", len(l.buckets)))
	}
}

// Stop stops the cleanup routine
func (l *ClientRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// Allow checks if a search can run for the given client
func (l *ClientRateLimiter) Allow(clientID uuid.UUID) bool {
	l.mu.Lock()
	bucket, exists := l.buckets[clientID]
	if !exists {
		refillRate := float64(l.config.SearchesPerMinute) / 60.0
		bucket = NewTokenBucket(float64(l.config.BurstSize), refillRate)
		l.buckets[clientID] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// Limit returns remaining tokens and the burst size for a client
func (l *ClientRateLimiter) Limit(clientID uuid.UUID) (remaining int, limit int) {
	l.mu.RLock()
	bucket, exists := l.buckets[clientID]
	l.mu.RUnlock()

	if !exists {
		return l.config.BurstSize, l.config.BurstSize
	}
	return bucket.Remaining(), l.config.BurstSize
}

// RateLimitMiddleware creates a Gin middleware limiting requests per client.
// ClientMiddleware must run first.
func RateLimitMiddleware(limiter *ClientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, ok := ClientID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "client not initialized"})
			return
		}

		allowed := limiter.Allow(clientID)
		remaining, limit := limiter.Limit(clientID)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			logger, _ := c.Get("logger")
			if zapLogger, _ := logger.(*zap.Logger); zapLogger != nil {
				zapLogger.Warn("Rate limit exceeded",
					zap.String("client_id", clientID.String()),
					zap.Int("limit", limit))
			}

			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}

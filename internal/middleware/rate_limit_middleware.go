package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewRateLimiter allows perMinute requests per IP with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	// sweep idle entries on the way
	for k, other := range rl.visitors {
		if now.Sub(other.lastSeen) > limiterIdleTTL {
			delete(rl.visitors, k)
		}
	}

	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.allow(c.ClientIP()) {
			c.Next()
			return
		}

		GetLoggerFromContext(c).Warn("Rate limit exceeded", map[string]interface{}{
			"ip":   c.ClientIP(),
			"path": c.Request.URL.Path,
		})
		c.Header("Retry-After", "60")
		apperrors.RespondWithError(c, http.StatusTooManyRequests, apperrors.AuthRateLimited, "too many requests, try again later")
		c.Abort()
	}
}

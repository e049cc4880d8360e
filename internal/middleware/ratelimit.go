package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	redispkg "github.com/lumen-agency/site-core/internal/pkg/redis"
	"github.com/lumen-agency/site-core/internal/pkg/response"
	"golang.org/x/time/rate"
)

const (
	rateLimitMax    = 50
	rateLimitWindow = time.Second
)

// RateLimit enforces a fixed-window limit of rateLimitMax requests per
// second per client IP for anonymous callers. The counter lives in Redis
// when rdb is non-nil, otherwise in a per-process token bucket.
func RateLimit(rdb *redispkg.Client) gin.HandlerFunc {
	local := newLocalLimiter(rate.Every(rateLimitWindow/rateLimitMax), rateLimitMax)
	return func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		if !allow(c, rdb, local, ip) {
			c.Header("Retry-After", "1")
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}

func allow(c *gin.Context, rdb *redispkg.Client, local *localLimiter, ip string) bool {
	if rdb == nil {
		return local.get(ip).Allow()
	}
	key := fmt.Sprintf("site-core:rate_limit:%s:%d", ip, time.Now().Unix())
	count, err := rdb.IncrWindow(c.Request.Context(), key, rateLimitWindow+time.Second)
	if err != nil {
		return local.get(ip).Allow()
	}
	return count <= rateLimitMax
}

type localLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newLocalLimiter(limit rate.Limit, burst int) *localLimiter {
	return &localLimiter{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (l *localLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

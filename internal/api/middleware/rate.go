package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/orrery-labs/orrery/backend/internal/infrastructure/config"
)

const (
	maxVisitors = 1000
	visitorTTL  = 10 * time.Minute
)

// RateLimit caps request rate per client IP. The visitor table is swept
// of idle entries whenever it grows past maxVisitors, so a scanner
// cycling source addresses cannot grow it without bound.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	type visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
	)

	sweep := func(now time.Time) {
		if len(visitors) <= maxVisitors {
			return
		}
		for ip, v := range visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(visitors, ip)
			}
		}
	}

	return func(c *gin.Context) {
		now := time.Now()

		mu.Lock()
		v, ok := visitors[c.ClientIP()]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
			visitors[c.ClientIP()] = v
			sweep(now)
		}
		v.lastSeen = now
		limiter := v.limiter
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

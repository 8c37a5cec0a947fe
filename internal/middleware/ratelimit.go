package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/noah-isme/route-network-api/pkg/errors"
	"github.com/noah-isme/route-network-api/pkg/response"
)

const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitPerUser throttles a route per authenticated user. perMinute <= 0 disables the
// limit. It must run after JWT.
func RateLimitPerUser(perMinute float64, burst int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	var (
		mu       sync.Mutex
		limiters = make(map[string]*userLimiter)
		every    = rate.Limit(perMinute / 60)
	)
	allow := func(userID string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()
		for id, l := range limiters {
			if now.Sub(l.lastSeen) > limiterIdleTTL {
				delete(limiters, id)
			}
		}
		l, ok := limiters[userID]
		if !ok {
			l = &userLimiter{limiter: rate.NewLimiter(every, burst)}
			limiters[userID] = l
		}
		l.lastSeen = now
		return l.limiter.AllowN(now, 1)
	}

	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !allow(claims.UserID, time.Now()) {
			c.Header("Retry-After", "60")
			response.Error(c, appErrors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

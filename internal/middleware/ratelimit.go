package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused bucket is kept. A bucket idle this
// long has refilled completely, so dropping it loses nothing.
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per caller: the authenticated
// user when RequireAuth ran first, otherwise the client IP.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per client, bursting up to the
// same amount. perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		idleTTL:  limiterIdleTTL,
		now:      time.Now,
	}
	if perMinute <= 0 {
		rl.limit = rate.Inf
		return rl
	}
	rl.limit = rate.Every(time.Minute / time.Duration(perMinute))
	rl.burst = perMinute
	return rl
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.idleTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func clientKey(c *gin.Context) string {
	if id := UserID(c); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit == rate.Inf {
			c.Next()
			return
		}
		key := clientKey(c)
		if !rl.allow(key) {
			logrus.WithFields(logrus.Fields{"client": key, "path": c.FullPath()}).Warn("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}

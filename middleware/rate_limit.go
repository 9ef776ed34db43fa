package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// limiterSet keeps one token bucket per client IP.
type limiterSet struct {
	mu      sync.Mutex
	buckets map[string]*rateLimiter
	limit   rate.Limit
	burst   int
}

// RateLimit applies a per-IP token bucket allowing perMinute requests with a burst of half that.
func RateLimit(perMinute int) gin.HandlerFunc {
	perMinute = max(perMinute, 1)
	set := &limiterSet{
		buckets: map[string]*rateLimiter{},
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   max(perMinute/2, 1),
	}
	return func(ctx *gin.Context) {
		if !set.allow(ctx.ClientIP()) {
			ctx.String(http.StatusTooManyRequests, "Too many requests, slow down.")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, l := range s.buckets {
		if now.After(l.expires) {
			delete(s.buckets, k)
		}
	}
	l, ok := s.buckets[key]
	if !ok {
		l = &rateLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = l
	}
	l.expires = now.Add(5 * time.Minute)
	return l.limiter.Allow()
}

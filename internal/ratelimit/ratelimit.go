package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"wastereport/pkg/logger"
	"wastereport/pkg/utils"
)

// PerIP is an in-process token bucket per client IP.
type PerIP struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration

	clock     func() time.Time
	lastSweep time.Time
}

type bucket struct {
	lim *rate.Limiter
	ts  time.Time
}

func NewPerIP(perSecond float64, burst int) *PerIP {
	return &PerIP{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		ttl:     5 * time.Minute,
		clock:   time.Now,
	}
}

// Allow consumes one token for key.
func (p *PerIP) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Idle buckets are swept at most once per minute.
	if now.Sub(p.lastSweep) > time.Minute {
		for k, b := range p.buckets {
			if now.Sub(b.ts) > p.ttl {
				delete(p.buckets, k)
			}
		}
		p.lastSweep = now
	}

	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(p.limit, p.burst)}
		p.buckets[key] = b
	}
	b.ts = now
	return b.lim.AllowN(now, 1)
}

func (p *PerIP) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// LoginThrottle caps login attempts per client IP across all API instances
// with a Redis fixed window. It complements the per-account lockout.
type LoginThrottle struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
}

func NewLoginThrottle(rdb redis.Scripter, perMinute int) *LoginThrottle {
	return &LoginThrottle{rdb: rdb, limit: perMinute, window: time.Minute}
}

const loginKeyPrefix = "ratelimit:login:"

func (l *LoginThrottle) Allow(ctx context.Context, ip string) (bool, error) {
	return utils.AllowFixedWindow(ctx, l.rdb, loginKeyPrefix+ip, l.limit, l.window)
}

// Middleware fails open when Redis is unavailable; the account lockout still
// applies in that case.
func (l *LoginThrottle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.FromGin(c).Warn("login throttle unavailable", "err", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
			return
		}
		c.Next()
	}
}

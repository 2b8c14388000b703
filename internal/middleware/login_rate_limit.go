package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/farma-sahayak/sahayak-server/internal/httperr"
	"github.com/farma-sahayak/sahayak-server/internal/identity"
)

const (
	loginRateKeyPrefix   = "rl:login:"
	defaultLoginPerMin   = 5
	rateLimitWindow      = time.Minute
	localLimiterIdleTime = 10 * time.Minute
)

// LoginRateLimit caps credential attempts per phone number, falling back to
// the client IP when the body carries no usable phone. Redis counters are
// shared across instances; without Redis each process keeps token buckets.
// Cache failures fail open.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = defaultLoginPerMin
	}
	local := newLocalLimiter(maxPerMin)

	return func(c *fiber.Ctx) error {
		key := loginRateKeyPrefix + rateSubject(c)

		if cache == nil {
			if !local.allow(key) {
				return tooManyAttempts()
			}
			return c.Next()
		}

		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, rateLimitWindow)
		}
		if cnt > int64(maxPerMin) {
			return tooManyAttempts()
		}
		return c.Next()
	}
}

func rateSubject(c *fiber.Ctx) string {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	_ = c.BodyParser(&req)
	if phone, err := identity.NormalizePhone(strings.TrimSpace(req.PhoneNumber)); err == nil {
		return phone
	}
	return c.IP()
}

func tooManyAttempts() error {
	return httperr.New(fiber.StatusTooManyRequests, "rate_limited", "too many attempts, try again later")
}

type localLimiter struct {
	mu        sync.Mutex
	perMin    int
	limiters  map[string]*localEntry
	lastSweep time.Time
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(perMin int) *localLimiter {
	return &localLimiter{perMin: perMin, limiters: make(map[string]*localEntry)}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > localLimiterIdleTime {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > localLimiterIdleTime {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &localEntry{limiter: rate.NewLimiter(rate.Every(rateLimitWindow/time.Duration(l.perMin)), l.perMin)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

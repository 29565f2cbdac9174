package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*visitor
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{ips: make(map[string]*visitor), r: r, b: b}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, ok := i.ips[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup forgets IPs idle for longer than maxIdle.
func (i *IPRateLimiter) Cleanup(maxIdle time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for ip, v := range i.ips {
		if time.Since(v.lastSeen) > maxIdle {
			delete(i.ips, ip)
		}
	}
}

func RateLimit(limiter *IPRateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !limiter.GetLimiter(c.IP()).Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests, please try again shortly",
			})
		}
		return c.Next()
	}
}

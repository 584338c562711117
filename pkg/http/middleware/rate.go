package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// ClientRateConfig bounds inbound requests per client IP. Outbound provider
// budgets are enforced separately by each provider's own limiter.
type ClientRateConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
	Skipper func(c echo.Context) bool
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

type clientLimiter struct {
	mu       sync.Mutex
	cfg      ClientRateConfig
	visitors map[string]*visitor
	lastGC   time.Time
}

func (cl *clientLimiter) allow(key string, now time.Time) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if now.Sub(cl.lastGC) > cl.cfg.IdleTTL {
		for k, v := range cl.visitors {
			if now.Sub(v.seen) > cl.cfg.IdleTTL {
				delete(cl.visitors, k)
			}
		}
		cl.lastGC = now
	}

	v, ok := cl.visitors[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(rate.Limit(cl.cfg.RPS), cl.cfg.Burst)}
		cl.visitors[key] = v
	}
	v.seen = now
	return v.lim.AllowN(now, 1)
}

// ClientRateLimit rejects requests with 429 once a client exceeds its token bucket.
func ClientRateLimit(cfg ClientRateConfig) echo.MiddlewareFunc {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	cl := &clientLimiter{cfg: cfg, visitors: make(map[string]*visitor)}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.RPS <= 0 || (cfg.Skipper != nil && cfg.Skipper(c)) {
				return next(c)
			}
			if !cl.allow(c.RealIP(), time.Now()) {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}

package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-taskboard/logging"
)

const TextCodeRateLimited = "RATE_LIMITED"

// ErrRateLimited is returned once a client exhausts its allowance
var ErrRateLimited = errors.New("Too many requests, please try again later.", errors.CategoryRateLimit).
	WithTextCode(TextCodeRateLimited).
	WithCode(http.StatusTooManyRequests)

type Config struct {
	// Name namespaces the keys so several limited routes do not share buckets
	Name    string
	Limiter Limiter
	KeyFunc func(*fiber.Ctx) string
	// Window is only reported in the Retry-After header
	Window time.Duration
	// FailClosed rejects requests when the limiter backend errors
	FailClosed bool
	Logger     logging.Logger
}

// IPKeyFunc keys requests by client address
func IPKeyFunc(c *fiber.Ctx) string {
	return c.IP()
}

// New returns a fiber handler enforcing cfg.Limiter
func New(cfg Config) fiber.Handler {
	if cfg.Limiter == nil {
		panic("ratelimit: Limiter is required")
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPKeyFunc
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	return func(c *fiber.Ctx) error {
		key := cfg.Name + ":" + cfg.KeyFunc(c)

		allowed, err := cfg.Limiter.Allow(c.UserContext(), key)
		if err != nil {
			cfg.Logger.Warn("rate limiter unavailable", "key", key, "error", err)
			if cfg.FailClosed {
				return ErrRateLimited
			}
			return c.Next()
		}

		if !allowed {
			if cfg.Window > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(cfg.Window.Seconds())))
			}
			return ErrRateLimited
		}

		return c.Next()
	}
}

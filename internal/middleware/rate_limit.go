package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit creates a per-caller rate limiter middleware instance. Callers
// are keyed by the X-Actor-Ref header when present, falling back to IP.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			actor := strings.TrimSpace(c.Get("X-Actor-Ref"))
			if actor == "" {
				actor = c.IP()
			}
			return fmt.Sprintf("%s:%s", identifier, actor)
		},
	})
}

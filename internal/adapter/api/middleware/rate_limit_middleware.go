package middleware

import (
	"fmt"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"estatechat/internal/infrastructure/ratelimit"
	"estatechat/pkg/errors"
	"estatechat/pkg/logger"
	"estatechat/pkg/response"
)

// RateLimit throttles action per authenticated user, falling back to the
// client IP for anonymous requests.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := c.Get(uidKey).(string)
			if !ok || key == "" {
				key = c.RealIP()
			}

			allowed, wait := limiter.Allow(key, action)
			if !allowed {
				seconds := int(math.Ceil(wait.Seconds()))
				logger.Warn("rate limit exceeded", "key", key, "action", action, "retry_after", seconds)
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return response.Error(c, errors.TooManyRequests(fmt.Sprintf("Too many requests, retry in %ds", seconds)))
			}
			return next(c)
		}
	}
}

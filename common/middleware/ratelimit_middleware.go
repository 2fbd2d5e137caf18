package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/tagservice/common/ratelimit"
)

// TagLimiter is the subset of ratelimit.RateLimiter used by the middleware
type TagLimiter interface {
	CheckTagLimit(ctx context.Context, scope ratelimit.Scope, tagID string, limit int64) (*ratelimit.RateLimitResult, error)
}

// TagRateLimitMiddleware limits requests per tag for a scope. The tag id
// is read from the :tag_id path parameter. Requests without one pass through.
func TagRateLimitMiddleware(limiter TagLimiter, scope ratelimit.Scope, limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tagID := c.Param("tag_id")
			if tagID == "" || limit <= 0 {
				return next(c)
			}

			result, err := limiter.CheckTagLimit(c.Request().Context(), scope, tagID, limit)
			if err != nil {
				// On error, allow request (fail open for availability)
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "tag_rate_limit_exceeded",
					"message": "Too many requests for this tag. Please try again later.",
					"details": map[string]interface{}{
						"scope":               scope,
						"limit":               result.Limit,
						"window":              "60 seconds",
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}

package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/tagservice/cmd/tagservice/container"
	"github.com/lyzr/tagservice/cmd/tagservice/handlers"
	"github.com/lyzr/tagservice/cmd/tagservice/middleware"
	commonmw "github.com/lyzr/tagservice/common/middleware"
	"github.com/lyzr/tagservice/common/ratelimit"
)

// RegisterTagRoutes registers all tag lifecycle and access routes
func RegisterTagRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewTagHandler(c)
	admin := middleware.RequireAdmin()

	// Public lookup routes are limited per tag when Redis is available
	var accessLimit, verifyLimit []echo.MiddlewareFunc
	if c.RateLimiter != nil {
		perMinute := c.Components.Config.RateLimit.AccessPerMinute
		accessLimit = append(accessLimit, commonmw.TagRateLimitMiddleware(c.RateLimiter, ratelimit.ScopeAccess, perMinute))
		verifyLimit = append(verifyLimit, commonmw.TagRateLimitMiddleware(c.RateLimiter, ratelimit.ScopeVerify, perMinute))
	}

	tags := e.Group("/api/v1/tags", middleware.ExtractActor())
	{
		tags.POST("", h.CreateTag, admin)                                 // POST /api/v1/tags
		tags.GET("/search", h.Search, admin)                              // GET /api/v1/tags/search?q=...
		tags.GET("/status/:status", h.ListByStatus, admin)                // GET /api/v1/tags/status/REVOKED
		tags.GET("/owner/:owner_id", h.FindByOwner)                       // GET /api/v1/tags/owner/pet-123
		tags.GET("/:tag_id", h.GetTag)                                    // GET /api/v1/tags/{id}
		tags.PUT("/:tag_id/link", h.LinkTag)                              // PUT /api/v1/tags/{id}/link
		tags.PUT("/:tag_id/unlink", h.UnlinkTag)                          // PUT /api/v1/tags/{id}/unlink
		tags.PUT("/:tag_id/revoke", h.RevokeTag)                          // PUT /api/v1/tags/{id}/revoke
		tags.PUT("/:tag_id/reactivate", h.ReactivateTag, admin)           // PUT /api/v1/tags/{id}/reactivate
		tags.PUT("/:tag_id/deactivate", h.DeactivateTag, admin)           // PUT /api/v1/tags/{id}/deactivate
		tags.POST("/:tag_id/regenerate-qr", h.RegenerateQR, admin)        // POST /api/v1/tags/{id}/regenerate-qr
		tags.POST("/:tag_id/tokens", h.IssueToken)                        // POST /api/v1/tags/{id}/tokens
		tags.POST("/:tag_id/verify-token", h.VerifyToken, verifyLimit...) // POST /api/v1/tags/{id}/verify-token
		tags.GET("/:tag_id/access", h.CheckAccess, accessLimit...)        // GET /api/v1/tags/{id}/access
	}
}

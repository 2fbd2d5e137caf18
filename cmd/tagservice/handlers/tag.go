package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/tagservice/cmd/tagservice/container"
	"github.com/lyzr/tagservice/cmd/tagservice/middleware"
	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/lyzr/tagservice/cmd/tagservice/service"
	"github.com/lyzr/tagservice/common/logger"
)

// TagHandler handles tag lifecycle and access requests
type TagHandler struct {
	tags     *service.TagService
	access   *service.AccessEvaluator
	maxHours int
	log      *logger.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(c *container.Container) *TagHandler {
	return &TagHandler{
		tags:     c.TagService,
		access:   c.Access,
		maxHours: c.Tokens.MaxHours(),
		log:      c.Components.Logger,
	}
}

type tagListResponse struct {
	Tags  []*models.Tag `json:"tags"`
	Count int           `json:"count"`
}

func listResponse(tags []*models.Tag) tagListResponse {
	if tags == nil {
		tags = []*models.Tag{}
	}
	return tagListResponse{Tags: tags, Count: len(tags)}
}

// CreateTag creates a new tag
// POST /api/v1/tags
func (h *TagHandler) CreateTag(c echo.Context) error {
	var req struct {
		GenerateQR *bool `json:"generate_qr"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	generateQR := req.GenerateQR == nil || *req.GenerateQR

	tag, err := h.tags.CreateTag(c.Request().Context(), generateQR)
	if err != nil {
		return respondError(c, h.log, "create tag", err)
	}

	h.log.Info("tag created",
		"tag_id", tag.TagID,
		"by", middleware.GetUserID(c))

	return c.JSON(http.StatusCreated, tag)
}

// GetTag retrieves a tag
// GET /api/v1/tags/:tag_id
func (h *TagHandler) GetTag(c echo.Context) error {
	tag, err := h.tags.GetTag(c.Request().Context(), c.Param("tag_id"))
	if err != nil {
		return respondError(c, h.log, "get tag", err)
	}
	return c.JSON(http.StatusOK, tag)
}

// LinkTag links a tag to an owner record
// PUT /api/v1/tags/:tag_id/link
func (h *TagHandler) LinkTag(c echo.Context) error {
	var req struct {
		OwnerID string `json:"owner_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validateOwnerID(req.OwnerID); err != nil {
		return badRequest(c, err.Error())
	}

	tag, err := h.tags.LinkTag(c.Request().Context(), c.Param("tag_id"), req.OwnerID)
	if err != nil {
		return respondError(c, h.log, "link tag", err)
	}
	return c.JSON(http.StatusOK, tag)
}

// UnlinkTag clears the owner link
// PUT /api/v1/tags/:tag_id/unlink
func (h *TagHandler) UnlinkTag(c echo.Context) error {
	tag, err := h.tags.UnlinkTag(c.Request().Context(), c.Param("tag_id"))
	if err != nil {
		return respondError(c, h.log, "unlink tag", err)
	}
	return c.JSON(http.StatusOK, tag)
}

// RevokeTag revokes a tag
// PUT /api/v1/tags/:tag_id/revoke
func (h *TagHandler) RevokeTag(c echo.Context) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validateReason(req.Reason); err != nil {
		return badRequest(c, err.Error())
	}

	tag, err := h.tags.RevokeTag(c.Request().Context(), c.Param("tag_id"), req.Reason)
	if err != nil {
		return respondError(c, h.log, "revoke tag", err)
	}

	h.log.Info("tag revoked",
		"tag_id", tag.TagID,
		"by", middleware.GetUserID(c))

	return c.JSON(http.StatusOK, tag)
}

// ReactivateTag reactivates a revoked or inactive tag
// PUT /api/v1/tags/:tag_id/reactivate
func (h *TagHandler) ReactivateTag(c echo.Context) error {
	tag, err := h.tags.ReactivateTag(c.Request().Context(), c.Param("tag_id"))
	if err != nil {
		return respondError(c, h.log, "reactivate tag", err)
	}
	return c.JSON(http.StatusOK, tag)
}

// DeactivateTag suspends an active tag
// PUT /api/v1/tags/:tag_id/deactivate
func (h *TagHandler) DeactivateTag(c echo.Context) error {
	tag, err := h.tags.DeactivateTag(c.Request().Context(), c.Param("tag_id"))
	if err != nil {
		return respondError(c, h.log, "deactivate tag", err)
	}
	return c.JSON(http.StatusOK, tag)
}

// RegenerateQR re-renders the tag QR code
// POST /api/v1/tags/:tag_id/regenerate-qr
func (h *TagHandler) RegenerateQR(c echo.Context) error {
	tag, err := h.tags.RegenerateArtifact(c.Request().Context(), c.Param("tag_id"))
	if err != nil {
		return respondError(c, h.log, "regenerate qr code", err)
	}
	return c.JSON(http.StatusOK, tag)
}

// IssueToken mints a temporary access token
// POST /api/v1/tags/:tag_id/tokens
func (h *TagHandler) IssueToken(c echo.Context) error {
	var req struct {
		ExpiresInHours *int `json:"expires_in_hours"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	hours, err := validateHours(req.ExpiresInHours, h.maxHours)
	if err != nil {
		return badRequest(c, err.Error())
	}

	issued, err := h.tags.IssueToken(c.Request().Context(), c.Param("tag_id"), hours)
	if err != nil {
		return respondError(c, h.log, "issue token", err)
	}
	return c.JSON(http.StatusOK, issued)
}

// VerifyToken checks a temporary token against a tag
// POST /api/v1/tags/:tag_id/verify-token
func (h *TagHandler) VerifyToken(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Token == "" {
		return badRequest(c, "token is required")
	}

	valid := h.tags.VerifyToken(c.Request().Context(), c.Param("tag_id"), req.Token)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"valid": valid,
	})
}

// CheckAccess evaluates access to a tag, optionally with a temporary token
// GET /api/v1/tags/:tag_id/access
func (h *TagHandler) CheckAccess(c echo.Context) error {
	token := strings.TrimSpace(c.Request().Header.Get("X-Access-Token"))

	decision, err := h.access.CheckAccess(c.Request().Context(), c.Param("tag_id"), token)
	if err != nil {
		return respondError(c, h.log, "check access", err)
	}
	return c.JSON(http.StatusOK, decision)
}

// ListByStatus lists tags with a status
// GET /api/v1/tags/status/:status
func (h *TagHandler) ListByStatus(c echo.Context) error {
	status, err := parseStatus(c.Param("status"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	tags, err := h.tags.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return respondError(c, h.log, "list tags", err)
	}
	return c.JSON(http.StatusOK, listResponse(tags))
}

// FindByOwner returns the tag linked to an owner, or null
// GET /api/v1/tags/owner/:owner_id
func (h *TagHandler) FindByOwner(c echo.Context) error {
	ownerID := c.Param("owner_id")
	if err := validateOwnerID(ownerID); err != nil {
		return badRequest(c, err.Error())
	}

	tag, err := h.tags.FindByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return respondError(c, h.log, "find tag by owner", err)
	}
	return c.JSON(http.StatusOK, tag)
}

// Search lists tags matching a CEL expression
// GET /api/v1/tags/search?q=tag.status == "REVOKED"
func (h *TagHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest(c, "q is required")
	}

	tags, err := h.tags.Search(c.Request().Context(), q)
	if err != nil {
		return respondError(c, h.log, "search tags", err)
	}
	return c.JSON(http.StatusOK, listResponse(tags))
}

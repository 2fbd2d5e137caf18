package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/lyzr/tagservice/cmd/tagservice/service"
	"github.com/lyzr/tagservice/common/logger"
)

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error": msg,
	})
}

// respondError maps service errors onto HTTP statuses. Infrastructure
// failures are logged with detail and reported generically.
func respondError(c echo.Context, log *logger.Logger, action string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "tag not found",
		})
	case errors.Is(err, models.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]interface{}{
			"error": err.Error(),
		})
	case errors.Is(err, models.ErrInvalidQuery), errors.Is(err, service.ErrInvalidTokenLifetime):
		return badRequest(c, err.Error())
	}

	log.WithContext(c.Request().Context()).Error("failed to "+action,
		"tag_id", c.Param("tag_id"),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": "failed to " + action,
	})
}

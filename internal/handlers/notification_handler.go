package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/labstack/echo/v4"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	engine *engine.Engine
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(eng *engine.Engine) *NotificationHandler {
	return &NotificationHandler{engine: eng}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
}

// GetNotifications returns a page of the caller's notifications
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", defaultNotificationLimit)
	if err != nil {
		return err
	}
	if limit < 1 || limit > maxNotificationLimit {
		return engine.ErrBadRequest
	}

	list, err := h.engine.Notifications(c.Request().Context(), p, skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"notifications": list,
		"skip":          skip,
		"limit":         limit,
	})
}

// MarkAsRead flags a single notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.engine.MarkNotificationRead(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func queryInt(c echo.Context, name string, def int64) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, engine.ErrBadRequest
	}
	return v, nil
}

package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/labstack/echo/v4"
)

const defaultActivityWindow = 30 * 24 * time.Hour

// ActivityHandler serves the caller's activity log
type ActivityHandler struct {
	engine *engine.Engine
	now    func() time.Time
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(eng *engine.Engine) *ActivityHandler {
	return &ActivityHandler{engine: eng, now: time.Now}
}

// RegisterActivityRoutes registers activity routes
func (h *ActivityHandler) RegisterActivityRoutes(g *echo.Group) {
	g.GET("/activities", h.GetActivities)
}

// GetActivities lists activities between the RFC 3339 "from" and "to" query
// parameters. Missing bounds default to the last 30 days.
func (h *ActivityHandler) GetActivities(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to", h.now())
	if err != nil {
		return err
	}
	from, err := queryTime(c, "from", to.Add(-defaultActivityWindow))
	if err != nil {
		return err
	}

	list, err := h.engine.Activities(c.Request().Context(), p, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func queryTime(c echo.Context, name string, def time.Time) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, engine.ErrBadRequest
	}
	return t, nil
}

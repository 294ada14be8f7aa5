package handlers

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles like-related HTTP requests
type LikeHandler struct {
	engine *engine.Engine
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(eng *engine.Engine) *LikeHandler {
	return &LikeHandler{engine: eng}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.PUT("/posts/:post_id/like", h.ToggleLike)
}

// ToggleLike sets whether the caller likes the post. Liking answers 201,
// unliking 200; repeating the current state is a bad request.
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "post_id")
	if err != nil {
		return err
	}
	var req models.ToggleLikeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.engine.ToggleLike(c.Request().Context(), p, postID, *req.IsLiked)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if *req.IsLiked {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{
		"post_id":    post.ID,
		"isLiked":    *req.IsLiked,
		"like_count": len(post.Likes),
	})
}

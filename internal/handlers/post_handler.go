package handlers

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	engine *engine.Engine
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(eng *engine.Engine) *PostHandler {
	return &PostHandler{engine: eng}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:post_id", h.GetPost)
	g.PATCH("/posts/:post_id", h.UpdatePost)
	g.DELETE("/posts/:post_id", h.DeletePost)
}

// CreatePost handles creating a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	post, err := h.engine.CreatePost(c.Request().Context(), p, req.Body, models.Audience(req.Audience))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPost handles retrieving a single post
func (h *PostHandler) GetPost(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "post_id")
	if err != nil {
		return err
	}
	post, err := h.engine.Post(c.Request().Context(), p, postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// UpdatePost changes the audience of a post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "post_id")
	if err != nil {
		return err
	}
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	post, err := h.engine.UpdatePost(c.Request().Context(), p, postID, models.Audience(req.Audience))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost handles deleting a post
func (h *PostHandler) DeletePost(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "post_id")
	if err != nil {
		return err
	}
	if err := h.engine.DeletePost(c.Request().Context(), p, postID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	engine *engine.Engine
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(eng *engine.Engine) *CommentHandler {
	return &CommentHandler{engine: eng}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetCommentsByPostID)
	g.PATCH("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment handles creating a new comment on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "post_id")
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	comment, err := h.engine.AddComment(c.Request().Context(), p, postID, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

// GetCommentsByPostID lists the active comments of a post, oldest first
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := paramID(c, "post_id")
	if err != nil {
		return err
	}
	comments, err := h.engine.PostComments(c.Request().Context(), p, postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comments)
}

// UpdateComment handles editing a comment's text
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	commentID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	comment, err := h.engine.UpdateComment(c.Request().Context(), p, commentID, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment handles deleting a comment
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	commentID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.engine.DeleteComment(c.Request().Context(), p, commentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

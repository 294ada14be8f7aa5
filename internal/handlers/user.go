package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles account-related HTTP requests
type UserHandler struct {
	engine *engine.Engine
	users  repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(eng *engine.Engine, users repositories.UserRepository) *UserHandler {
	return &UserHandler{engine: eng, users: users}
}

// RegisterUserRoutes registers account routes on the protected group
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/me", h.GetMe)
	g.PUT("/users/me/visibility", h.UpdateVisibility)
	g.PUT("/users/me/password", h.UpdatePassword)
	g.POST("/users/me/deactivate", h.Deactivate)
	g.DELETE("/users/me", h.Delete)
	g.GET("/users/:username", h.GetProfile)
}

// GetMe returns the authenticated user's own record
func (h *UserHandler) GetMe(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetUserByID(c.Request().Context(), p.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return engine.ErrUnauthorized
		}
		return err
	}
	if !user.State.IsActive() {
		return engine.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, user)
}

// GetProfile returns what the caller may see of another account
func (h *UserHandler) GetProfile(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	profile, err := h.engine.Profile(c.Request().Context(), p, c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateVisibility(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	var req models.UpdateVisibilityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.engine.UpdateVisibility(c.Request().Context(), p, *req.Visibility)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdatePassword checks the old password before storing the new one
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	var req models.UpdatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.users.GetUserByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return engine.ErrUnauthorized
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return engine.ErrUnauthorized
	}
	if req.OldPassword == req.NewPassword {
		return engine.ErrNoChanges
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return engine.ErrServerError
	}
	if err := h.engine.UpdatePassword(ctx, p, string(hashed)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Deactivate(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.engine.DeactivateAccount(c.Request().Context(), p); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes the account and everything it owns
func (h *UserHandler) Delete(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.engine.DeleteAccount(c.Request().Context(), p); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

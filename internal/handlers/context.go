package handlers

import (
	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// getPrincipal returns the caller authenticated by JWTAuthMiddleware.
func getPrincipal(c echo.Context) (engine.Principal, error) {
	claims, ok := c.Get(middleware.ContextKeyUser).(*models.JwtCustomClaims)
	if !ok {
		return engine.Principal{}, engine.ErrUnauthorized
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return engine.Principal{}, engine.ErrUnauthorized
	}
	return engine.Principal{ID: id, Username: claims.Username}, nil
}

// paramID parses a path parameter holding an object id.
func paramID(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, engine.ErrBadRequest
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and checks its tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return engine.ErrBadRequest
	}
	if err := c.Validate(req); err != nil {
		return engine.ErrBadRequest
	}
	return nil
}

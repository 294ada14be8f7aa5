package middleware

import (
	"errors"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// ContextKeyUser is where the verified claims are stored on the echo context.
const ContextKeyUser = "user"

// JWTAuthMiddleware checks for a valid access token and stores its claims.
// The token comes from the "Authorization: Bearer" header, or from the
// access_token query parameter for clients that cannot set headers, such as
// browser websockets.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return engine.ErrUnauthorized
			}

			claims, err := ParseToken(tokenString, secret)
			if err != nil {
				return engine.ErrUnauthorized
			}

			c.Set(ContextKeyUser, claims)
			return next(c)
		}
	}
}

// ParseToken verifies an HMAC-signed token and returns its claims. Access and
// refresh tokens share the claim set and differ only in secret and lifetime.
func ParseToken(tokenString, secret string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if q := c.QueryParam("access_token"); q != "" {
			return q, nil
		}
		return "", errors.New("missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid Authorization header format")
	}
	return parts[1], nil
}

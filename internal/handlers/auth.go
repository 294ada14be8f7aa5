package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// TokenVerifier checks a Firebase ID token. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// TokenConfig holds the signing secrets and lifetimes of issued tokens.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenPair is returned by every endpoint that logs a user in.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type authResponse struct {
	User models.UserCompact `json:"user"`
	TokenPair
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	engine   *engine.Engine
	users    repositories.UserRepository
	sessions repositories.SessionRepository
	firebase TokenVerifier
	tokens   TokenConfig
	now      func() time.Time
}

// NewAuthHandler creates a new AuthHandler. firebase may be nil, which
// disables the Firebase login endpoint.
func NewAuthHandler(eng *engine.Engine, users repositories.UserRepository, sessions repositories.SessionRepository, firebase TokenVerifier, tokens TokenConfig) *AuthHandler {
	return &AuthHandler{
		engine:   eng,
		users:    users,
		sessions: sessions,
		firebase: firebase,
		tokens:   tokens,
		now:      time.Now,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.GET("/check-username/:username", h.CheckUsername)
	g.GET("/check-email/:email", h.CheckEmail)
}

// Signup handles local user registration with username, email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return engine.ErrServerError
	}

	user, err := h.engine.CreateUser(c.Request().Context(), req.Username, req.Email, string(hashed))
	if err != nil {
		return err
	}
	return h.respondWithTokens(c, http.StatusCreated, user)
}

// SignIn authenticates with username and password. Every attempt against an
// existing account is recorded as an activity.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.users.GetUserByUsername(ctx, strings.ToLower(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return engine.ErrUnauthorized
		}
		return err
	}
	if !user.State.IsActive() {
		return engine.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		if err := h.engine.RecordLogin(ctx, user.ID, false); err != nil {
			return err
		}
		return engine.ErrUnauthorized
	}
	if err := h.engine.RecordLogin(ctx, user.ID, true); err != nil {
		return err
	}
	return h.respondWithTokens(c, http.StatusOK, user)
}

// Refresh rotates a refresh token: the presented session is revoked and a
// new pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req models.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	claims, err := middleware.ParseToken(req.RefreshToken, h.tokens.RefreshSecret)
	if err != nil {
		return engine.ErrUnauthorized
	}
	session, err := h.sessions.GetSessionByHash(ctx, hashToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return engine.ErrUnauthorized
		}
		return err
	}
	if !session.Usable(h.now()) || session.UserID != claims.UserID {
		return engine.ErrUnauthorized
	}

	user, err := h.activeUser(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if err := h.sessions.RevokeSession(ctx, session.ID, h.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return engine.ErrUnauthorized
		}
		return err
	}
	return h.respondWithTokens(c, http.StatusOK, user)
}

// Logout revokes the presented refresh token. Unknown or already revoked
// tokens are accepted silently.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req models.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	session, err := h.sessions.GetSessionByHash(ctx, hashToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.NoContent(http.StatusNoContent)
		}
		return err
	}
	if err := h.sessions.RevokeSession(ctx, session.ID, h.now()); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin exchanges a Firebase ID token for local tokens. The account
// is matched by email and created on first login.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebase == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "Firebase login is not configured")
	}
	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	token, err := h.firebase.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return engine.ErrUnauthorized
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return engine.ErrBadRequest
	}

	user, err := h.users.GetUserByEmail(ctx, strings.ToLower(email))
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		user, err = h.createFirebaseUser(ctx, email, token)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	case !user.State.IsActive():
		return engine.ErrUnauthorized
	default:
		if err := h.engine.RecordLogin(ctx, user.ID, true); err != nil {
			return err
		}
	}
	return h.respondWithTokens(c, http.StatusOK, user)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// createFirebaseUser picks a free username derived from the email and stores
// the account with a random password, so only Firebase can log it in.
func (h *AuthHandler) createFirebaseUser(ctx context.Context, email string, token *auth.Token) (*models.User, error) {
	base := nonAlnum.ReplaceAllString(strings.ToLower(strings.SplitN(email, "@", 2)[0]), "")
	if len(base) > 10 {
		base = base[:10]
	}
	for len(base) < 4 {
		base += "0"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()+token.UID), bcrypt.DefaultCost)
	if err != nil {
		return nil, engine.ErrServerError
	}

	username := base
	for attempt := 0; attempt < 5; attempt++ {
		if _, err := h.users.GetUserByUsername(ctx, username); errors.Is(err, repositories.ErrNotFound) {
			return h.engine.CreateUser(ctx, username, email, string(hashed))
		} else if err != nil {
			return nil, err
		}
		username = base + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	}
	return nil, engine.ErrBadRequest
}

// CheckUsername reports whether a username can still be registered.
func (h *AuthHandler) CheckUsername(c echo.Context) error {
	_, err := h.users.GetUserByUsername(c.Request().Context(), strings.ToLower(c.Param("username")))
	return availability(c, err)
}

// CheckEmail reports whether an email can still be registered.
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	_, err := h.users.GetUserByEmail(c.Request().Context(), strings.ToLower(c.Param("email")))
	return availability(c, err)
}

func availability(c echo.Context, lookupErr error) error {
	switch {
	case lookupErr == nil:
		return c.JSON(http.StatusOK, echo.Map{"available": false})
	case errors.Is(lookupErr, repositories.ErrNotFound):
		return c.JSON(http.StatusOK, echo.Map{"available": true})
	default:
		return lookupErr
	}
}

func (h *AuthHandler) activeUser(ctx context.Context, hexID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, engine.ErrUnauthorized
	}
	user, err := h.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, engine.ErrUnauthorized
		}
		return nil, err
	}
	if !user.State.IsActive() {
		return nil, engine.ErrUnauthorized
	}
	return user, nil
}

func (h *AuthHandler) respondWithTokens(c echo.Context, status int, user *models.User) error {
	pair, err := h.issueTokens(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(status, authResponse{User: user.ToCompact(), TokenPair: *pair})
}

// issueTokens signs an access token and a refresh token, and stores the
// refresh session.
func (h *AuthHandler) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := h.now()
	access, err := h.sign(user, h.tokens.AccessSecret, now, h.tokens.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := h.sign(user, h.tokens.RefreshSecret, now, h.tokens.RefreshTTL)
	if err != nil {
		return nil, err
	}

	session := &models.RefreshToken{
		UserID:    user.ID.Hex(),
		TokenHash: hashToken(refresh),
		ExpiresAt: now.Add(h.tokens.RefreshTTL),
	}
	if err := h.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(h.tokens.AccessTTL / time.Second),
	}, nil
}

func (h *AuthHandler) sign(user *models.User, secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// hashToken is the form a refresh token is stored in.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

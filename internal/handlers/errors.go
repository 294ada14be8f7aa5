package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/labstack/echo/v4"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var statusByKind = map[engine.Kind]int{
	engine.KindBadRequest:   http.StatusBadRequest,
	engine.KindUnauthorized: http.StatusUnauthorized,
	engine.KindForbidden:    http.StatusForbidden,
	engine.KindNotFound:     http.StatusNotFound,
	engine.KindServerError:  http.StatusInternalServerError,
}

// ErrorHandler renders engine errors and echo errors as ErrorBody. Anything
// else is logged and reported as a server error.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := http.StatusInternalServerError, engine.ErrServerError.Message
		var engErr *engine.Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &engErr):
			code, message = statusByKind[engErr.Kind], engErr.Message
		case errors.As(err, &httpErr):
			code = httpErr.Code
			message = http.StatusText(code)
			if m, ok := httpErr.Message.(string); ok && m != "" {
				message = m
			} else if httpErr.Message != nil {
				message = fmt.Sprint(httpErr.Message)
			}
		default:
			logger.ErrorContext(c.Request().Context(), "unhandled error",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"error", err,
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
		}
		if writeErr != nil {
			logger.Error("write error response", "error", writeErr)
		}
	}
}

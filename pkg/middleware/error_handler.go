package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storeops/picking-service/pkg/errors"
)

// APIErrorResponse is the error body every endpoint returns.
type APIErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
}

func errorBody(c *gin.Context, appErr *errors.AppError) APIErrorResponse {
	return APIErrorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	}
}

// ErrorHandler renders errors attached to the gin context via c.Error.
// Backstop for errors the handlers did not respond to themselves.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := errors.MapDomainError(c.Errors.Last().Err)
		logError(logger, c, appErr)
		c.JSON(appErr.HTTPStatus, errorBody(c, appErr))
	}
}

// ErrorResponder renders error responses from inside a handler.
type ErrorResponder struct {
	ctx    *gin.Context
	logger *slog.Logger
}

func NewErrorResponder(ctx *gin.Context, logger *slog.Logger) *ErrorResponder {
	return &ErrorResponder{ctx: ctx, logger: logger}
}

// RespondWithAppError logs the error and writes it with its mapped status.
func (r *ErrorResponder) RespondWithAppError(appErr *errors.AppError) {
	logError(r.logger, r.ctx, appErr)
	r.ctx.JSON(appErr.HTTPStatus, errorBody(r.ctx, appErr))
}

// RespondInternalError writes a 500 for errors no AppError mapping covers.
func (r *ErrorResponder) RespondInternalError(err error) {
	r.RespondWithAppError(errors.ErrInternal("").Wrap(err))
}

// logError logs client errors at warn and server errors at error.
func logError(logger *slog.Logger, c *gin.Context, appErr *errors.AppError) {
	logLevel := slog.LevelError
	if appErr.HTTPStatus < http.StatusInternalServerError {
		logLevel = slog.LevelWarn
	}

	attrs := []any{
		"code", appErr.Code,
		"message", appErr.Message,
		"status", appErr.HTTPStatus,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"requestId", GetRequestID(c),
		"clientIP", c.ClientIP(),
	}

	if appErr.Err != nil {
		attrs = append(attrs, "error", appErr.Err.Error())
	}
	if appErr.Details != nil {
		attrs = append(attrs, "details", appErr.Details)
	}

	logger.Log(c.Request.Context(), logLevel, "API error", attrs...)
}

// AbortWithAppError stops the chain and writes the error response. Used by
// middleware that must reject a request before it reaches a handler.
func AbortWithAppError(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, errorBody(c, appErr))
}

// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers shared by every endpoint: the error
// envelope, fail() which logs 5xx with the request-scoped logger, the mapping
// from service errors to status codes, and the small success writers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wellness-chat-backend/internal/http/middleware"
	"github.com/tbourn/wellness-chat-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"conversation not found"`
}

// PersistenceErrorResponse is returned with 500 when a chat turn was produced
// but could not be stored. Reply is present for crisis turns so the guidance
// and hotline numbers still reach the user.
type PersistenceErrorResponse struct {
	ErrorResponse
	Reply *ChatResponse `json:"reply,omitempty"`
}

func errorBody(c *gin.Context, code, msg string) ErrorResponse {
	return ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}
}

// fail aborts the request with a structured error. Server errors are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, errorBody(c, code, msg))
}

// Fail is the exported variant of fail for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failService maps a service error onto the HTTP error envelope.
func failService(c *gin.Context, err error) {
	var perr *services.PersistenceError
	switch {
	case errors.As(err, &perr):
		// Logged by the service with tier and crisis context.
		resp := PersistenceErrorResponse{
			ErrorResponse: errorBody(c, ErrCodePersistenceFailed, "conversation could not be saved"),
		}
		if perr.Reply != nil && perr.Reply.Crisis {
			r := toChatResponse(perr.Reply)
			resp.Reply = &r
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
	case errors.Is(err, services.ErrNotDemoAccount):
		fail(c, http.StatusForbidden, ErrCodeNotDemoAccount, "only demo sessions can be ended")
	case errors.Is(err, services.ErrPrimaryUnavailable):
		c.Header("Retry-After", "30")
		fail(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "conversation history is temporarily unavailable")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

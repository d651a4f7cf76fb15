// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Every error response carries an HTTP status and one of
// these codes:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "persistence_failed",
//	  "message": "conversation could not be saved"
//	}
package handlers

const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotFound           = "not_found"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
	ErrCodeRateLimited        = "too_many_requests"
	ErrCodeInternal           = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"

	// Domain-specific:
	ErrCodeValidation        = "validation_failed"
	ErrCodePersistenceFailed = "persistence_failed"
	ErrCodeNotDemoAccount    = "not_demo_account"
)

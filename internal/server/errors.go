package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/invoicely/internal/auth/domain"
	authoauth "github.com/smallbiznis/invoicely/internal/auth/oauth"
	"github.com/smallbiznis/invoicely/internal/authorization"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/live"
	"github.com/smallbiznis/invoicely/internal/invoice/logo"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// classifyErrorForLog feeds the request logger: the payload type plus the
// sentinel code for client errors.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, payload.Type
	}
	return payload.Type, err.Error()
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if field, code, message, ok := validationError(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   field,
					Code:    code,
					Message: message,
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked),
		errors.Is(err, invoicedomain.ErrInvalidOwner),
		errors.Is(err, authoauth.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authdomain.ErrSignupDisabled):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, invoicedomain.ErrNotFullyPaid),
		errors.Is(err, pdf.ErrNotPaid):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, live.ErrHubUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}

	var invoiceErr *invoicedomain.ValidationError
	if errors.As(err, &invoiceErr) && invoiceErr != nil && len(invoiceErr.Fields) > 0 {
		out := &ValidationErrors{Errors: make([]ValidationError, 0, len(invoiceErr.Fields))}
		for _, f := range invoiceErr.Fields {
			out.Errors = append(out.Errors, ValidationError{Field: f.Field, Code: f.Code, Message: f.Message})
		}
		return out
	}
	return nil
}

// validationError maps single-field sentinels onto the validation payload.
func validationError(err error) (field, code, message string, ok bool) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authoauth.ErrInvalidRequest):
		return "request", "invalid_request", "invalid request", true
	case errors.Is(err, invoicedomain.ErrInvalidID):
		return "id", "invalid_id", "invalid invoice id", true
	case errors.Is(err, invoicedomain.ErrInvalidStatusFilter):
		return "status", "invalid_status_filter", "status must be All, Paid or Unpaid", true
	case errors.Is(err, invoicedomain.ErrInvalidSortOrder):
		return "sort", "invalid_sort_order", "unknown sort order", true
	case errors.Is(err, invoicedomain.ErrInvalidYear):
		return "year", "invalid_year", "invalid year", true
	case errors.Is(err, invoicedomain.ErrInvalidLogo):
		return "logo", "invalid_logo", "logo must be a PNG, JPEG or GIF image", true
	case errors.Is(err, logo.ErrTooLarge):
		return "logo", "logo_too_large", "logo exceeds the upload limit", true
	case errors.Is(err, authdomain.ErrInvalidEmail):
		return "email", "invalid_email", "invalid email", true
	case errors.Is(err, authdomain.ErrWeakPassword):
		return "password", "weak_password", "password is too short", true
	case errors.Is(err, authdomain.ErrInvalidIdentity):
		return "identity", "invalid_identity", "identity is incomplete", true
	default:
		return "", "", "", false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, authoauth.ErrProviderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, authdomain.ErrUserExists):
		return "user already exists"
	case errors.Is(err, invoicedomain.ErrNotFullyPaid),
		errors.Is(err, pdf.ErrNotPaid):
		return "invoice is not fully paid"
	default:
		return "conflict"
	}
}

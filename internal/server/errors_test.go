package server

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	authdomain "github.com/smallbiznis/invoicely/internal/auth/domain"
	authoauth "github.com/smallbiznis/invoicely/internal/auth/oauth"
	"github.com/smallbiznis/invoicely/internal/authorization"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/live"
	"github.com/smallbiznis/invoicely/internal/invoice/logo"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"invalid request", invalidRequestError(), http.StatusBadRequest, "validation_error"},
		{"bad status filter", invoicedomain.ErrInvalidStatusFilter, http.StatusBadRequest, "validation_error"},
		{"wrapped logo", fmt.Errorf("%w: bad magic", invoicedomain.ErrInvalidLogo), http.StatusBadRequest, "validation_error"},
		{"logo too large", logo.ErrTooLarge, http.StatusBadRequest, "validation_error"},
		{"weak password", authdomain.ErrWeakPassword, http.StatusBadRequest, "validation_error"},
		{"bad credentials", authdomain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"expired session", authdomain.ErrSessionExpired, http.StatusUnauthorized, "unauthorized"},
		{"oauth exchange", authoauth.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"denied", authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"signup off", authdomain.ErrSignupDisabled, http.StatusForbidden, "forbidden"},
		{"user exists", authdomain.ErrUserExists, http.StatusConflict, "conflict"},
		{"not paid", invoicedomain.ErrNotFullyPaid, http.StatusConflict, "conflict"},
		{"receipt unpaid", pdf.ErrNotPaid, http.StatusConflict, "conflict"},
		{"missing invoice", invoicedomain.ErrInvoiceNotFound, http.StatusNotFound, "not_found"},
		{"missing row", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"unknown provider", authoauth.ErrProviderNotFound, http.StatusNotFound, "not_found"},
		{"throttled", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"no hub", live.ErrHubUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.typ, payload.Type)
		})
	}
}

func TestMapErrorKeepsInvoiceFields(t *testing.T) {
	verr := &invoicedomain.ValidationError{}
	verr.Add("items[0].quantity", "invalid_number", "quantity must be a number")
	verr.Add("client.name", "required", "client name is required")

	status, payload := mapError(fmt.Errorf("create: %w", verr))

	require.Equal(t, http.StatusBadRequest, status)
	require.Len(t, payload.Errors, 2)
	assert.Equal(t, "items[0].quantity", payload.Errors[0].Field)
	assert.Equal(t, "required", payload.Errors[1].Code)
}

func TestClassifyErrorForLogHidesInternalDetail(t *testing.T) {
	typ, code := classifyErrorForLog(errors.New("dial tcp 10.0.0.1:5432"))
	assert.Equal(t, "internal_error", typ)
	assert.Equal(t, "internal_error", code)

	typ, code = classifyErrorForLog(invoicedomain.ErrInvoiceNotFound)
	assert.Equal(t, "not_found", typ)
	assert.Equal(t, "invoice_not_found", code)
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

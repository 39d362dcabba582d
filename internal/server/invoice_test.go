package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/authorization"
	"github.com/smallbiznis/invoicely/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func sampleInvoice(paid string) invoicedomain.Invoice {
	return invoicedomain.Invoice{
		ID:          7,
		UserID:      testUserID,
		CompanyName: "Acme",
		Client:      invoicedomain.Party{Name: "Jane"},
		Details: invoicedomain.Details{
			InvoiceNumber: "INV-001",
			InvoiceDate:   "2024-01-05",
			DueDate:       "2024-02-05",
		},
		Items: datatypes.NewJSONType([]invoicedomain.LineItem{{
			Description:     "Design",
			Quantity:        "2",
			Rate:            "100",
			DiscountPercent: "10",
			Vat:             "5",
		}}),
		// stale caches; responses must not echo them
		Total:      decimal.NewFromInt(1),
		BalanceDue: decimal.NewFromInt(1),
		Paid:       decimal.RequireFromString(paid),
		UpdatedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

type invoiceBody struct {
	Data struct {
		ID         string          `json:"id"`
		Total      decimal.Decimal `json:"total"`
		BalanceDue decimal.Decimal `json:"balance_due"`
		Status     string          `json:"status"`
		Summary    calc.Summary    `json:"summary"`
	} `json:"data"`
}

func TestGetInvoiceRecomputesFigures(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().Get(gomock.Any(), "7").Return(ptr(sampleInvoice("89")), nil)

	w := ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/invoices/7", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	var body invoiceBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, decimal.NewFromInt(189).Equal(body.Data.Total), body.Data.Total.String())
	assert.True(t, decimal.NewFromInt(100).Equal(body.Data.BalanceDue), body.Data.BalanceDue.String())
	assert.Equal(t, "Unpaid", body.Data.Status)
	assert.Equal(t, []string{"user:42"}, ts.authz.actors)
}

func TestGetInvoiceNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().Get(gomock.Any(), "999").Return(nil, invoicedomain.ErrInvoiceNotFound)

	w := ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/invoices/999", nil)))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvoiceRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/invoices", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestViewerCannotDelete(t *testing.T) {
	ts := newTestServer(t)
	ts.authz.denied[authorization.ActionInvoiceDelete] = true

	w := ts.do(authed(httptest.NewRequest(http.MethodDelete, "/api/invoices/7", nil)))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListInvoicesParsesQuery(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().List(gomock.Any(), invoicedomain.ListQuery{
		Status: invoicedomain.StatusFilterPaid,
		Search: "jane",
		Sort:   invoicedomain.SortDueDateDesc,
	}).Return([]invoicedomain.Invoice{sampleInvoice("189")}, nil)

	w := ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/invoices?status=paid&search=jane&sort=due_date_desc", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Paid"`)
}

func TestListInvoicesRejectsUnknownFilter(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/invoices?status=overdue", nil)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateInvoiceReturnsCreated(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
			assert.Equal(t, "Acme", req.CompanyName)
			require.Len(t, req.Items, 1)
			assert.Equal(t, calc.Value("2"), req.Items[0].Quantity)
			return ptr(sampleInvoice("0")), nil
		})

	w := ts.do(authed(jsonRequest(http.MethodPost, "/api/invoices",
		`{"company_name":"Acme","client":{"name":"Jane"},"invoice_details":{"invoice_number":"INV-001"},"items":[{"description":"Design","quantity":2,"rate":"100"}]}`)))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateInvoiceValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	verr := &invoicedomain.ValidationError{}
	verr.Add("company_name", "required", "company name is required")
	ts.invoices.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, verr)

	w := ts.do(authed(jsonRequest(http.MethodPost, "/api/invoices", `{}`)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"company_name"`)
}

func TestCreateInvoiceRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(authed(jsonRequest(http.MethodPost, "/api/invoices", `{"items":`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteInvoice(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().Delete(gomock.Any(), "7").Return(nil)

	w := ts.do(authed(httptest.NewRequest(http.MethodDelete, "/api/invoices/7", nil)))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMarkInvoicePaid(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().MarkPaid(gomock.Any(), "7").Return(ptr(sampleInvoice("189")), nil)

	w := ts.do(authed(httptest.NewRequest(http.MethodPost, "/api/invoices/7/paid", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Paid"`)
}

func TestCalculateInvoice(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().Calculate(gomock.Any()).Return(invoicedomain.CalculateResult{Status: invoicedomain.StatusUnpaid})

	w := ts.do(authed(jsonRequest(http.MethodPost, "/api/invoices/calculate", `{"items":[{"quantity":"1","rate":"5"}]}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Unpaid"`)
}

func TestGetOverviewRejectsBadYear(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/reports/overview?year=abc", nil)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.invoices.EXPECT().Overview(gomock.Any(), 2024).Return(invoicedomain.Overview{Year: 2024}, nil)
	w = ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/reports/overview?year=2024", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"year":2024`)
}

func TestExportInvoicePDF(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().Get(gomock.Any(), "7").Return(ptr(sampleInvoice("0")), nil)

	w := ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/invoices/7/pdf", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice-inv-001.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestExportReceiptRequiresSettledInvoice(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().Get(gomock.Any(), "7").Return(ptr(sampleInvoice("50")), nil)

	w := ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/invoices/7/receipt", nil)))
	assert.Equal(t, http.StatusConflict, w.Code)

	ts.invoices.EXPECT().Get(gomock.Any(), "7").Return(ptr(sampleInvoice("189")), nil)
	w = ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/invoices/7/receipt", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "receipt-inv-001.pdf")
}

func TestExportReceiptRejectsEmptyInvoice(t *testing.T) {
	ts := newTestServer(t)
	empty := sampleInvoice("0")
	empty.Items = datatypes.NewJSONType([]invoicedomain.LineItem{})
	require.Equal(t, invoicedomain.StatusPaid, empty.Status())
	ts.invoices.EXPECT().Get(gomock.Any(), "7").Return(&empty, nil)

	w := ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/invoices/7/receipt", nil)))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRenderInvoiceHTML(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().Get(gomock.Any(), "7").Return(ptr(sampleInvoice("0")), nil)

	w := ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/invoices/7/render", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "INV-001")
}

func TestUploadInvoiceLogoMultipart(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().SetLogo(gomock.Any(), "7", gomock.Any()).DoAndReturn(
		func(_ any, _ string, dataURL string) (*invoicedomain.Invoice, error) {
			assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
			inv := sampleInvoice("0")
			inv.Logo = dataURL
			return &inv, nil
		})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, err = part.Write(tinyPNG(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/invoices/7/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := ts.do(authed(req))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"logo":"data:image/png;base64,`)
}

func TestProcessLogoRejectsGarbage(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(authed(jsonRequest(http.MethodPost, "/api/logos", `{"logo":"data:image/png;base64,bm90IGFuIGltYWdl"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(authed(jsonRequest(http.MethodPost, "/api/logos", `{"logo":""}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServiceFailureIsInternal(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.EXPECT().Get(gomock.Any(), "7").Return(nil, errors.New("connection reset"))

	w := ts.do(authed(httptest.NewRequest(http.MethodGet, "/api/invoices/7", nil)))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func ptr[T any](v T) *T {
	return &v
}

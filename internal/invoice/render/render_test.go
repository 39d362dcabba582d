package render

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/invoice/calc"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func sampleInvoice() domain.Invoice {
	return domain.Invoice{
		CompanyName: "Acme <Co>",
		City:        "Dubai",
		Client:      domain.Party{Company: "Globex", Name: "Hank"},
		Details: domain.Details{
			InvoiceNumber: "INV-001",
			InvoiceDate:   "2024-01-05",
			DueDate:       "2024-02-05T00:00:00Z",
		},
		Items: datatypes.NewJSONType([]domain.LineItem{
			{Description: "Design", Quantity: calc.Value("2"), Rate: calc.Value("100"), DiscountPercent: calc.Value("10"), Vat: calc.Value("5")},
			{},
		}),
		Paid: decimal.NewFromInt(89),
	}
}

func TestNewDocumentRecomputesFigures(t *testing.T) {
	doc := NewDocument(sampleInvoice(), config.InvoicingConfig{Currency: "AED", PDF: config.PDFConfig{Footer: "Thanks"}})

	require.Len(t, doc.Rows, 1, "blank rows are dropped")
	assert.Equal(t, "189.00", doc.Rows[0].Total)
	assert.Equal(t, "100.00", doc.Rows[0].Rate)
	assert.Equal(t, "AED 189.00", doc.Total)
	assert.Equal(t, "AED 100.00", doc.BalanceDue)
	assert.Equal(t, "2024-02-05", doc.DueDate)
	assert.Equal(t, "Dubai", doc.CityState)
	assert.Equal(t, domain.StatusUnpaid, doc.Status)
	assert.Equal(t, "Thanks", doc.Footer)
}

func TestNewDocumentIgnoresForeignLogo(t *testing.T) {
	inv := sampleInvoice()
	inv.Logo = "javascript:alert(1)"
	assert.Empty(t, NewDocument(inv, config.InvoicingConfig{}).Logo)

	inv.Logo = "data:image/png;base64,AAAA"
	assert.Equal(t, "data:image/png;base64,AAAA", string(NewDocument(inv, config.InvoicingConfig{}).Logo))
}

func TestRenderHTMLEscapesInput(t *testing.T) {
	out, err := NewRenderer().RenderHTML(NewDocument(sampleInvoice(), config.DefaultInvoicingConfig()))
	require.NoError(t, err)

	assert.Contains(t, out, "INV-001")
	assert.Contains(t, out, "Acme &lt;Co&gt;")
	assert.Contains(t, out, "Balance Due")
	assert.False(t, strings.Contains(out, "Acme <Co>"))
}

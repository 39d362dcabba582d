package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/invoice/calc"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func testDocument(paid int64, logo string) render.Document {
	inv := domain.Invoice{
		CompanyName: "Acme",
		Client:      domain.Party{Company: "Globex", Name: "Hank"},
		Details: domain.Details{
			InvoiceNumber: "INV 2024/001",
			InvoiceDate:   "2024-01-05",
			DueDate:       "2024-02-05",
		},
		Items: datatypes.NewJSONType([]domain.LineItem{
			{Description: "Design", Quantity: calc.Value("2"), Rate: calc.Value("50")},
		}),
		Paid: decimal.NewFromInt(paid),
		Logo: logo,
	}
	return render.NewDocument(inv, config.DefaultInvoicingConfig())
}

func logoDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return out
}

func TestGenerateInvoice(t *testing.T) {
	p := New(zap.NewNop())

	r, err := p.GenerateInvoice(context.Background(), testDocument(0, logoDataURL(t)))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(readAll(t, r), []byte("%PDF")))
}

func TestGenerateInvoiceSkipsBrokenLogo(t *testing.T) {
	p := New(zap.NewNop())

	r, err := p.GenerateInvoice(context.Background(), testDocument(0, "data:image/png;base64,!!!"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(readAll(t, r), []byte("%PDF")))
}

func TestGenerateReceipt(t *testing.T) {
	p := New(zap.NewNop())

	_, err := p.GenerateReceipt(context.Background(), testDocument(40, ""), "2024-02-01")
	assert.ErrorIs(t, err, ErrNotPaid)

	r, err := p.GenerateReceipt(context.Background(), testDocument(100, ""), "2024-02-01")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(readAll(t, r), []byte("%PDF")))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "invoice-inv-2024-001.pdf", Filename("invoice", "INV 2024/001"))
	assert.Equal(t, "receipt-draft.pdf", Filename("receipt", "  "))
}

package pdf

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/invoicely/internal/invoice/render"
	"go.uber.org/fx"
)

var Module = fx.Module("pdf",
	fx.Provide(New),
)

var ErrNotPaid = errors.New("receipt_requires_paid_invoice")

// Provider turns a display document into PDF bytes.
type Provider interface {
	GenerateInvoice(ctx context.Context, doc render.Document) (io.Reader, error)
	GenerateReceipt(ctx context.Context, doc render.Document, datePaid string) (io.Reader, error)
}

// Filename builds a download name such as "invoice-inv-2024-001.pdf".
func Filename(kind, number string) string {
	name := slug.Make(strings.TrimSpace(number))
	if name == "" {
		name = "draft"
	}
	return kind + "-" + name + ".pdf"
}

package pdf

import (
	"context"
	"io"

	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/render"
)

// GenerateReceipt renders proof of payment for a settled invoice.
func (p *PDFProvider) GenerateReceipt(ctx context.Context, doc render.Document, datePaid string) (io.Reader, error) {
	if doc.Status != domain.StatusPaid {
		return nil, ErrNotPaid
	}

	m := p.newDocument()

	p.addTitle(m, "RECEIPT", doc)
	addParties(m, doc)
	addMeta(m,
		"Receipt for invoice: "+doc.Number,
		"Invoice date: "+doc.InvoiceDate,
		"Date paid: "+datePaid,
	)
	addItems(m, doc)

	addTotal(m, "Total", doc.Total, false)
	addTotal(m, "Amount paid", doc.Paid, true)
	addTotal(m, "Balance Due", doc.BalanceDue, false)
	addFooter(m, doc.Footer)

	return generate(m)
}

package render

import (
	"html/template"
	"strings"

	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/invoice/calc"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/format"
)

const logoDataURLPrefix = "data:image/png;base64,"

// Document is the display form of an invoice shared by the print view and
// the PDF exports. Every figure is recomputed from the line items.
type Document struct {
	Number      string
	InvoiceDate string
	DueDate     string

	CompanyName string
	YourName    string
	TRN         string
	Address     string
	CityState   string

	Client         domain.Party
	ClientCityLine string

	Rows []Row

	SubTotal      string
	TotalDiscount string
	TotalVat      string
	Total         string
	Paid          string
	BalanceDue    string
	Status        domain.Status

	Currency string
	Footer   string
	Logo     template.URL
}

type Row struct {
	Description string
	Quantity    string
	Rate        string
	Discount    string
	Vat         string
	Total       string
}

func NewDocument(inv domain.Invoice, cfg config.InvoicingConfig) Document {
	summary := inv.Summary()
	settlement := inv.Settlement()
	currency := strings.TrimSpace(cfg.Currency)

	doc := Document{
		Number:         strings.TrimSpace(inv.Details.InvoiceNumber),
		InvoiceDate:    format.DisplayDate(inv.Details.InvoiceDate),
		DueDate:        format.DisplayDate(inv.Details.DueDate),
		CompanyName:    inv.CompanyName,
		YourName:       inv.YourName,
		TRN:            inv.TRN,
		Address:        inv.Address,
		CityState:      joinNonEmpty(", ", inv.City, inv.State),
		Client:         inv.Client,
		ClientCityLine: joinNonEmpty(", ", inv.Client.City, inv.Client.State),
		SubTotal:       format.MoneyWithCurrency(currency, summary.SubTotal),
		TotalDiscount:  format.MoneyWithCurrency(currency, summary.TotalDiscount),
		TotalVat:       format.MoneyWithCurrency(currency, summary.TotalVat),
		Total:          format.MoneyWithCurrency(currency, settlement.Total),
		Paid:           format.MoneyWithCurrency(currency, settlement.Paid),
		BalanceDue:     format.MoneyWithCurrency(currency, settlement.BalanceDue),
		Status:         inv.Status(),
		Currency:       currency,
		Footer:         strings.TrimSpace(cfg.PDF.Footer),
	}

	// only logos produced by the logo processor are trusted as image sources
	if strings.HasPrefix(inv.Logo, logoDataURLPrefix) {
		doc.Logo = template.URL(inv.Logo)
	}

	for _, item := range domain.CompactItems(inv.LineItems()) {
		line := item.Line()
		doc.Rows = append(doc.Rows, Row{
			Description: strings.TrimSpace(item.Description),
			Quantity:    line.Quantity.String(),
			Rate:        format.Money(line.Rate),
			Discount:    format.Percent(line.DiscountPercent),
			Vat:         format.Percent(line.Vat),
			Total:       format.Money(calc.Compute(line).Total),
		})
	}
	return doc
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

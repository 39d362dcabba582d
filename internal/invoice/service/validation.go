package service

import (
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	invoiceformat "github.com/smallbiznis/invoicely/internal/invoice/format"
)

func validateInvoice(inv invoicedomain.Invoice) error {
	verr := &invoicedomain.ValidationError{}

	required := []struct {
		field string
		value string
	}{
		{"company_name", inv.CompanyName},
		{"client.company", inv.Client.Company},
		{"client.name", inv.Client.Name},
		{"invoice_details.invoice_number", inv.Details.InvoiceNumber},
		{"invoice_details.invoice_date", inv.Details.InvoiceDate},
		{"invoice_details.due_date", inv.Details.DueDate},
	}
	for _, r := range required {
		if r.value == "" {
			verr.Add(r.field, "required", r.field+" is required")
		}
	}

	dates := []struct {
		field string
		value string
	}{
		{"invoice_details.invoice_date", inv.Details.InvoiceDate},
		{"invoice_details.due_date", inv.Details.DueDate},
	}
	for _, d := range dates {
		if d.value == "" {
			continue
		}
		if _, ok := invoiceformat.ParseDate(d.value); !ok {
			verr.Add(d.field, "invalid_date", d.field+" must be a date (YYYY-MM-DD)")
		}
	}

	return verr.Err()
}

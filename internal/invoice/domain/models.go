// Package domain contains persistence models for invoicing.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/invoice/calc"
	"gorm.io/datatypes"
)

// Status is derived from the recomputed balance, never stored.
type Status string

const (
	StatusPaid     Status = "Paid"
	StatusUnpaid   Status = "Unpaid"
	StatusOverpaid Status = "Overpaid"
)

// Party describes the billed client.
type Party struct {
	Company string `json:"company" gorm:"type:text"`
	Name    string `json:"name" gorm:"type:text"`
	TRN     string `json:"trn" gorm:"type:text"`
	Address string `json:"address" gorm:"type:text"`
	City    string `json:"city" gorm:"type:text"`
	State   string `json:"state" gorm:"type:text"`
}

// Details holds the invoice number and its dates as entered.
type Details struct {
	InvoiceNumber string `json:"invoice_number" gorm:"type:text;index"`
	InvoiceDate   string `json:"invoice_date" gorm:"type:text"`
	DueDate       string `json:"due_date" gorm:"type:text"`
}

// LineItem is one row of the invoice table.
type LineItem struct {
	Description     string     `json:"description"`
	Quantity        calc.Value `json:"quantity"`
	Rate            calc.Value `json:"rate"`
	DiscountPercent calc.Value `json:"discount_percent"`
	Vat             calc.Value `json:"vat"`
}

func (i LineItem) IsBlank() bool {
	return strings.TrimSpace(i.Description) == "" &&
		i.Quantity.IsBlank() &&
		i.Rate.IsBlank() &&
		i.DiscountPercent.IsBlank() &&
		i.Vat.IsBlank()
}

func (i LineItem) Line() calc.Line {
	return calc.Line{
		Quantity:        i.Quantity.Decimal(),
		Rate:            i.Rate.Decimal(),
		DiscountPercent: i.DiscountPercent.Decimal(),
		Vat:             i.Vat.Decimal(),
	}
}

// Invoice is one bill owned by a single user. Total and BalanceDue are
// caches written on save; readers recompute them from Items and Paid.
type Invoice struct {
	ID          snowflake.ID                   `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID                   `gorm:"not null;index" json:"user_id"`
	CompanyName string                         `gorm:"type:text;not null" json:"company_name"`
	YourName    string                         `gorm:"type:text" json:"your_name"`
	TRN         string                         `gorm:"type:text" json:"trn"`
	Address     string                         `gorm:"type:text" json:"address"`
	City        string                         `gorm:"type:text" json:"city"`
	State       string                         `gorm:"type:text" json:"state"`
	Client      Party                          `gorm:"embedded;embeddedPrefix:client_" json:"client"`
	Details     Details                        `gorm:"embedded" json:"invoice_details"`
	Items       datatypes.JSONType[[]LineItem] `gorm:"not null" json:"items"`
	Total       decimal.Decimal                `gorm:"type:numeric(18,4);not null;default:0" json:"total"`
	Paid        decimal.Decimal                `gorm:"type:numeric(18,4);not null;default:0" json:"paid"`
	BalanceDue  decimal.Decimal                `gorm:"type:numeric(18,4);not null;default:0" json:"balance_due"`
	Logo        string                         `gorm:"type:text" json:"logo,omitempty"`
	CreatedAt   time.Time                      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time                      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

func (inv Invoice) LineItems() []LineItem {
	return inv.Items.Data()
}

// Lines returns the calculator inputs for every non-blank row.
func (inv Invoice) Lines() []calc.Line {
	items := inv.LineItems()
	lines := make([]calc.Line, 0, len(items))
	for _, item := range items {
		if item.IsBlank() {
			continue
		}
		lines = append(lines, item.Line())
	}
	return lines
}

func (inv Invoice) Summary() calc.Summary {
	return calc.Summarize(inv.Lines())
}

// Settlement recomputes total and balance from the line items and Paid.
func (inv Invoice) Settlement() calc.Settlement {
	return calc.Settle(inv.Summary().Total, inv.Paid)
}

func (inv Invoice) Status() Status {
	s := inv.Settlement()
	switch {
	case s.FullyPaid():
		return StatusPaid
	case s.Outstanding():
		return StatusUnpaid
	default:
		return StatusOverpaid
	}
}

// Recompute refreshes the cached Total and BalanceDue.
func (inv *Invoice) Recompute() {
	s := inv.Settlement()
	inv.Total = s.Total
	inv.BalanceDue = s.BalanceDue
}

// Listable reports whether the record has the fields list views need.
func (inv Invoice) Listable() bool {
	return strings.TrimSpace(inv.Details.InvoiceNumber) != "" && strings.TrimSpace(inv.Client.Name) != ""
}

// CompactItems drops blank rows.
func CompactItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.IsBlank() {
			continue
		}
		out = append(out, item)
	}
	return out
}

// BlankItems returns n empty rows for a new form.
func BlankItems(n int) []LineItem {
	if n < 0 {
		n = 0
	}
	return make([]LineItem, n)
}

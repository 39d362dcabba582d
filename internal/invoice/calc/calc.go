// Package calc computes invoice line and summary figures with exact decimal
// arithmetic. Nothing here rounds; rounding belongs to display code.
package calc

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Line holds the numeric inputs of one line item.
type Line struct {
	Quantity        decimal.Decimal
	Rate            decimal.Decimal
	DiscountPercent decimal.Decimal
	Vat             decimal.Decimal
}

type LineResult struct {
	Gross    decimal.Decimal `json:"gross"`
	Discount decimal.Decimal `json:"discount"`
	Amount   decimal.Decimal `json:"amount"`
	Vat      decimal.Decimal `json:"vat"`
	Total    decimal.Decimal `json:"total"`
}

// Compute returns amount = q*r - q*r*d/100 and total = amount + amount*v/100.
func Compute(l Line) LineResult {
	gross := l.Quantity.Mul(l.Rate)
	discount := gross.Mul(l.DiscountPercent).Div(hundred)
	amount := gross.Sub(discount)
	vat := amount.Mul(l.Vat).Div(hundred)
	return LineResult{
		Gross:    gross,
		Discount: discount,
		Amount:   amount,
		Vat:      vat,
		Total:    amount.Add(vat),
	}
}

type Summary struct {
	SubTotal      decimal.Decimal `json:"sub_total"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalVat      decimal.Decimal `json:"total_vat"`
	Total         decimal.Decimal `json:"total"`
}

// Summarize folds line results. SubTotal already has discounts subtracted.
func Summarize(lines []Line) Summary {
	var s Summary
	for _, l := range lines {
		r := Compute(l)
		s.SubTotal = s.SubTotal.Add(r.Amount)
		s.TotalDiscount = s.TotalDiscount.Add(r.Discount)
		s.TotalVat = s.TotalVat.Add(r.Vat)
	}
	s.Total = s.SubTotal.Add(s.TotalVat)
	return s
}

type Settlement struct {
	Total      decimal.Decimal `json:"total"`
	Paid       decimal.Decimal `json:"paid"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

func Settle(total, paid decimal.Decimal) Settlement {
	return Settlement{
		Total:      total,
		Paid:       paid,
		BalanceDue: total.Sub(paid),
	}
}

// FullyPaid reports a balance of exactly zero.
func (s Settlement) FullyPaid() bool {
	return s.BalanceDue.IsZero()
}

// Outstanding reports a positive balance.
func (s Settlement) Outstanding() bool {
	return s.BalanceDue.IsPositive()
}

// Reprice recomputes the settlement after the total changed. A settlement
// that was fully paid stays fully paid unless the caller supplies paid.
func Reprice(prev Settlement, newTotal decimal.Decimal, paid *decimal.Decimal) Settlement {
	switch {
	case paid != nil:
		return Settle(newTotal, *paid)
	case prev.FullyPaid():
		return Settle(newTotal, newTotal)
	default:
		return Settle(newTotal, prev.Paid)
	}
}

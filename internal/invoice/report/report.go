// Package report aggregates an owner's invoices for the home page.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/format"
)

// Monthly sums recomputed totals by due-date month for year. Index 0 is
// January. Invoices without a parseable due date are skipped.
func Monthly(invoices []domain.Invoice, year int) [12]decimal.Decimal {
	var months [12]decimal.Decimal
	for i := range months {
		months[i] = decimal.Zero
	}
	for _, inv := range invoices {
		due, ok := format.ParseDate(inv.Details.DueDate)
		if !ok || due.Year() != year {
			continue
		}
		m := int(due.Month()) - 1
		months[m] = months[m].Add(inv.Summary().Total)
	}
	return months
}

// Years lists the distinct due-date years plus the current year, newest first.
func Years(invoices []domain.Invoice, now time.Time) []int {
	seen := map[int]struct{}{now.Year(): {}}
	for _, inv := range invoices {
		due, ok := format.ParseDate(inv.Details.DueDate)
		if !ok {
			continue
		}
		seen[due.Year()] = struct{}{}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// Build computes the overview for year. A zero year selects the current one.
func Build(invoices []domain.Invoice, year int, now time.Time) domain.Overview {
	if year == 0 {
		year = now.Year()
	}

	overview := domain.Overview{
		Year:          year,
		Years:         Years(invoices, now),
		TotalInvoices: len(invoices),
		TotalRevenue:  decimal.Zero,
		TotalPaid:     decimal.Zero,
		TotalUnpaid:   decimal.Zero,
	}
	for _, inv := range invoices {
		s := inv.Settlement()
		overview.TotalRevenue = overview.TotalRevenue.Add(s.Total)
		overview.TotalPaid = overview.TotalPaid.Add(s.Total.Sub(s.BalanceDue))
		overview.TotalUnpaid = overview.TotalUnpaid.Add(s.BalanceDue)
	}

	months := Monthly(invoices, year)
	overview.Monthly = months[:]
	return overview
}

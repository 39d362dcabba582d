// Package listing filters and orders an owner's invoices for list views.
package listing

import (
	"sort"
	"strings"
	"time"

	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/format"
)

// Apply returns the listable invoices matching q in the requested order.
// The input slice is not modified.
func Apply(invoices []domain.Invoice, q domain.ListQuery) []domain.Invoice {
	out := make([]domain.Invoice, 0, len(invoices))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, inv := range invoices {
		if !inv.Listable() {
			continue
		}
		if !matchesStatus(inv, q.Status) {
			continue
		}
		if !matchesSearch(inv, search) {
			continue
		}
		out = append(out, inv)
	}
	Sort(out, q.Sort)
	return out
}

func matchesStatus(inv domain.Invoice, status domain.StatusFilter) bool {
	switch status {
	case domain.StatusFilterPaid:
		return inv.Settlement().FullyPaid()
	case domain.StatusFilterUnpaid:
		return inv.Settlement().Outstanding()
	default:
		return true
	}
}

func matchesSearch(inv domain.Invoice, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(inv.Client.Name), search) ||
		strings.Contains(strings.ToLower(inv.Details.InvoiceNumber), search)
}

// Sort orders invoices in place. Ties keep their input order and invoices
// with an unparseable due date go last in both directions.
func Sort(invoices []domain.Invoice, order domain.SortOrder) {
	switch order {
	case domain.SortDueDateAsc:
		sortByDueDate(invoices, false)
	case domain.SortDueDateDesc:
		sortByDueDate(invoices, true)
	case domain.SortClientNameAsc:
		sort.SliceStable(invoices, func(i, j int) bool {
			return invoices[i].Client.Name < invoices[j].Client.Name
		})
	case domain.SortClientNameDesc:
		sort.SliceStable(invoices, func(i, j int) bool {
			return invoices[i].Client.Name > invoices[j].Client.Name
		})
	}
}

func sortByDueDate(invoices []domain.Invoice, desc bool) {
	type key struct {
		at    time.Time
		valid bool
	}
	keys := make(map[int]key, len(invoices))
	idx := make([]int, len(invoices))
	for i := range invoices {
		idx[i] = i
		at, ok := format.ParseDate(invoices[i].Details.DueDate)
		keys[i] = key{at: at, valid: ok}
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.valid != kb.valid {
			return ka.valid
		}
		if !ka.valid {
			return false
		}
		if desc {
			return ka.at.After(kb.at)
		}
		return ka.at.Before(kb.at)
	})

	sorted := make([]domain.Invoice, len(invoices))
	for i, j := range idx {
		sorted[i] = invoices[j]
	}
	copy(invoices, sorted)
}

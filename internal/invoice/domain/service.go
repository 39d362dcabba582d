package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/invoice/calc"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	Draft(ctx context.Context) (*Invoice, error)
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	Get(ctx context.Context, id string) (*Invoice, error)
	Update(ctx context.Context, id string, req UpdateInvoiceRequest) (*Invoice, error)
	Delete(ctx context.Context, id string) error
	MarkPaid(ctx context.Context, id string) (*Invoice, error)
	MarkUnpaid(ctx context.Context, id string) (*Invoice, error)
	SetLogo(ctx context.Context, id string, dataURL string) (*Invoice, error)
	List(ctx context.Context, query ListQuery) ([]Invoice, error)
	Snapshot(ctx context.Context) ([]Invoice, error)
	Overview(ctx context.Context, year int) (Overview, error)
	Calculate(req CalculateRequest) CalculateResult
}

type CreateInvoiceRequest struct {
	CompanyName    string     `json:"company_name"`
	YourName       string     `json:"your_name"`
	TRN            string     `json:"trn"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Client         Party      `json:"client"`
	InvoiceDetails Details    `json:"invoice_details"`
	Items          []LineItem `json:"items"`
	Paid           calc.Value `json:"paid"`
	Logo           string     `json:"logo"`
}

// UpdateInvoiceRequest merges only the fields that are set. Nested objects
// replace their stored counterpart as a whole.
type UpdateInvoiceRequest struct {
	CompanyName    *string     `json:"company_name"`
	YourName       *string     `json:"your_name"`
	TRN            *string     `json:"trn"`
	Address        *string     `json:"address"`
	City           *string     `json:"city"`
	State          *string     `json:"state"`
	Client         *Party      `json:"client"`
	InvoiceDetails *Details    `json:"invoice_details"`
	Items          *[]LineItem `json:"items"`
	Paid           *calc.Value `json:"paid"`
	Logo           *string     `json:"logo"`
}

type CalculateRequest struct {
	Items []LineItem `json:"items"`
	Paid  calc.Value `json:"paid"`
	// WasFullyPaid carries the form's settled state so edits keep it settled.
	WasFullyPaid bool `json:"was_fully_paid"`
}

type CalculateResult struct {
	Lines      []calc.LineResult `json:"lines"`
	Summary    calc.Summary      `json:"summary"`
	Paid       decimal.Decimal   `json:"paid"`
	BalanceDue decimal.Decimal   `json:"balance_due"`
	Status     Status            `json:"status"`
}

// StatusFilter selects invoices by recomputed balance.
type StatusFilter string

const (
	StatusFilterAll    StatusFilter = "All"
	StatusFilterPaid   StatusFilter = "Paid"
	StatusFilterUnpaid StatusFilter = "Unpaid"
)

// SortOrder names the list orderings offered to the user.
type SortOrder string

const (
	SortNone           SortOrder = ""
	SortDueDateAsc     SortOrder = "Due Date Asc"
	SortDueDateDesc    SortOrder = "Due Date Desc"
	SortClientNameAsc  SortOrder = "Client Name Asc"
	SortClientNameDesc SortOrder = "Client Name Desc"
)

type ListQuery struct {
	Status StatusFilter
	Search string
	Sort   SortOrder
}

func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return StatusFilterAll, nil
	case "paid":
		return StatusFilterPaid, nil
	case "unpaid":
		return StatusFilterUnpaid, nil
	default:
		return "", ErrInvalidStatusFilter
	}
}

func ParseSortOrder(raw string) (SortOrder, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(raw)), " "))
	switch normalized {
	case "":
		return SortNone, nil
	case "due date asc":
		return SortDueDateAsc, nil
	case "due date desc":
		return SortDueDateDesc, nil
	case "client name asc":
		return SortClientNameAsc, nil
	case "client name desc":
		return SortClientNameDesc, nil
	default:
		return "", ErrInvalidSortOrder
	}
}

// Overview holds the home page figures for one user.
type Overview struct {
	Year          int               `json:"year"`
	Years         []int             `json:"years"`
	TotalInvoices int               `json:"total_invoices"`
	TotalRevenue  decimal.Decimal   `json:"total_revenue"`
	TotalPaid     decimal.Decimal   `json:"total_paid"`
	TotalUnpaid   decimal.Decimal   `json:"total_unpaid"`
	Monthly       []decimal.Decimal `json:"monthly"`
}

var (
	ErrInvalidOwner        = errors.New("invalid_owner")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrInvalidStatusFilter = errors.New("invalid_status_filter")
	ErrInvalidSortOrder    = errors.New("invalid_sort_order")
	ErrInvalidYear         = errors.New("invalid_year")
	ErrInvalidLogo         = errors.New("invalid_logo")
	ErrNotFullyPaid        = errors.New("invoice_not_fully_paid")
)

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a write.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "invalid_invoice"
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid_invoice: " + strings.Join(names, ", ")
}

func (e *ValidationError) Add(field, code, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Message: message})
}

// Err returns nil when no field was rejected.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

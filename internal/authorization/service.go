package authorization

import "context"

const (
	RoleMember = "member"
	RoleViewer = "viewer"
)

const (
	ObjectInvoice = "invoice"
	ObjectReport  = "report"
)

const (
	ActionInvoiceView   = "invoice.view"
	ActionInvoiceCreate = "invoice.create"
	ActionInvoiceUpdate = "invoice.update"
	ActionInvoiceDelete = "invoice.delete"
	ActionInvoiceSettle = "invoice.settle"
	ActionInvoiceExport = "invoice.export"

	ActionReportView = "report.view"
)

// Service decides whether an actor ("user:<id>") may perform action on object.
type Service interface {
	Authorize(ctx context.Context, actor string, object string, action string) error
}

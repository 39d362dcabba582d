package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
)

// invoiceView is the wire form of an invoice: the stored record with every
// figure recomputed from its line items.
type invoiceView struct {
	invoicedomain.Invoice
	Summary    calc.Summary         `json:"summary"`
	Total      decimal.Decimal      `json:"total"`
	BalanceDue decimal.Decimal      `json:"balance_due"`
	Status     invoicedomain.Status `json:"status"`
}

func newInvoiceView(inv invoicedomain.Invoice) invoiceView {
	settlement := inv.Settlement()
	return invoiceView{
		Invoice:    inv,
		Summary:    inv.Summary(),
		Total:      settlement.Total,
		BalanceDue: settlement.BalanceDue,
		Status:     inv.Status(),
	}
}

func newInvoiceViews(invoices []invoicedomain.Invoice) []invoiceView {
	views := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, newInvoiceView(inv))
	}
	return views
}

func (s *Server) ListInvoices(c *gin.Context) {
	query, err := parseListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newInvoiceViews(invoices)})
}

// NewInvoice returns an unsaved draft with the next invoice number.
func (s *Server) NewInvoice(c *gin.Context) {
	draft, err := s.invoiceSvc.Draft(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newInvoiceView(*draft)})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newInvoiceView(*created)})
}

func (s *Server) CalculateInvoice(c *gin.Context) {
	var req invoicedomain.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.invoiceSvc.Calculate(req)})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	item, err := s.invoiceSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newInvoiceView(*item)})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req invoicedomain.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.invoiceSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newInvoiceView(*updated)})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	updated, err := s.invoiceSvc.MarkPaid(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newInvoiceView(*updated)})
}

func (s *Server) MarkInvoiceUnpaid(c *gin.Context) {
	updated, err := s.invoiceSvc.MarkUnpaid(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newInvoiceView(*updated)})
}

package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/render"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
)

const dateOnlyLayout = "2006-01-02"

func (s *Server) ExportInvoicePDF(c *gin.Context) {
	inv, doc, ok := s.loadDocument(c)
	if !ok {
		return
	}

	out, err := s.pdf.GenerateInvoice(c.Request.Context(), doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordDocument(c.Request.Context(), "pdf")
	s.sendPDF(c, pdf.Filename("invoice", inv.Details.InvoiceNumber), out)
}

// ExportReceiptPDF only serves invoices with a positive total whose balance
// is settled.
func (s *Server) ExportReceiptPDF(c *gin.Context) {
	inv, doc, ok := s.loadDocument(c)
	if !ok {
		return
	}
	if inv.Status() != invoicedomain.StatusPaid || !inv.Summary().Total.IsPositive() {
		AbortWithError(c, invoicedomain.ErrNotFullyPaid)
		return
	}

	out, err := s.pdf.GenerateReceipt(c.Request.Context(), doc, inv.UpdatedAt.UTC().Format(dateOnlyLayout))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordDocument(c.Request.Context(), "receipt")
	s.sendPDF(c, pdf.Filename("receipt", inv.Details.InvoiceNumber), out)
}

func (s *Server) RenderInvoice(c *gin.Context) {
	_, doc, ok := s.loadDocument(c)
	if !ok {
		return
	}

	html, err := s.renderer.RenderHTML(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordDocument(c.Request.Context(), "html")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) loadDocument(c *gin.Context) (*invoicedomain.Invoice, render.Document, bool) {
	inv, err := s.invoiceSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return nil, render.Document{}, false
	}
	return inv, render.NewDocument(*inv, s.invoicing.Get()), true
}

func (s *Server) sendPDF(c *gin.Context, filename string, out io.Reader) {
	body, err := io.ReadAll(out)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", body)
}

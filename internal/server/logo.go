package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
)

type logoRequest struct {
	Logo string `json:"logo"`
}

// UploadInvoiceLogo accepts a multipart "file" or a JSON data URL. An empty
// JSON logo clears the stored one.
func (s *Server) UploadInvoiceLogo(c *gin.Context) {
	dataURL, err := s.readLogo(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	updated, err := s.invoiceSvc.SetLogo(c.Request.Context(), strings.TrimSpace(c.Param("id")), dataURL)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newInvoiceView(*updated)})
}

// ProcessLogo normalizes an upload for an invoice that is not saved yet.
func (s *Server) ProcessLogo(c *gin.Context) {
	dataURL, err := s.readLogo(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if dataURL == "" {
		AbortWithError(c, invoicedomain.ErrInvalidLogo)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"logo": dataURL}})
}

func (s *Server) readLogo(c *gin.Context) (string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return "", newValidationError("file", "required", "file is required")
			}
			return "", invalidRequestError()
		}
		f, err := header.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		return s.logos.Process(f)
	}

	var req logoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", invalidRequestError()
	}
	return s.logos.ProcessDataURL(req.Logo)
}

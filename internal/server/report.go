package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetOverview serves the home page figures for ?year= (default: this year).
func (s *Server) GetOverview(c *gin.Context) {
	year, err := parseYear(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	overview, err := s.invoiceSvc.Overview(c.Request.Context(), year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": overview})
}

package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
)

func parseOptionalInt(value string) (*int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseListQuery reads status, search and sort from the query string.
func parseListQuery(c *gin.Context) (invoicedomain.ListQuery, error) {
	status, err := invoicedomain.ParseStatusFilter(c.Query("status"))
	if err != nil {
		return invoicedomain.ListQuery{}, err
	}
	sort, err := invoicedomain.ParseSortOrder(c.Query("sort"))
	if err != nil {
		return invoicedomain.ListQuery{}, err
	}
	return invoicedomain.ListQuery{
		Status: status,
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   sort,
	}, nil
}

// parseYear returns 0 when the year is absent so the service picks the
// current one.
func parseYear(c *gin.Context) (int, error) {
	year, err := parseOptionalInt(c.Query("year"))
	if err != nil {
		return 0, invoicedomain.ErrInvalidYear
	}
	if year == nil {
		return 0, nil
	}
	if *year <= 0 {
		return 0, invoicedomain.ErrInvalidYear
	}
	return *year, nil
}

package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceNumber(t *testing.T) {
	issued := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		template string
		seq      int64
		want     string
	}{
		{DefaultInvoiceNumberTemplate, 12, "INV-20240307-0012"},
		{"ACME-{YY}/{SEQ}", 5, "ACME-24/5"},
		{"{YYYY}-{MM}-{DD}-{SEQ6}", 1, "2024-03-07-000001"},
	}
	for _, tc := range cases {
		got, err := InvoiceNumber(tc.template, issued, tc.seq)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestInvoiceNumberErrors(t *testing.T) {
	issued := time.Now()

	_, err := InvoiceNumber("", issued, 1)
	assert.Error(t, err)

	_, err = InvoiceNumber("INV-{SEQ}", issued, 0)
	assert.Error(t, err)

	_, err = InvoiceNumber("INV-{CLIENT}", issued, 1)
	assert.Error(t, err)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "189.00", Money(decimal.NewFromInt(189)))
	assert.Equal(t, "0.13", Money(decimal.RequireFromString("0.125")))
	assert.Equal(t, "-0.13", Money(decimal.RequireFromString("-0.125")))
	assert.Equal(t, "AED 10.50", MoneyWithCurrency("AED", decimal.RequireFromString("10.5")))
	assert.Equal(t, "10.50", MoneyWithCurrency(" ", decimal.RequireFromString("10.5")))
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-01-15")
	require.True(t, ok)
	assert.Equal(t, time.January, got.Month())

	got, ok = ParseDate("2024-03-01T10:00:00Z")
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())

	_, ok = ParseDate("not a date")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)

	assert.Equal(t, "2024-03-01", DisplayDate("2024-03-01T10:00:00Z"))
	assert.Equal(t, "soon", DisplayDate("soon"))
}

package calc

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(q, r, disc, vat string) Line {
	return Line{
		Quantity:        Value(q).Decimal(),
		Rate:            Value(r).Decimal(),
		DiscountPercent: Value(disc).Decimal(),
		Vat:             Value(vat).Decimal(),
	}
}

func TestComputeLine(t *testing.T) {
	r := Compute(line("2", "100", "10", "5"))

	assert.True(t, r.Gross.Equal(d("200")), "gross %s", r.Gross)
	assert.True(t, r.Discount.Equal(d("20")), "discount %s", r.Discount)
	assert.True(t, r.Amount.Equal(d("180")), "amount %s", r.Amount)
	assert.True(t, r.Vat.Equal(d("9")), "vat %s", r.Vat)
	assert.True(t, r.Total.Equal(d("189")), "total %s", r.Total)
}

func TestComputeBlankAndInvalidAreZero(t *testing.T) {
	r := Compute(line("", "abc", "", "NaN"))
	assert.True(t, r.Total.IsZero())

	r = Compute(line("3", "10", "", ""))
	assert.True(t, r.Total.Equal(d("30")))
}

func TestComputeNegativeInputsPropagate(t *testing.T) {
	r := Compute(line("-1", "50", "0", "10"))
	assert.True(t, r.Amount.Equal(d("-50")))
	assert.True(t, r.Total.Equal(d("-55")))
}

func TestComputeIsExactForDecimals(t *testing.T) {
	r := Compute(line("3", "0.1", "0", "0"))
	assert.Equal(t, "0.3", r.Total.String())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Line{
		line("2", "100", "10", "5"),
		line("2", "100", "10", "5"),
	})

	assert.True(t, s.SubTotal.Equal(d("360")))
	assert.True(t, s.TotalDiscount.Equal(d("40")))
	assert.True(t, s.TotalVat.Equal(d("18")))
	assert.True(t, s.Total.Equal(d("378")))
}

func TestSummarizeMatchesPerLineTotals(t *testing.T) {
	lines := []Line{
		line("1.5", "19.99", "12.5", "5"),
		line("7", "3.333", "0", "20"),
		line("", "10", "5", "5"),
	}

	want := decimal.Zero
	for _, l := range lines {
		want = want.Add(Compute(l).Total)
	}

	assert.True(t, Summarize(lines).Total.Equal(want))
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.Total.IsZero())
}

func TestSettle(t *testing.T) {
	s := Settle(d("378"), d("378"))
	assert.True(t, s.BalanceDue.IsZero())
	assert.True(t, s.FullyPaid())
	assert.False(t, s.Outstanding())

	s = Settle(d("378"), d("100"))
	assert.True(t, s.BalanceDue.Equal(d("278")))
	assert.True(t, s.Outstanding())

	s = Settle(d("100"), d("150"))
	assert.False(t, s.FullyPaid())
	assert.False(t, s.Outstanding())
}

func TestRepriceKeepsFullyPaid(t *testing.T) {
	prev := Settle(d("378"), d("378"))

	next := Reprice(prev, d("500"), nil)
	assert.True(t, next.Paid.Equal(d("500")))
	assert.True(t, next.FullyPaid())
}

func TestRepriceKeepsPartialPayment(t *testing.T) {
	prev := Settle(d("378"), d("100"))

	next := Reprice(prev, d("500"), nil)
	assert.True(t, next.Paid.Equal(d("100")))
	assert.True(t, next.BalanceDue.Equal(d("400")))
}

func TestRepriceExplicitPaidWins(t *testing.T) {
	prev := Settle(d("378"), d("378"))
	paid := d("10")

	next := Reprice(prev, d("500"), &paid)
	assert.True(t, next.BalanceDue.Equal(d("490")))
}

func TestValueJSON(t *testing.T) {
	var item struct {
		Quantity Value `json:"quantity"`
		Rate     Value `json:"rate"`
		Vat      Value `json:"vat"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"quantity": 2, "rate": "100.50", "vat": null}`), &item))

	assert.Equal(t, Value("2"), item.Quantity)
	assert.True(t, item.Rate.Decimal().Equal(d("100.5")))
	assert.True(t, item.Vat.IsBlank())

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"quantity":"2","rate":"100.50","vat":""}`, string(out))
}

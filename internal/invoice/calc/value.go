package calc

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Value is a numeric field kept exactly as the user entered it. It accepts a
// JSON number or string and evaluates blank or unparseable text as zero.
type Value string

func NewValue(d decimal.Decimal) Value {
	return Value(d.String())
}

func (v Value) Decimal() decimal.Decimal {
	text := strings.TrimSpace(string(v))
	if text == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (v Value) IsBlank() bool {
	return strings.TrimSpace(string(v)) == ""
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		*v = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	default:
		*v = Value(b)
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

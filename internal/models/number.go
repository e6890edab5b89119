package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Number is a decimal value as the backend serializes it. Decimal columns
// arrive as JSON strings ("50.00"), integer columns as JSON numbers.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 {
	return float64(n)
}

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// ParseNumber reads user input such as "1,000,000" or " 12.5 ".
func ParseNumber(s string) (Number, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return Number(f), true
}

// NumberPtr is a convenience for optional numeric fields.
func NumberPtr(f float64) *Number {
	n := Number(f)
	return &n
}

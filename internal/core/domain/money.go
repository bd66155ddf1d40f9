package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorExponent is the number of decimal places between major and minor units.
const minorExponent = 2

func FormatAmount(minor int64) string {
	return decimal.New(minor, -minorExponent).StringFixed(minorExponent)
}

// ParseAmount converts a decimal major-unit string such as "125.50" into minor
// units, rejecting negative values and sub-minor precision.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ValidationError{Field: "amount", Msg: fmt.Sprintf("not a decimal: %q", s)}
	}
	if d.IsNegative() {
		return 0, ValidationError{Field: "amount", Msg: "must not be negative"}
	}
	minor := d.Shift(minorExponent)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, ValidationError{Field: "amount", Msg: "too many decimal places"}
	}
	return minor.IntPart(), nil
}

// Package money converts between decimal strings and int64 minor units.
// All balances and commission amounts are stored as minor units (two
// decimal places), so arithmetic stays exact.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid_amount")

// Parse converts a decimal string such as "10", "99.5" or "0.50" into
// minor units. More than two fractional digits is rejected rather than
// rounded.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if !digits(whole) || !digits(frac) {
		return 0, ErrInvalidAmount
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	v := w*100 + f
	if negative {
		v = -v
	}
	return v, nil
}

// digits reports whether s is non-empty ASCII digits only. ParseInt
// alone would accept an embedded sign.
func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Format renders minor units as a two-decimal string.
func Format(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ApplyPercent computes v*percent/100 rounded half away from zero.
func ApplyPercent(v, percent int64) int64 {
	product := v * percent
	if product >= 0 {
		return (product + 50) / 100
	}
	return (product - 50) / 100
}

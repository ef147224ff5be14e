package yookassa

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatAmount renders minor currency units as the gateway's fixed
// two-decimal string: 1200 -> "12.00". Integer math only.
func FormatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

// ParseAmount is the exact inverse for gateway-formatted values:
// "12.00" -> 1200. At most two fraction digits; no float intermediate.
func ParseAmount(s string) (int64, error) {
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("parse amount %q: too many fraction digits", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return n*100 + f, nil
}

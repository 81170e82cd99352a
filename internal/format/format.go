// Package format renders the numbers embedded in edge strings and API
// payloads. The formats are pinned by golden tests; do not tweak widths.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Compact renders a USD quantity in compact K/M/B notation: thousands and
// millions keep two decimals, billions keep one.
func Compact(v float64) string {
	neg := ""
	if v < 0 {
		neg = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%s%.1fB", neg, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s%.2fM", neg, v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%s%.2fK", neg, v/1e3)
	default:
		return fmt.Sprintf("%s%.2f", neg, v)
	}
}

// Price renders a token price with precision tiered by magnitude:
// sub-micro prices fall back to scientific notation, micro prices keep six
// decimals, sub-dollar four, sub-hundred two, and larger prices are
// thousands-grouped with two decimals.
func Price(p float64) string {
	if p == 0 {
		return "0.00"
	}
	neg := ""
	if p < 0 {
		neg = "-"
		p = -p
	}
	switch {
	case p < 1e-6:
		return neg + strconv.FormatFloat(p, 'e', 2, 64)
	case p < 0.01:
		return fmt.Sprintf("%s%.6f", neg, p)
	case p < 1:
		return fmt.Sprintf("%s%.4f", neg, p)
	case p < 100:
		return fmt.Sprintf("%s%.2f", neg, p)
	default:
		return neg + group(p)
	}
}

// Percent renders a signed percentage with one decimal and an explicit sign
// for gains, matching the edge string layout.
func Percent(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

// group formats v with comma thousands separators and two decimals.
func group(v float64) string {
	s := strconv.FormatFloat(math.Floor(v*100+0.5)/100, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + frac
}

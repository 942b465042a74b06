package criteria

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatMoney renders v rounded to a whole number with thousands separators.
func FormatMoney(v float64) string {
	return humanize.Commaf(math.RoundToEven(v))
}

// FormatRatio renders v with two decimals.
func FormatRatio(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatPercent renders a decimal fraction as a percentage with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

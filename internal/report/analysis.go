package report

import (
	"fmt"
	"strings"

	"github.com/ternarybob/screener/internal/models"
)

// NoResultsAnalysis is returned by Analyze for an empty result set.
const NoResultsAnalysis = "No results were returned. Check tickers and data availability."

const topMisses = 3

// Analyze summarizes a result set as a short paragraph: pass rate, metric averages and the
// most frequent failure descriptions among failed tickers.
func Analyze(records []models.Record) string {
	if len(records) == 0 {
		return NoResultsAnalysis
	}

	passed := 0
	for _, r := range records {
		if r.Status == models.StatusPass {
			passed++
		}
	}

	lines := []string{
		fmt.Sprintf("Pass rate: %d/%d tickers met all criteria.", passed, len(records)),
	}
	if avg, ok := mean(records, func(r models.Record) *float64 { return r.PERatio }); ok {
		lines = append(lines, fmt.Sprintf("Average P/E: %.2f.", avg))
	}
	if avg, ok := mean(records, func(r models.Record) *float64 { return r.ROE }); ok {
		lines = append(lines, fmt.Sprintf("Average ROE: %.2f%%.", avg*100))
	}
	if avg, ok := mean(records, func(r models.Record) *float64 { return r.RevenueGrowth }); ok {
		lines = append(lines, fmt.Sprintf("Average revenue growth: %.2f%%.", avg*100))
	}

	if misses := commonMisses(records, topMisses); len(misses) > 0 {
		lines = append(lines, "Most common misses: "+strings.Join(misses, "; ")+".")
	}

	return strings.Join(lines, " ")
}

func mean(records []models.Record, field func(models.Record) *float64) (float64, bool) {
	var sum float64
	n := 0
	for _, r := range records {
		if v := field(r); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// commonMisses counts failure descriptions across failed records and returns the n most
// frequent. Equal counts keep first-seen order.
func commonMisses(records []models.Record, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		if r.Status != models.StatusFail {
			continue
		}
		for _, desc := range strings.Split(r.FailedCriteria, models.FailureSeparator) {
			desc = strings.TrimSpace(desc)
			if desc == "" {
				continue
			}
			if _, seen := counts[desc]; !seen {
				order = append(order, desc)
			}
			counts[desc]++
		}
	}

	top := make([]string, 0, n)
	used := make(map[string]bool)
	for len(top) < n && len(top) < len(order) {
		best := ""
		for _, desc := range order {
			if used[desc] {
				continue
			}
			if best == "" || counts[desc] > counts[best] {
				best = desc
			}
		}
		used[best] = true
		top = append(top, best)
	}
	return top
}

package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/screener/internal/criteria"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/report"
	"github.com/ternarybob/screener/internal/screener"
)

// formatScreenResults formats a screening batch as markdown. The analysis always covers
// the whole batch, the table only the passing stocks when filterPassed is set.
func formatScreenResults(results []models.ScreeningResult, criteriaCount int, filterPassed bool) string {
	summary := screener.Summarize(results)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Screening Results (%d tickers, %d criteria)\n\n", summary.Total, criteriaCount))
	sb.WriteString(fmt.Sprintf("**Passed:** %d  **Failed:** %d", summary.Passed, summary.Failed))
	if summary.Unavailable > 0 {
		sb.WriteString(fmt.Sprintf("  **Data unavailable:** %d", summary.Unavailable))
	}
	sb.WriteString("\n\n")
	sb.WriteString(report.Analyze(models.Records(results)))
	sb.WriteString("\n\n")

	shown := results
	if filterPassed {
		shown = screener.FilterPassed(results)
	}
	if len(shown) == 0 {
		sb.WriteString("No stocks to display.\n")
		return sb.String()
	}
	sb.WriteString(report.MarkdownTable(models.Records(shown), report.DisplayValues))
	return sb.String()
}

// formatCriteria lists recognized criteria and the configured defaults as markdown
func formatCriteria(base models.CriteriaConfig) string {
	var sb strings.Builder
	sb.WriteString("## Screening Criteria\n\n")
	sb.WriteString("| key | metric | comparison |\n| --- | --- | --- |\n")
	for _, kind := range criteria.Kinds {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", kind, kind.Field(), kind.Description()))
	}

	sb.WriteString("\n### Configured defaults\n\n")
	if len(base) == 0 {
		sb.WriteString("None. Every stock passes unless criteria are given.\n")
		return sb.String()
	}
	for _, setting := range base {
		sb.WriteString(fmt.Sprintf("- %s = %v\n", setting.Key, setting.Value))
	}
	return sb.String()
}

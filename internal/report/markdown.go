package report

import (
	"strconv"
	"strings"

	"github.com/ternarybob/screener/internal/criteria"
	"github.com/ternarybob/screener/internal/models"
)

// generatedLayout is how the generation time is shown in rendered reports.
const generatedLayout = "2006-01-02T15:04:05Z07:00"

// Markdown renders the report as a Markdown document with display-formatted values.
func (r *Report) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(escapeMarkdown(r.Heading))
	sb.WriteString("\n\n")
	sb.WriteString("Generated ")
	sb.WriteString(r.Generated.Format(generatedLayout))
	sb.WriteString("\n\n")
	if r.Analysis != "" {
		sb.WriteString(escapeMarkdown(r.Analysis))
		sb.WriteString("\n\n")
	}
	sb.WriteString(MarkdownTable(r.Records, DisplayValues))
	return sb.String()
}

// MarkdownTable renders records as a GFM table with one column per record field.
func MarkdownTable(records []models.Record, values func(models.Record) []string) string {
	var sb strings.Builder
	writeRow(&sb, models.RecordColumns)
	sb.WriteString("|")
	for range models.RecordColumns {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, rec := range records {
		writeRow(&sb, values(rec))
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(escapeMarkdown(c))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"<", `\<`,
	"`", "\\`",
	"*", `\*`,
	"[", `\[`,
	"]", `\]`,
	"\n", " ",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// DisplayValues renders a record for people: grouped money, two decimal ratios and
// percentages for growth and ROE. Absent values are empty.
func DisplayValues(r models.Record) []string {
	return []string{
		r.Ticker,
		r.CompanyName,
		display(r.MarketCap, criteria.FormatMoney),
		display(r.PERatio, criteria.FormatRatio),
		display(r.CurrentRatio, criteria.FormatRatio),
		display(r.DebtToEquity, criteria.FormatRatio),
		display(r.RevenueGrowth, criteria.FormatPercent),
		display(r.ROE, criteria.FormatPercent),
		display(r.NetIncome, criteria.FormatMoney),
		strconv.Itoa(r.PassedCriteria),
		strconv.Itoa(r.TotalCriteria),
		r.FailedCriteria,
		string(r.Status),
	}
}

// RawValues renders a record with unformatted numbers.
func RawValues(r models.Record) []string {
	return r.Values()
}

func display(v *float64, format func(float64) string) string {
	if v == nil {
		return ""
	}
	return format(*v)
}

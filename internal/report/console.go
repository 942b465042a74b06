package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ternarybob/screener/internal/models"
)

var rule = strings.Repeat("=", 60)

// consoleColumns is the condensed column set of the console preview.
var consoleColumns = []string{"TICKER", "COMPANY", "STATUS", "PASSED", "MARKET CAP", "P/E", "ROE", "FAILED CRITERIA"}

// WriteTable prints records as an aligned text table.
func WriteTable(w io.Writer, records []models.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(consoleColumns, "\t"))
	for _, r := range records {
		values := DisplayValues(r)
		fmt.Fprintln(tw, strings.Join([]string{
			r.Ticker,
			r.CompanyName,
			string(r.Status),
			fmt.Sprintf("%d/%d", r.PassedCriteria, r.TotalCriteria),
			orDash(values[2]),
			orDash(values[3]),
			orDash(values[7]),
			orDash(r.FailedCriteria),
		}, "\t"))
	}
	return tw.Flush()
}

// WriteSummary prints the screening summary block. When show is set the full table
// precedes the counts.
func WriteSummary(w io.Writer, records []models.Record, show bool) error {
	var sb strings.Builder
	sb.WriteString("\n" + rule + "\n")
	sb.WriteString("SCREENING SUMMARY\n")
	sb.WriteString(rule + "\n")
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	if show && len(records) > 0 {
		fmt.Fprintln(w, "\nResults preview:")
		if err := WriteTable(w, records); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No results to display")
	} else {
		passed := 0
		for _, r := range records {
			if r.Status == models.StatusPass {
				passed++
			}
		}
		fmt.Fprintf(w, "Total screened: %d\n", len(records))
		fmt.Fprintf(w, "Passed: %d\n", passed)
		fmt.Fprintf(w, "Failed: %d\n", len(records)-passed)
		if passed > 0 {
			fmt.Fprintln(w, "\nPassing stocks:")
			for _, r := range records {
				if r.Status != models.StatusPass {
					continue
				}
				name := r.CompanyName
				if name == "" {
					name = "N/A"
				}
				fmt.Fprintf(w, "  %s: %s\n", r.Ticker, name)
			}
		}
	}

	_, err := fmt.Fprintln(w, rule)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Package report renders flat screening records as CSV, JSON, Markdown, HTML, PDF and a
// console table.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/screener/internal/models"
)

// Format names an output format. Its value is also the file extension.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatJSON, FormatHTML, FormatMarkdown, FormatPDF}

// TimestampLayout is the UTC suffix used in report file names.
const TimestampLayout = "20060102_150405"

// ParseFormat resolves a format name, accepting "markdown" for md.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatJSON, FormatHTML, FormatMarkdown, FormatPDF:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported report format %q", name)
}

// ParseFormats resolves a list of format names, dropping duplicates.
func ParseFormats(names []string) ([]Format, error) {
	formats := make([]Format, 0, len(names))
	seen := make(map[Format]bool)
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// BaseName builds the report file stem for an environment run.
func BaseName(id string, at time.Time) string {
	return id + "_" + at.UTC().Format(TimestampLayout)
}

// Report is one renderable result set.
type Report struct {
	Title     string
	Heading   string
	Generated time.Time
	Analysis  string
	Records   []models.Record
}

// New builds a report over results, computing the analysis text.
func New(title string, results []models.ScreeningResult, generated time.Time) *Report {
	records := models.Records(results)
	return &Report{
		Title:     title,
		Heading:   title,
		Generated: generated.UTC(),
		Analysis:  Analyze(records),
		Records:   records,
	}
}

// Render writes the report in the requested format.
func (r *Report) Render(w io.Writer, format Format) error {
	switch format {
	case FormatCSV:
		return r.writeCSV(w)
	case FormatJSON:
		return r.writeJSON(w)
	case FormatMarkdown:
		_, err := io.WriteString(w, r.Markdown())
		return err
	case FormatHTML:
		return r.writeHTML(w)
	case FormatPDF:
		return r.writePDF(w)
	}
	return fmt.Errorf("unsupported report format %q", format)
}

// WriteFile renders the report to path, creating parent directories. The file is only
// replaced once rendering has succeeded.
func (r *Report) WriteFile(path string, format Format) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, format); err != nil {
		return fmt.Errorf("render %s report: %w", format, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Writer writes a report set into a directory.
type Writer struct {
	dir     string
	formats []Format
	logger  arbor.ILogger
}

// NewWriter creates a writer for dir producing formats.
func NewWriter(dir string, formats []Format, logger arbor.ILogger) *Writer {
	if len(formats) == 0 {
		formats = []Format{FormatCSV, FormatJSON, FormatHTML}
	}
	return &Writer{dir: dir, formats: formats, logger: logger}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteAll renders every configured format as {base}.{ext} and returns format -> path.
func (w *Writer) WriteAll(r *Report, base string) (map[string]string, error) {
	paths := make(map[string]string, len(w.formats))
	for _, f := range w.formats {
		path := filepath.Join(w.dir, base+"."+string(f))
		if err := r.WriteFile(path, f); err != nil {
			w.logger.Error().Err(err).Str("format", string(f)).Str("path", path).Msg("Failed to write report")
			return paths, err
		}
		paths[string(f)] = path
	}
	w.logger.Info().Str("base", base).Int("formats", len(paths)).Msg("Reports written")
	return paths, nil
}

// Resolve maps a bare report file name to its path inside the output directory. Names
// that would escape the directory are rejected.
func (w *Writer) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	if _, ok := FormatFromPath(name); !ok {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	return filepath.Join(w.dir, name), nil
}

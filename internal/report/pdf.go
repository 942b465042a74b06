package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Landscape A4 in millimetres.
const (
	pdfPageWidth  = 297.0
	pdfPageHeight = 210.0
	pdfMargin     = 10.0
	pdfFont       = "Arial"
)

func (r *Report) writePDF(w io.Writer) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(r.Title, true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", 9)

	source := []byte(r.Markdown())
	doc := markdown.Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{
		pdf:       pdf,
		source:    source,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		size:      9,
	}
	if err := ast.Walk(doc, renderer.walk); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	translate func(string) string
	size      float64
	bold      bool
	italic    bool
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(pdfFont, style, r.size)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			size := 14.0
			if node.Level > 1 {
				size = 11
			}
			r.pdf.SetFont(pdfFont, "B", size)
		} else {
			r.pdf.Ln(8)
			r.updateFont()
		}
	case *ast.Paragraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case *ast.Text:
		if entering {
			r.pdf.Write(5, r.plain(node.Segment.Value(r.source)))
			if node.SoftLineBreak() {
				r.pdf.Write(5, " ")
			}
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case *extast.Table:
		if entering {
			r.renderTable(r.collectRows(node))
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) plain(raw []byte) string {
	return r.translate(string(util.UnescapePunctuations(raw)))
}

func (r *pdfRenderer) collectRows(table *extast.Table) [][]string {
	var rows [][]string
	for child := table.FirstChild(); child != nil; child = child.NextSibling() {
		var row []string
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if _, ok := cell.(*extast.TableCell); ok {
				row = append(row, r.cellText(cell))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (r *pdfRenderer) cellText(cell ast.Node) string {
	var sb strings.Builder
	for c := cell.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(util.UnescapePunctuations(t.Segment.Value(r.source)))
		}
	}
	return r.translate(sb.String())
}

func (r *pdfRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	numCols := len(rows[0])
	fontSize := 7.0
	lineHeight := 3.5
	width := pdfPageWidth - 2*pdfMargin
	colWidths := r.columnWidths(rows, numCols, width, fontSize)

	r.pdf.Ln(2)
	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		r.pdf.SetFont(pdfFont, style, fontSize)

		maxLines := 1
		for j, cell := range row {
			if j < numCols {
				if lines := len(r.wrap(cell, colWidths[j]-2)); lines > maxLines {
					maxLines = lines
				}
			}
		}
		if maxLines > 8 {
			maxLines = 8
		}

		rowHeight := float64(maxLines)*lineHeight + 2
		startX := pdfMargin
		startY := r.pdf.GetY()
		if startY+rowHeight > pdfPageHeight-pdfMargin {
			r.pdf.AddPage()
			startY = r.pdf.GetY()
		}

		x := startX
		for j := 0; j < numCols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			if i == 0 {
				r.pdf.SetFillColor(17, 17, 17)
				r.pdf.SetTextColor(255, 255, 255)
				r.pdf.Rect(x, startY, colWidths[j], rowHeight, "FD")
			} else {
				r.pdf.SetTextColor(0, 0, 0)
				r.pdf.Rect(x, startY, colWidths[j], rowHeight, "D")
			}
			r.pdf.SetXY(x+1, startY+1)
			r.renderCell(cell, colWidths[j]-2, lineHeight, maxLines)
			x += colWidths[j]
		}
		r.pdf.SetXY(startX, startY+rowHeight)
	}

	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.Ln(3)
	r.updateFont()
}

// columnWidths sizes columns to their widest cell, then scales to fit the page.
func (r *pdfRenderer) columnWidths(rows [][]string, numCols int, pageWidth, fontSize float64) []float64 {
	widths := make([]float64, numCols)
	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		r.pdf.SetFont(pdfFont, style, fontSize)
		for j, cell := range row {
			if j < numCols {
				if w := r.pdf.GetStringWidth(cell) + 4; w > widths[j] {
					widths[j] = w
				}
			}
		}
	}

	minWidth := 10.0
	maxWidth := pageWidth / 4
	total := 0.0
	for i := range widths {
		if widths[i] < minWidth {
			widths[i] = minWidth
		}
		if widths[i] > maxWidth {
			widths[i] = maxWidth
		}
		total += widths[i]
	}
	if total > 0 {
		scale := pageWidth / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

func (r *pdfRenderer) wrap(s string, width float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := ""
	currentWidth := 0.0
	spaceWidth := r.pdf.GetStringWidth(" ")
	for _, word := range words {
		wordWidth := r.pdf.GetStringWidth(word)
		switch {
		case current == "":
			current = word
			currentWidth = wordWidth
		case currentWidth+spaceWidth+wordWidth <= width:
			current += " " + word
			currentWidth += spaceWidth + wordWidth
		default:
			lines = append(lines, current)
			current = word
			currentWidth = wordWidth
		}
	}
	return append(lines, current)
}

func (r *pdfRenderer) renderCell(s string, width, lineHeight float64, maxLines int) {
	lines := r.wrap(s, width)
	for i := 0; i < len(lines) && i < maxLines; i++ {
		line := lines[i]
		if i == maxLines-1 && len(lines) > maxLines {
			for r.pdf.GetStringWidth(line+"...") > width && len(line) > 3 {
				line = line[:len(line)-1]
			}
			line += "..."
		}
		r.pdf.CellFormat(width, lineHeight, line, "", 2, "L", false, 0, "")
	}
}

package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

var pageTemplate = template.Must(template.New("report").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "IBM Plex Sans", Arial, sans-serif; margin: 32px; background: #f7f4ee; color: #1b1b1b; }
h1 { margin-bottom: 4px; }
.meta { color: #555; margin-bottom: 16px; }
.analysis { padding: 16px; background: #fff5d7; border-radius: 12px; margin-bottom: 24px; }
table { border-collapse: collapse; width: 100%; background: #fff; }
th, td { padding: 8px 10px; border-bottom: 1px solid #e3ded3; text-align: left; font-size: 14px; }
th { background: #111; color: #fff; position: sticky; top: 0; }
</style>
</head>
<body>
<h1>{{.Heading}}</h1>
<div class="meta">Generated {{.Generated}}</div>
<div class="analysis">{{.Analysis}}</div>
{{.Table}}
</body>
</html>
`))

type page struct {
	Title     string
	Heading   string
	Generated string
	Analysis  string
	Table     template.HTML
}

func (r *Report) writeHTML(w io.Writer) error {
	var table bytes.Buffer
	if err := markdown.Convert([]byte(MarkdownTable(r.Records, RawValues)), &table); err != nil {
		return fmt.Errorf("convert table: %w", err)
	}
	return pageTemplate.Execute(w, page{
		Title:     r.Title,
		Heading:   r.Heading,
		Generated: r.Generated.Format(generatedLayout),
		Analysis:  r.Analysis,
		Table:     template.HTML(table.String()),
	})
}

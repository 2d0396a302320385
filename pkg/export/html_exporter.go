package export

import (
	"bytes"
	"fmt"
	"html/template"
)

var htmlReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:Arial,Helvetica,sans-serif;font-size:12px}
table{border-collapse:collapse}
th,td{border:1px solid #cccccc;padding:4px 8px;text-align:left}
th{background-color:#f0f0f0}
</style>
</head>
<body>
{{if .Title}}<h1>{{.Title}}</h1>
{{end}}<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr{{if .Style}} style="{{.Style}}"{{end}}>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type htmlRow struct {
	Style template.CSS
	Cells []string
}

type htmlPage struct {
	Title   string
	Headers []string
	Rows    []htmlRow
}

// HTMLExporter renders datasets into a standalone HTML table.
type HTMLExporter struct{}

// NewHTMLExporter constructs an HTML exporter.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

// Render writes the dataset as an HTML document, applying row styles inline.
func (e *HTMLExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("html requires at least one header")
	}
	page := htmlPage{Title: title, Headers: data.Headers, Rows: make([]htmlRow, 0, len(data.Rows))}
	for i, row := range data.Rows {
		page.Rows = append(page.Rows, htmlRow{
			// RowStyle.CSS only emits validated colours and fixed keywords.
			Style: template.CSS(data.styleAt(i).CSS()),
			Cells: data.record(row),
		})
	}
	buf := &bytes.Buffer{}
	if err := htmlReport.Execute(buf, page); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shorttrack/internal/metrics"
)

// Table is one rendered HTML fragment inside the output document.
type Table struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Document is the published artifact: HTML table fragments wrapped in JSON
// for static-site consumption.
type Document struct {
	GeneratedAt time.Time `json:"generated_at"`
	ReportDate  string    `json:"report_date"`
	Tables      []Table   `json:"tables"`
}

var tableTemplate = template.Must(template.New("table").Parse(strings.TrimSpace(`
<table class="shorttrack">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
`)))

type tableData struct {
	Headers []string
	Rows    [][]string
}

// Render formats the computed summary as HTML fragments. It is purely a
// formatting step: row order is exactly the order the engine produced.
func Render(summary metrics.Summary, generatedAt time.Time) (Document, error) {
	doc := Document{
		GeneratedAt: generatedAt,
		ReportDate:  summary.AsOf.Format("2006-01-02"),
	}

	securities := tableData{
		Headers: []string{"Rank", "Ticker", "Issuer", "Short Interest (%)", "1d Change", "Holders", "Days to Cover", "Short Value"},
	}
	for _, row := range summary.Securities {
		securities.Rows = append(securities.Rows, []string{
			fmt.Sprintf("%d", row.Rank),
			row.Ticker,
			row.Issuer,
			row.Aggregate.StringFixed(2),
			formatChange(row.DayChange),
			fmt.Sprintf("%d", row.HolderCount),
			formatOptional(row.DaysToCover, 1),
			row.ShortValue.StringFixed(0),
		})
	}

	holders := tableData{
		Headers: []string{"Position Holder", "Issuer", "Ticker", "Net Short (%)", "Position Date"},
	}
	for _, row := range summary.Holders {
		holders.Rows = append(holders.Rows, []string{
			row.Holder,
			row.Issuer,
			row.Ticker,
			row.Position.StringFixed(2),
			row.PositionDate.Format("2006-01-02"),
		})
	}

	missing := tableData{
		Headers: []string{"ISIN", "Issuer", "Ticker", "Short Interest (%)", "Reason"},
	}
	for _, row := range summary.Missing {
		missing.Rows = append(missing.Rows, []string{
			row.ISIN,
			row.Issuer,
			row.Ticker,
			row.Aggregate.StringFixed(2),
			row.Reason,
		})
	}

	for _, t := range []struct {
		name  string
		title string
		data  tableData
	}{
		{"securities", "Most shorted UK securities", securities},
		{"holders", "Largest individual short positions", holders},
		{"missing", "Disclosed issuers missing market data", missing},
	} {
		html, err := renderTable(t.data)
		if err != nil {
			return Document{}, fmt.Errorf("rendering %s table: %w", t.name, err)
		}
		doc.Tables = append(doc.Tables, Table{Name: t.name, Title: t.title, HTML: html})
	}

	return doc, nil
}

func renderTable(data tableData) (string, error) {
	var sb strings.Builder
	if err := tableTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatChange(change *decimal.Decimal) string {
	if change == nil {
		return "n/a"
	}
	s := change.StringFixed(2)
	if change.Sign() > 0 {
		s = "+" + s
	}
	return s
}

func formatOptional(d *decimal.Decimal, places int32) string {
	if d == nil {
		return "n/a"
	}
	return d.StringFixed(places)
}

package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"shorttrack/internal/metrics"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRenderPreservesOrder(t *testing.T) {
	asOf := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	summary := metrics.Summary{
		AsOf: asOf,
		Securities: []metrics.SecurityRow{
			{Rank: 1, Ticker: "MMM", Issuer: "Three Plc", Aggregate: dec("4.5")},
			{Rank: 2, Ticker: "AAA", Issuer: "One Plc", Aggregate: dec("2.0")},
		},
	}

	doc, err := Render(summary, asOf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if doc.ReportDate != "2024-03-08" {
		t.Fatalf("report date = %q", doc.ReportDate)
	}
	if len(doc.Tables) != 3 {
		t.Fatalf("tables = %d, want 3", len(doc.Tables))
	}
	if doc.Tables[0].Name != "securities" {
		t.Fatalf("first table = %q", doc.Tables[0].Name)
	}

	html := doc.Tables[0].HTML
	first := strings.Index(html, "MMM")
	second := strings.Index(html, "AAA")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("engine order not preserved:\n%s", html)
	}
}

func TestRenderEscapesMarkup(t *testing.T) {
	summary := metrics.Summary{
		AsOf: time.Now().UTC(),
		Holders: []metrics.HolderRow{
			{Holder: "<script>alert(1)</script>", Issuer: "A&B Plc", Ticker: "AAA", Position: dec("1.0")},
		},
	}

	doc, err := Render(summary, time.Now().UTC())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := doc.Tables[1].HTML
	if strings.Contains(html, "<script>") {
		t.Fatalf("markup not escaped:\n%s", html)
	}
	if !strings.Contains(html, "&lt;script&gt;") || !strings.Contains(html, "A&amp;B Plc") {
		t.Fatalf("expected escaped entities:\n%s", html)
	}
}

func TestRenderChangeFormatting(t *testing.T) {
	up := dec("0.3")
	down := dec("-0.2")
	tests := []struct {
		change *decimal.Decimal
		want   string
	}{
		{nil, "n/a"},
		{&up, "+0.30"},
		{&down, "-0.20"},
	}
	for _, tt := range tests {
		if got := formatChange(tt.change); got != tt.want {
			t.Fatalf("formatChange(%v) = %q, want %q", tt.change, got, tt.want)
		}
	}
}

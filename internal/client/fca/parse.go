package fca

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column headers of the FCA disclosure sheets, matched up to case and
// leading/trailing spaces.
const (
	colHolder   = "position holder"
	colIssuer   = "name of share issuer"
	colISIN     = "isin"
	colPosition = "net short position (%)"
	colDate     = "position date"
)

var expectedColumns = []string{colHolder, colIssuer, colISIN, colPosition, colDate}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"20060102",
	"02-Jan-2006",
	"2-Jan-06",
	"01-02-06",
}

// Row is a single current disclosure as published.
type Row struct {
	Holder       string
	Issuer       string
	ISIN         string
	Position     decimal.Decimal
	PositionDate time.Time
}

// ParseWorkbook reads the daily workbook and returns the rows of the
// "current" sheet together with the reporting date shared by both sheets.
func ParseWorkbook(r io.Reader) (CurrentReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return CurrentReport{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets, reportDate, err := parseSheetNames(f.GetSheetList())
	if err != nil {
		return CurrentReport{}, err
	}

	rows, err := f.GetRows(sheets["current"])
	if err != nil {
		return CurrentReport{}, fmt.Errorf("failed to read current sheet: %w", err)
	}

	parsed, skipped, err := parseRows(rows)
	if err != nil {
		return CurrentReport{}, err
	}

	return CurrentReport{Rows: parsed, ReportDate: reportDate, Skipped: skipped}, nil
}

// parseSheetNames validates the workbook layout: exactly two sheets, one
// "current" and one "historic", sharing a single reporting date as the last
// token of each name. Returns kind -> sheet name and the reporting date.
func parseSheetNames(names []string) (map[string]string, time.Time, error) {
	if len(names) != 2 {
		return nil, time.Time{}, fmt.Errorf("expected two sheets, got %d", len(names))
	}

	sheets := make(map[string]string, 2)
	var reportDate time.Time
	for _, name := range names {
		parts := strings.Fields(name)
		if len(parts) < 2 {
			return nil, time.Time{}, fmt.Errorf("unexpected sheet name %q", name)
		}
		kind := strings.ToLower(parts[0])
		if kind != "current" && kind != "historic" {
			return nil, time.Time{}, fmt.Errorf("unexpected sheet name %q", name)
		}
		date, err := parseDate(parts[len(parts)-1])
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("no reporting date in sheet name %q: %w", name, err)
		}
		if !reportDate.IsZero() && !date.Equal(reportDate) {
			return nil, time.Time{}, fmt.Errorf("sheets disagree on reporting date: %s vs %s",
				reportDate.Format("2006-01-02"), date.Format("2006-01-02"))
		}
		reportDate = date
		sheets[kind] = name
	}

	if _, ok := sheets["current"]; !ok {
		return nil, time.Time{}, fmt.Errorf("no current sheet among %v", names)
	}
	if _, ok := sheets["historic"]; !ok {
		return nil, time.Time{}, fmt.Errorf("no historic sheet among %v", names)
	}
	return sheets, reportDate, nil
}

// mapHeader locates the expected columns in the header row, tolerating
// case and surrounding-space differences and extra columns.
func mapHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(expectedColumns))
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if _, dup := index[key]; dup {
			continue
		}
		index[key] = i
	}

	var missing []string
	for _, col := range expectedColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns in disclosure sheet: %v", missing)
	}
	return index, nil
}

// parseRows converts the raw sheet contents. Malformed rows are counted and
// skipped rather than failing the whole pull.
func parseRows(rows [][]string) ([]Row, int, error) {
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("current sheet is empty")
	}
	index, err := mapHeader(rows[0])
	if err != nil {
		return nil, 0, err
	}

	cell := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	parsed := make([]Row, 0, len(rows)-1)
	skipped := 0
	for _, raw := range rows[1:] {
		holder := cell(raw, colHolder)
		isin := cell(raw, colISIN)
		if holder == "" && isin == "" {
			continue
		}

		pos, err := decimal.NewFromString(cell(raw, colPosition))
		if err != nil {
			skipped++
			continue
		}
		date, err := parseDate(cell(raw, colDate))
		if err != nil {
			skipped++
			continue
		}
		if holder == "" || isin == "" {
			skipped++
			continue
		}

		parsed = append(parsed, Row{
			Holder:       holder,
			Issuer:       cell(raw, colIssuer),
			ISIN:         isin,
			Position:     pos,
			PositionDate: date,
		})
	}
	return parsed, skipped, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

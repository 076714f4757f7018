package fca

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestParseSheetNames(t *testing.T) {
	tests := []struct {
		name    string
		sheets  []string
		wantErr string
	}{
		{
			name:   "valid pair",
			sheets: []string{"Current Disclosures 2024-03-08", "Historic Disclosures 2024-03-08"},
		},
		{
			name:    "one sheet",
			sheets:  []string{"Current Disclosures 2024-03-08"},
			wantErr: "expected two sheets",
		},
		{
			name:    "mismatched dates",
			sheets:  []string{"Current Disclosures 2024-03-08", "Historic Disclosures 2024-03-07"},
			wantErr: "disagree on reporting date",
		},
		{
			name:    "unknown prefix",
			sheets:  []string{"Latest Disclosures 2024-03-08", "Historic Disclosures 2024-03-08"},
			wantErr: "unexpected sheet name",
		},
		{
			name:    "two current sheets",
			sheets:  []string{"Current Disclosures 2024-03-08", "Current Extras 2024-03-08"},
			wantErr: "no historic sheet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheets, date, err := parseSheetNames(tt.sheets)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
			if !date.Equal(want) {
				t.Fatalf("report date = %s, want %s", date, want)
			}
			if sheets["current"] != tt.sheets[0] {
				t.Fatalf("current sheet = %q", sheets["current"])
			}
		})
	}
}

func TestMapHeaderToleratesCaseAndSpacing(t *testing.T) {
	index, err := mapHeader([]string{
		" Position Holder ",
		"NAME OF SHARE ISSUER",
		"isin",
		"Net Short Position (%)",
		"Position Date",
		"Extra Column",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index[colISIN] != 2 {
		t.Fatalf("isin index = %d, want 2", index[colISIN])
	}
}

func TestMapHeaderMissingColumn(t *testing.T) {
	_, err := mapHeader([]string{"Position Holder", "ISIN"})
	if err == nil || !strings.Contains(err.Error(), "missing columns") {
		t.Fatalf("err = %v, want missing columns", err)
	}
}

func TestParseWorkbook(t *testing.T) {
	f := excelize.NewFile()
	current := "Current Disclosures 2024-03-08"
	historic := "Historic Disclosures 2024-03-08"
	f.SetSheetName("Sheet1", current)
	if _, err := f.NewSheet(historic); err != nil {
		t.Fatalf("new sheet: %v", err)
	}

	rows := [][]any{
		{"Position Holder", "Name of Share Issuer", "ISIN", "Net Short Position (%)", "Position Date"},
		{"Fund One LLP", "Alpha Group Plc", "GB00B0000001", 1.21, "2024-03-07"},
		{"Fund Two Ltd", "Alpha Group Plc", "GB00B0000001", 0.60, "2024-03-06"},
		{"Fund One LLP", "Beta Plc", "GB00B0000002", "not-a-number", "2024-03-07"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(current, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	report, err := ParseWorkbook(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("parse workbook: %v", err)
	}
	if !report.ReportDate.Equal(time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("report date = %s", report.ReportDate)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(report.Rows))
	}
	if report.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", report.Skipped)
	}
	first := report.Rows[0]
	if first.Holder != "Fund One LLP" || first.ISIN != "GB00B0000001" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.Position.String() != "1.21" {
		t.Fatalf("position = %s, want 1.21", first.Position)
	}
}

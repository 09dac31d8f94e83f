package excel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/darianmavgo/dumpsql/converters"
	"github.com/darianmavgo/dumpsql/converters/common"
	"github.com/darianmavgo/dumpsql/converters/pgcopy"
)

func TestExportToExcel(t *testing.T) {
	cfg := &common.ConversionConfig{TableName: "repair_jobs_new", Columns: []string{"id", "status", "pause"}}
	conv, err := pgcopy.NewConverterWithConfig(strings.NewReader("1\topen\t\\N\n2\tdone\tt\n\\.\n"), cfg)
	if err != nil {
		t.Fatalf("failed to create converter: %v", err)
	}

	var buf bytes.Buffer
	if err := converters.Export("xlsx", conv, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "repair_jobs_new" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	rows, err := f.GetRows("repair_jobs_new")
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "id,status,pause" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "open" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if len(rows[1]) > 2 && rows[1][2] != "" {
		t.Errorf("NULL should be an empty cell, got %q", rows[1][2])
	}
	if rows[2][2] != "t" {
		t.Errorf("unexpected second row: %v", rows[2])
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"jobs", "jobs"},
		{"a/b:c", "a_b_c"},
		{"", "Sheet1"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		if got := SheetName(tt.in); got != tt.want {
			t.Errorf("SheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

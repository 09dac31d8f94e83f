// Package excel writes converted dump rows to an .xlsx workbook, one sheet per table.
package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/darianmavgo/dumpsql/converters"
	"github.com/darianmavgo/dumpsql/converters/common"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's limit on worksheet name length.
const maxSheetName = 31

func init() {
	converters.Register("xlsx", &excelFormat{})
}

type excelFormat struct{}

func (f *excelFormat) Export(provider common.RowProvider, writer io.Writer) error {
	return ExportToExcel(provider, writer)
}

// SheetName turns a table name into a valid worksheet name.
func SheetName(table string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, table)
	if name == "" {
		name = "Sheet1"
	}
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	return name
}

// ExportToExcel writes every table of provider to its own sheet: a header row of
// column names, then one row per record. NULL becomes an empty cell.
func ExportToExcel(provider common.RowProvider, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	tables := provider.GetTableNames()
	if len(tables) == 0 {
		return fmt.Errorf("no tables to export")
	}

	for i, table := range tables {
		sheet := SheetName(table)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		if err := writeSheet(f, sheet, provider, table); err != nil {
			return err
		}
	}

	if err := f.Write(writer); err != nil {
		return fmt.Errorf("failed to write workbook: %w: %v", common.ErrOutputUnwritable, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, provider common.RowProvider, table string) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer for sheet %s: %w", sheet, err)
	}

	headers := provider.GetHeaders(table)
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	rowIdx := 1
	err = provider.ScanRows(table, func(row []interface{}) error {
		rowIdx++
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowIdx, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet %s: %w", sheet, err)
	}
	return nil
}

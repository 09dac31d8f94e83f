// Package csv writes converted dump rows as comma-separated values.
package csv

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/darianmavgo/dumpsql/converters"
	"github.com/darianmavgo/dumpsql/converters/common"
)

func init() {
	converters.Register("csv", &csvFormat{})
}

type csvFormat struct{}

func (f *csvFormat) Export(provider common.RowProvider, writer io.Writer) error {
	return ExportToCSV(provider, writer)
}

// ExportToCSV writes a header row of column names followed by one row per record.
// NULL becomes an empty field, as in COPY ... CSV. Only the first table is written.
func ExportToCSV(provider common.RowProvider, writer io.Writer) error {
	tables := provider.GetTableNames()
	if len(tables) == 0 {
		return nil
	}
	table := tables[0]

	bw := bufio.NewWriterSize(writer, 65536)
	w := csv.NewWriter(bw)

	headers := provider.GetHeaders(table)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w: %v", common.ErrOutputUnwritable, err)
	}

	record := make([]string, len(headers))
	err := provider.ScanRows(table, func(row []interface{}) error {
		for i, val := range row {
			record[i] = formatField(val)
		}
		return w.Write(record)
	})
	if err != nil {
		return err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w: %v", common.ErrOutputUnwritable, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush csv: %w: %v", common.ErrOutputUnwritable, err)
	}
	return nil
}

func formatField(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

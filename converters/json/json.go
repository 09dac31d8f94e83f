// Package json writes converted dump rows as a JSON array of objects.
package json

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/darianmavgo/dumpsql/converters"
	"github.com/darianmavgo/dumpsql/converters/common"
)

func init() {
	converters.Register("json", &jsonFormat{})
}

type jsonFormat struct{}

func (f *jsonFormat) Export(provider common.RowProvider, writer io.Writer) error {
	return ExportToJSON(provider, writer)
}

// ExportToJSON writes one object per record, keyed by column name in column order.
// NULL becomes null and integers become numbers. Only the first table is written.
func ExportToJSON(provider common.RowProvider, writer io.Writer) error {
	bw := bufio.NewWriterSize(writer, 65536)

	var err error
	write := func(s string) {
		if err == nil {
			_, err = bw.WriteString(s)
		}
	}

	write("[")
	if tables := provider.GetTableNames(); len(tables) > 0 {
		table := tables[0]

		// Keys are encoded once.
		headers := provider.GetHeaders(table)
		keys := make([]string, len(headers))
		for i, h := range headers {
			b, mErr := json.Marshal(h)
			if mErr != nil {
				return fmt.Errorf("failed to encode column name %s: %w", h, mErr)
			}
			keys[i] = string(b)
		}

		first := true
		scanErr := provider.ScanRows(table, func(row []interface{}) error {
			if first {
				write("\n  {")
				first = false
			} else {
				write(",\n  {")
			}
			for i, val := range row {
				if i > 0 {
					write(", ")
				}
				b, mErr := json.Marshal(val)
				if mErr != nil {
					return fmt.Errorf("failed to encode column %s: %w", headers[i], mErr)
				}
				write(keys[i])
				write(": ")
				write(string(b))
			}
			write("}")
			return err
		})
		if scanErr != nil && err == nil {
			return scanErr
		}
		if !first {
			write("\n")
		}
	}
	write("]\n")

	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		return fmt.Errorf("failed to write json: %w: %v", common.ErrOutputUnwritable, err)
	}
	return nil
}

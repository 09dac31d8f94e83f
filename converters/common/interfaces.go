package common

import "io"

// StreamConverter defines the interface for converting a data stream to SQL output
type StreamConverter interface {
	ConvertToSQL(writer io.Writer) error
}

// RowProvider defines the interface for providing typed rows to an output format.
type RowProvider interface {
	GetTableNames() []string
	GetHeaders(tableName string) []string
	// ScanRows iterates over rows for the given table.
	// Values are nil for NULL, int64 for integers that fit, string otherwise.
	// If yield returns an error, iteration stops and that error is returned.
	ScanRows(tableName string, yield func([]interface{}) error) error
}

// Format writes the rows of a RowProvider to writer in one output format.
type Format interface {
	Export(provider RowProvider, writer io.Writer) error
}

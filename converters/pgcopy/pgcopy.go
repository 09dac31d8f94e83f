// Package pgcopy converts the text payload of a Postgres COPY ... FROM stdin block
// into a multi-row INSERT statement, or into typed rows for the other output formats.
package pgcopy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/darianmavgo/dumpsql/converters/common"
)

// maxLineSize bounds a single COPY record. Text columns in real dumps routinely exceed
// bufio.Scanner's 64KiB default.
const maxLineSize = 64 * 1024 * 1024

// errConsumed is returned when a Converter is asked to read its input a second time.
var errConsumed = errors.New("pgcopy: input already consumed")

// Stats counts what a conversion did with its input.
type Stats struct {
	LinesRead int // physical lines, including skipped ones
	Skipped   int // blank, terminator and banner lines
	Records   int // records converted
}

// Converter reads one COPY payload. It implements common.RowProvider and
// common.StreamConverter; either can be used once, since the input is a stream.
type Converter struct {
	scanner  *bufio.Scanner
	consumed bool
	stats    Stats
	Config   common.ConversionConfig
}

// Ensure Converter implements RowProvider
var _ common.RowProvider = (*Converter)(nil)

// Ensure Converter implements StreamConverter
var _ common.StreamConverter = (*Converter)(nil)

// NewConverter creates a Converter over r with the default repair_jobs_new settings.
func NewConverter(r io.Reader) (*Converter, error) {
	return NewConverterWithConfig(r, nil)
}

// NewConverterWithConfig creates a Converter over r. A nil config means the defaults;
// an empty table name or column list falls back to the defaults individually.
func NewConverterWithConfig(r io.Reader, config *common.ConversionConfig) (*Converter, error) {
	if config == nil {
		config = common.DefaultConversionConfig()
	}
	cfg := *config
	if cfg.TableName == "" {
		cfg.TableName = common.DefaultTable
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = append([]string(nil), common.DefaultColumns...)
	}

	decoded, err := common.DecodeReader(r, cfg.Encoding)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Converter{
		scanner: scanner,
		Config:  cfg,
	}, nil
}

// Stats returns the counters of the last scan.
func (c *Converter) Stats() Stats {
	return c.stats
}

// GetTableNames implements RowProvider
func (c *Converter) GetTableNames() []string {
	return []string{c.Config.TableName}
}

// GetHeaders implements RowProvider
func (c *Converter) GetHeaders(tableName string) []string {
	if tableName == c.Config.TableName {
		return c.Config.Columns
	}
	return nil
}

// Fields splits a raw dump line into its COPY fields. ok is false for lines that carry
// no record: blank lines, the \. terminator, and pg_dump banner lines.
func Fields(line string) (fields []string, ok bool) {
	if strings.HasPrefix(line, common.BannerPrefix) {
		return nil, false
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed == common.Terminator {
		return nil, false
	}
	return strings.Split(trimmed, "\t"), true
}

// FormatTuple renders fields as a parenthesized SQL value tuple.
func FormatTuple(fields []string, escapeQuotes, decodeEscapes bool) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		// NULL and integers are classified on the raw field, so \\N stays text.
		if decodeEscapes && f != common.NullMarker && !common.IsInteger(f) {
			b.WriteString(common.QuoteLiteral(common.UnescapeCopyValue(f), escapeQuotes))
			continue
		}
		b.WriteString(common.SQLLiteral(f, escapeQuotes))
	}
	b.WriteByte(')')
	return b.String()
}

// ConvertLine converts one dump line with the faithful rules: no quote escaping,
// no arity check. ok is false when the line carries no record.
func ConvertLine(line string) (tuple string, ok bool) {
	fields, ok := Fields(line)
	if !ok {
		return "", false
	}
	return FormatTuple(fields, false, false), true
}

func (c *Converter) record(lineNo int, line string) ([]string, bool, error) {
	fields, ok := Fields(line)
	if !ok {
		return nil, false, nil
	}
	if c.Config.CheckArity && len(fields) != len(c.Config.Columns) {
		return nil, false, &common.MalformedRecordError{
			Line:    lineNo,
			Content: strings.TrimSpace(line),
			Got:     len(fields),
			Want:    len(c.Config.Columns),
		}
	}
	return fields, true, nil
}

// scan feeds every record to fn in input order.
func (c *Converter) scan(fn func(fields []string) error) error {
	if c.consumed {
		return errConsumed
	}
	c.consumed = true
	c.stats = Stats{}

	for c.scanner.Scan() {
		c.stats.LinesRead++
		fields, ok, err := c.record(c.stats.LinesRead, c.scanner.Text())
		if err != nil {
			return err
		}
		if !ok {
			c.stats.Skipped++
			continue
		}
		c.stats.Records++
		if err := fn(fields); err != nil {
			return err
		}
	}
	if err := c.scanner.Err(); err != nil {
		return fmt.Errorf("failed to read dump line %d: %w: %v", c.stats.LinesRead+1, common.ErrInputUnreadable, err)
	}

	slog.Debug("dump scanned",
		"lines", c.stats.LinesRead,
		"records", c.stats.Records,
		"skipped", c.stats.Skipped,
	)

	if c.stats.Records == 0 && c.Config.RejectEmpty {
		return fmt.Errorf("%w after %d lines", common.ErrEmptyInput, c.stats.LinesRead)
	}
	return nil
}

// ScanRows implements RowProvider. Rows always have exactly len(Columns) values:
// a typed row cannot carry extra or missing fields, so arity is checked here
// regardless of CheckArity. The yielded slice is reused between calls.
func (c *Converter) ScanRows(tableName string, yield func([]interface{}) error) error {
	if tableName != c.Config.TableName {
		return nil
	}
	if c.scanner == nil {
		return fmt.Errorf("pgcopy scanner is not initialized")
	}

	want := len(c.Config.Columns)
	row := make([]interface{}, want)
	return c.scan(func(fields []string) error {
		if len(fields) != want {
			return &common.MalformedRecordError{
				Line:    c.stats.LinesRead,
				Content: strings.Join(fields, "\t"),
				Got:     len(fields),
				Want:    want,
			}
		}
		for i, f := range fields {
			row[i] = c.typedValue(f)
		}
		return yield(row)
	})
}

func (c *Converter) typedValue(field string) interface{} {
	if field == common.NullMarker {
		return nil
	}
	if common.IsInteger(field) {
		if n, err := strconv.ParseInt(field, 10, 64); err == nil {
			return n
		}
	}
	if c.Config.DecodeEscapes {
		return common.UnescapeCopyValue(field)
	}
	return field
}

// ConvertToSQL implements StreamConverter. It writes
//
//	INSERT INTO schema.table (c1, ..., cn) VALUES
//	(tuple 1),
//	...
//	(tuple n);
//
// Tuples are streamed as they are converted; the bytes are the same as joining
// them all with ",\n" at the end.
func (c *Converter) ConvertToSQL(writer io.Writer) error {
	if c.scanner == nil {
		return fmt.Errorf("pgcopy scanner is not initialized")
	}

	bw := bufio.NewWriter(writer)
	header := common.GenInsertHeader(c.Config.QualifiedTable(), c.Config.Columns)
	if _, err := bw.WriteString(header + "\n"); err != nil {
		return fmt.Errorf("failed to write INSERT header: %w: %v", common.ErrOutputUnwritable, err)
	}

	first := true
	err := c.scan(func(fields []string) error {
		if !first {
			if _, err := bw.WriteString(",\n"); err != nil {
				return fmt.Errorf("failed to write tuple separator: %w: %v", common.ErrOutputUnwritable, err)
			}
		}
		first = false
		tuple := FormatTuple(fields, c.Config.EscapeQuotes, c.Config.DecodeEscapes)
		if _, err := bw.WriteString(tuple); err != nil {
			return fmt.Errorf("failed to write tuple: %w: %v", common.ErrOutputUnwritable, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := bw.WriteString(";\n"); err != nil {
		return fmt.Errorf("failed to write statement end: %w: %v", common.ErrOutputUnwritable, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w: %v", common.ErrOutputUnwritable, err)
	}
	return nil
}

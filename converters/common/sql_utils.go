package common

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// NullMarker is how COPY text format renders NULL.
	NullMarker = `\N`
	// Terminator marks the end of COPY data.
	Terminator = `\.`
	// BannerPrefix starts the informational lines pg_dump writes around the data.
	BannerPrefix = "pg_dump"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// IsInteger reports whether field is one or more ASCII digits and nothing else.
// Signs, decimal points and surrounding whitespace all make it a string.
func IsInteger(field string) bool {
	if field == "" {
		return false
	}
	for i := 0; i < len(field); i++ {
		if field[i] < '0' || field[i] > '9' {
			return false
		}
	}
	return true
}

// QuoteLiteral wraps val in single quotes. With escape set, embedded quotes are doubled;
// without it the value is reproduced byte for byte, which is only safe for trusted dumps.
func QuoteLiteral(val string, escape bool) string {
	if !escape || !strings.Contains(val, "'") {
		return "'" + val + "'"
	}
	return "'" + strings.ReplaceAll(val, "'", "''") + "'"
}

// SQLLiteral classifies one COPY field and renders it as a SQL literal.
func SQLLiteral(field string, escape bool) string {
	switch {
	case field == NullMarker:
		return "NULL"
	case IsInteger(field):
		return field
	default:
		return QuoteLiteral(field, escape)
	}
}

// UnescapeCopyValue decodes the backslash escapes of COPY text format.
// Unknown sequences are left untouched.
func UnescapeCopyValue(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' || i+1 == len(value) {
			b.WriteByte(c)
			continue
		}
		switch value[i+1] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(c)
			continue
		}
		i++
	}
	return b.String()
}

// ValidIdentifier reports whether name can be used unquoted as a table or column name.
func ValidIdentifier(name string) bool {
	return identifier.MatchString(name)
}

// GenInsertHeader generates the first line of the multi-row INSERT, without the newline.
func GenInsertHeader(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES", table, strings.Join(columns, ", "))
}

// GenPreparedInsert generates a parameterized single-row insert for the given table.
func GenPreparedInsert(table string, fields []string) (string, error) {
	if table == "" || len(fields) == 0 {
		return "", fmt.Errorf("table name and fields are required")
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = QuoteIdentifier(f)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Repeat("?, ", len(fields)-1)+"?",
	), nil
}

// GenCreateTableSQL generates a CREATE TABLE statement with untyped columns.
// The dump carries no type information. An untyped column has BLOB affinity, so each
// value keeps the storage class of its bound parameter: NULL, INTEGER or TEXT.
func GenCreateTableSQL(tableName string, columnNames []string) string {
	var builder strings.Builder
	builder.Grow(len(tableName) + len(columnNames)*20)

	builder.WriteString("CREATE TABLE ")
	builder.WriteString(QuoteIdentifier(tableName))
	builder.WriteString(" (")
	for i, name := range columnNames {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(QuoteIdentifier(name))
	}
	builder.WriteByte(')')
	return builder.String()
}

// QuoteIdentifier double-quotes name when it is a SQLite keyword or not a plain identifier.
func QuoteIdentifier(name string) string {
	if ValidIdentifier(name) && !IsKeyword(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// IsKeyword reports whether name is a reserved SQLite keyword, case-insensitively.
func IsKeyword(name string) bool {
	_, ok := keywords[strings.ToLower(name)]
	return ok
}

// keywords is the set recognized by SQLite, from https://sqlite.org/lang_keywords.html
var keywords = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, k := range strings.Fields(`
		abort action add after all alter always analyze and as
		asc attach autoincrement before begin between by cascade case cast
		check collate column commit conflict constraint create cross current current_date
		current_time current_timestamp database default deferrable deferred delete desc detach distinct
		do drop each else end escape except exclude exclusive exists
		explain fail filter first following for foreign from full generated
		glob group groups having if ignore immediate in index indexed
		initially inner insert instead intersect into is isnull join key
		last left like limit match materialized natural no not nothing
		notnull null nulls of offset on or order others outer
		over partition plan pragma preceding primary query raise range recursive
		references regexp reindex release rename replace restrict returning right rollback
		row rows savepoint select set table temp temporary then ties
		to transaction trigger unbounded union unique update using vacuum values
		view virtual when where window with without`) {
		m[k] = struct{}{}
	}
	return m
}()

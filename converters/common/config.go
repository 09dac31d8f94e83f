package common

const (
	// DefaultSchema is the schema prefixed to the target table in the INSERT header.
	DefaultSchema = "public"
	// DefaultTable is the table the dumps were historically restored into.
	DefaultTable = "repair_jobs_new"
)

// DefaultColumns is the column list of the repair_jobs_new table, in COPY order.
var DefaultColumns = []string{
	"id", "created_at", "status", "repair_level", "completed_date", "technician",
	"was_split", "pause", "order_id", "jobs_temp", "job_id",
}

// ConversionConfig stores configuration options for the conversion process.
type ConversionConfig struct {
	Schema    string   // Schema of the target table
	TableName string   // Name of the table
	Columns   []string // Ordered column list, never derived from input
	Encoding  string   // IANA charset of the input, empty means UTF-8

	EscapeQuotes  bool // Double embedded single quotes in string literals
	CheckArity    bool // Reject records whose field count differs from len(Columns)
	RejectEmpty   bool // Fail instead of emitting a statement with no tuples
	DecodeEscapes bool // Decode COPY text escapes (\t, \n, \r, \\) before quoting
}

// DefaultConversionConfig returns the settings of the repair_jobs export:
// public.repair_jobs_new, the 11 known columns, no hardening.
func DefaultConversionConfig() *ConversionConfig {
	return &ConversionConfig{
		Schema:    DefaultSchema,
		TableName: DefaultTable,
		Columns:   append([]string(nil), DefaultColumns...),
	}
}

// SetStrict turns every hardening option on or off at once.
func (c *ConversionConfig) SetStrict(strict bool) {
	c.EscapeQuotes = strict
	c.CheckArity = strict
	c.RejectEmpty = strict
}

// Strict reports whether all hardening options are enabled.
func (c *ConversionConfig) Strict() bool {
	return c.EscapeQuotes && c.CheckArity && c.RejectEmpty
}

// QualifiedTable returns schema.table, or just the table when no schema is set.
func (c *ConversionConfig) QualifiedTable() string {
	if c.Schema == "" {
		return c.TableName
	}
	return c.Schema + "." + c.TableName
}

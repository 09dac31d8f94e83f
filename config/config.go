package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/joho/godotenv"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/darianmavgo/dumpsql/converters/common"
)

// ErrInvalidConfig indicates the provided configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment variable ApplyEnv reads.
const EnvPrefix = "DUMPSQL_"

// Config represents the application configuration.
type Config struct {
	InputPath   string   `hcl:"input_path,optional" yaml:"input_path"`
	OutputPath  string   `hcl:"output_path,optional" yaml:"output_path"`
	Schema      string   `hcl:"schema,optional" yaml:"schema"`
	TableName   string   `hcl:"table_name,optional" yaml:"table_name"`
	Columns     []string `hcl:"columns,optional" yaml:"columns"`
	Format      string   `hcl:"format,optional" yaml:"format"`
	Encoding    string   `hcl:"encoding,optional" yaml:"encoding"`
	BatchSize   int      `hcl:"batch_size,optional" yaml:"batch_size"`
	DatabaseURL string   `hcl:"database_url,optional" yaml:"database_url"`

	// Strict turns on EscapeQuotes, CheckArity and RejectEmpty together.
	Strict        bool `hcl:"strict,optional" yaml:"strict"`
	EscapeQuotes  bool `hcl:"escape_quotes,optional" yaml:"escape_quotes"`
	CheckArity    bool `hcl:"check_arity,optional" yaml:"check_arity"`
	RejectEmpty   bool `hcl:"reject_empty,optional" yaml:"reject_empty"`
	DecodeEscapes bool `hcl:"decode_escapes,optional" yaml:"decode_escapes"`
	ValidateSQL   bool `hcl:"validate,optional" yaml:"validate"`
}

// DefaultConfig returns the default configuration: the repair_jobs_new table,
// its 11 columns, SQL output and no hardening.
func DefaultConfig() *Config {
	return &Config{
		Schema:    common.DefaultSchema,
		TableName: common.DefaultTable,
		Columns:   append([]string(nil), common.DefaultColumns...),
		Format:    "sql",
		BatchSize: 1000,
	}
}

// Load reads the configuration from the given HCL or YAML file.
// Attributes missing from the file keep their default values.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCL(content, path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse config file: %s", diags.Error())
		}
		diags = gohcl.DecodeBody(file.Body, nil, cfg)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode config: %s", diags.Error())
		}
	}

	return cfg, nil
}

// Export writes the configuration to the specified file in HCL format.
func Export(path string, cfg *Config) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	setString := func(name, val string) {
		if val != "" {
			root.SetAttributeValue(name, cty.StringVal(val))
		}
	}
	setString("input_path", cfg.InputPath)
	setString("output_path", cfg.OutputPath)
	setString("schema", cfg.Schema)
	setString("table_name", cfg.TableName)

	if len(cfg.Columns) == 0 {
		root.SetAttributeValue("columns", cty.ListValEmpty(cty.String))
	} else {
		cols := make([]cty.Value, len(cfg.Columns))
		for i, c := range cfg.Columns {
			cols[i] = cty.StringVal(c)
		}
		root.SetAttributeValue("columns", cty.ListVal(cols))
	}

	setString("format", cfg.Format)
	setString("encoding", cfg.Encoding)
	root.SetAttributeValue("batch_size", cty.NumberIntVal(int64(cfg.BatchSize)))
	setString("database_url", cfg.DatabaseURL)

	root.AppendNewline()
	root.SetAttributeValue("strict", cty.BoolVal(cfg.Strict))
	root.SetAttributeValue("escape_quotes", cty.BoolVal(cfg.EscapeQuotes))
	root.SetAttributeValue("check_arity", cty.BoolVal(cfg.CheckArity))
	root.SetAttributeValue("reject_empty", cty.BoolVal(cfg.RejectEmpty))
	root.SetAttributeValue("decode_escapes", cty.BoolVal(cfg.DecodeEscapes))
	root.SetAttributeValue("validate", cty.BoolVal(cfg.ValidateSQL))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(f.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write config to file: %w", err)
	}

	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set are not overridden.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays DUMPSQL_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	str("INPUT", &cfg.InputPath)
	str("OUTPUT", &cfg.OutputPath)
	str("SCHEMA", &cfg.Schema)
	str("TABLE", &cfg.TableName)
	str("FORMAT", &cfg.Format)
	str("ENCODING", &cfg.Encoding)
	str("DATABASE_URL", &cfg.DatabaseURL)

	if v, ok := os.LookupEnv(EnvPrefix + "COLUMNS"); ok {
		cfg.Columns = SplitColumns(v)
	}

	var errs []error
	flag := func(key string, dst *bool) {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s=%q is not a boolean: %w", EnvPrefix, key, v, ErrInvalidConfig))
			return
		}
		*dst = b
	}
	flag("STRICT", &cfg.Strict)
	flag("VALIDATE", &cfg.ValidateSQL)
	flag("DECODE_ESCAPES", &cfg.DecodeEscapes)

	if v, ok := os.LookupEnv(EnvPrefix + "BATCH_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sBATCH_SIZE=%q is not an integer: %w", EnvPrefix, v, ErrInvalidConfig))
		} else {
			cfg.BatchSize = n
		}
	}
	return errors.Join(errs...)
}

// SplitColumns parses a comma-separated column list, trimming blanks.
func SplitColumns(s string) []string {
	var cols []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// Validate checks the configuration and returns every problem found, joined.
// Each one wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format+": %w", append(args, ErrInvalidConfig)...))
	}

	if c.InputPath == "" {
		invalid("input_path is required")
	}
	if c.OutputPath == "" && c.DatabaseURL == "" {
		invalid("output_path is required")
	}
	if c.TableName == "" {
		invalid("table_name is required")
	} else if !common.ValidIdentifier(c.TableName) {
		invalid("table_name %q is not a valid identifier", c.TableName)
	}
	if c.Schema != "" && !common.ValidIdentifier(c.Schema) {
		invalid("schema %q is not a valid identifier", c.Schema)
	}

	if len(c.Columns) == 0 {
		invalid("columns must list at least one column")
	}
	seen := make(map[string]bool, len(c.Columns))
	for _, col := range c.Columns {
		if !common.ValidIdentifier(col) {
			invalid("column %q is not a valid identifier", col)
		}
		key := strings.ToLower(col)
		if seen[key] {
			invalid("column %q is listed twice", col)
		}
		seen[key] = true
	}

	if c.Format == "" {
		invalid("format is required")
	}
	if c.BatchSize < 0 {
		invalid("batch_size cannot be negative")
	}
	if _, err := common.DecodeReader(strings.NewReader(""), c.Encoding); err != nil {
		invalid("%v", err)
	}
	if c.ValidateSQL && c.Format != "sql" {
		invalid("validate only applies to the sql format")
	}

	return errors.Join(errs...)
}

// Conversion returns the converter settings described by c.
func (c *Config) Conversion() *common.ConversionConfig {
	conv := &common.ConversionConfig{
		Schema:        c.Schema,
		TableName:     c.TableName,
		Columns:       append([]string(nil), c.Columns...),
		Encoding:      c.Encoding,
		EscapeQuotes:  c.EscapeQuotes,
		CheckArity:    c.CheckArity,
		RejectEmpty:   c.RejectEmpty,
		DecodeEscapes: c.DecodeEscapes,
	}
	if c.Strict {
		conv.SetStrict(true)
	}
	return conv
}

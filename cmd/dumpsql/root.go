package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/darianmavgo/dumpsql/config"
	_ "github.com/darianmavgo/dumpsql/converters/all"
)

// options holds the flag values shared by every command.
type options struct {
	configPath string
	envFile    string
	verbose    bool

	input         string
	output        string
	schema        string
	table         string
	columns       string
	format        string
	encoding      string
	batchSize     int
	strict        bool
	decodeEscapes bool
	validate      bool
}

const longHelp = `dumpsql converts the tab-separated rows of a Postgres COPY dump into a single
INSERT INTO <schema>.<table> (<columns>) VALUES statement.

Each field becomes NULL (\N), a bare integer (digits only) or a quoted string.
Blank lines, the \. terminator and pg_dump banner lines are skipped.

Settings are read from --config (HCL or YAML), then DUMPSQL_* environment
variables (a .env file is loaded first when present), then flags.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or unknown format
  11 - Input missing or unreadable
  12 - Output cannot be written
  13 - Malformed record (strict mode)
  14 - Empty input (strict mode)
  15 - Generated SQL failed validation
  16 - Database error (apply)`

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "dumpsql",
		Short:         "Convert a Postgres COPY dump into an INSERT statement",
		Long:          longHelp,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd.ErrOrStderr(), opts.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts)
		},
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to an HCL or YAML config file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file loaded when present")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	pf.StringVarP(&opts.input, "input", "i", "", "Path to the COPY dump")
	pf.StringVarP(&opts.output, "output", "o", "", "Path to write the result (- for stdout)")
	pf.StringVar(&opts.schema, "schema", "", "Target schema (default public)")
	pf.StringVarP(&opts.table, "table", "t", "", "Target table (default repair_jobs_new)")
	pf.StringVarP(&opts.columns, "columns", "c", "", "Comma-separated column list")
	pf.StringVarP(&opts.format, "format", "f", "", "Output format: sql, sqlite, xlsx, csv or json (default sql)")
	pf.StringVar(&opts.encoding, "encoding", "", "Input character set (default UTF-8)")
	pf.IntVar(&opts.batchSize, "batch-size", 0, "Rows per transaction for the sqlite format (default 1000)")
	pf.BoolVar(&opts.strict, "strict", false, "Escape quotes, check record arity and reject empty input")
	pf.BoolVar(&opts.decodeEscapes, "decode-escapes", false, "Decode COPY backslash escapes in fields")
	pf.BoolVar(&opts.validate, "validate", false, "Parse the generated statement before writing it")

	rootCmd.AddCommand(
		newConvertCmd(opts),
		newConfigCmd(opts),
		newApplyCmd(opts),
		newFormatsCmd(),
	)
	return rootCmd
}

func newConvertCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "convert",
		Short: "Convert the dump (same as running dumpsql with no command)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts)
		},
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError("unexpected argument %q for %s", args[0], cmd.CommandPath())
	}
	return nil
}

// setupLogging installs a text slog handler on w; verbose switches to debug with source.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	slog.SetDefault(slog.New(handler))
}

// loadConfig layers the config file, the environment and explicitly set flags
// over the defaults. It does not validate the result.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	str := func(name string, src string, dst *string) {
		if flags.Changed(name) {
			*dst = src
		}
	}
	str("input", opts.input, &cfg.InputPath)
	str("output", opts.output, &cfg.OutputPath)
	str("schema", opts.schema, &cfg.Schema)
	str("table", opts.table, &cfg.TableName)
	str("format", opts.format, &cfg.Format)
	str("encoding", opts.encoding, &cfg.Encoding)
	if flags.Changed("columns") {
		cfg.Columns = config.SplitColumns(opts.columns)
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = opts.batchSize
	}
	if flags.Changed("strict") {
		cfg.Strict = opts.strict
	}
	if flags.Changed("decode-escapes") {
		cfg.DecodeEscapes = opts.decodeEscapes
	}
	if flags.Changed("validate") {
		cfg.ValidateSQL = opts.validate
	}

	slog.Debug("configuration loaded",
		"config_file", opts.configPath,
		"input", cfg.InputPath,
		"output", cfg.OutputPath,
		"table", cfg.TableName,
		"columns", len(cfg.Columns),
		"format", cfg.Format,
		"strict", cfg.Strict,
	)
	return cfg, nil
}

package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/darianmavgo/dumpsql/config"
	"github.com/darianmavgo/dumpsql/converters"
	"github.com/darianmavgo/dumpsql/converters/common"
	"github.com/darianmavgo/dumpsql/converters/pgcopy"
	"github.com/darianmavgo/dumpsql/converters/sqlite"
	"github.com/darianmavgo/dumpsql/converters/validate"
)

// stdoutPath selects standard output as the destination.
const stdoutPath = "-"

func runConvert(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if cfg.OutputPath == "" {
		return fmt.Errorf("output_path is required: %w", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := converters.Lookup(cfg.Format); err != nil {
		return err
	}

	return convertFile(cfg, cmd.OutOrStdout())
}

// openInput opens the dump and wraps its converter. The caller closes the file.
func openInput(cfg *config.Config) (*os.File, *pgcopy.Converter, error) {
	in, err := os.Open(cfg.InputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w: %v", common.ErrInputUnreadable, err)
	}

	conv, err := pgcopy.NewConverterWithConfig(in, cfg.Conversion())
	if err != nil {
		in.Close()
		return nil, nil, err
	}
	return in, conv, nil
}

// convertFile runs one conversion. The input is opened before the output is
// created, and a partially written output file is removed on failure.
func convertFile(cfg *config.Config, stdout io.Writer) error {
	in, conv, err := openInput(cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	sqlite.BatchSize = cfg.BatchSize

	var out io.Writer = stdout
	var file *os.File
	if cfg.OutputPath != stdoutPath {
		file, err = os.Create(cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w: %v", common.ErrOutputUnwritable, err)
		}
		out = file
	}

	err = render(cfg, conv, out)
	if file != nil {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close output: %w: %v", common.ErrOutputUnwritable, closeErr)
		}
		if err != nil {
			os.Remove(cfg.OutputPath)
		}
	}
	if err != nil {
		return err
	}

	stats := conv.Stats()
	slog.Info("conversion complete",
		"input", cfg.InputPath,
		"output", cfg.OutputPath,
		"format", cfg.Format,
		"lines", stats.LinesRead,
		"records", stats.Records,
		"skipped", stats.Skipped,
	)
	return nil
}

func render(cfg *config.Config, conv *pgcopy.Converter, out io.Writer) error {
	if !cfg.ValidateSQL {
		return converters.Export(cfg.Format, conv, out)
	}

	var buf bytes.Buffer
	if err := conv.ConvertToSQL(&buf); err != nil {
		return err
	}
	if _, err := checkStatement(cfg, buf.String()); err != nil {
		return err
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w: %v", common.ErrOutputUnwritable, err)
	}
	return nil
}

func checkStatement(cfg *config.Config, stmt string) (*validate.Result, error) {
	res, err := validate.Statement(stmt, cfg.Schema, cfg.TableName, cfg.Columns)
	if err != nil {
		return nil, err
	}
	slog.Debug("statement validated", "table", res.Schema+"."+res.Table, "rows", res.Rows)
	return res, nil
}

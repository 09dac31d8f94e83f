package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/darianmavgo/dumpsql/apply"
	"github.com/darianmavgo/dumpsql/config"
	"github.com/darianmavgo/dumpsql/converters"
	"github.com/darianmavgo/dumpsql/converters/common"
)

func newConfigCmd(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
		Args:  noArgs,
	}

	exportCmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Write the effective configuration as HCL",
		Long: `Write the configuration that a conversion would use, after applying the
config file, DUMPSQL_* environment variables and flags, to <path> as HCL.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError("%s takes exactly one <path>, received %d", cmd.CommandPath(), len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := config.Export(args[0], cfg); err != nil {
				return fmt.Errorf("%w: %v", common.ErrOutputUnwritable, err)
			}
			slog.Info("configuration exported", "path", args[0])
			return nil
		},
	}

	configCmd.AddCommand(exportCmd)
	return configCmd
}

func newApplyCmd(opts *options) *cobra.Command {
	var databaseURL string

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Convert the dump and execute the statement against Postgres",
		Long: `Convert the dump and execute the resulting INSERT inside one transaction.
The connection string comes from --database-url or DUMPSQL_DATABASE_URL.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("database-url") {
				cfg.DatabaseURL = databaseURL
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("database_url is required: %w", config.ErrInvalidConfig)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return applyFile(ctx, cfg)
		},
	}
	applyCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string")
	return applyCmd
}

func applyFile(ctx context.Context, cfg *config.Config) error {
	in, conv, err := openInput(cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	var res *apply.Result
	if cfg.ValidateSQL {
		var stmt strings.Builder
		if err := conv.ConvertToSQL(&stmt); err != nil {
			return err
		}
		if _, err := checkStatement(cfg, stmt.String()); err != nil {
			return err
		}
		res, err = apply.Exec(ctx, cfg.DatabaseURL, stmt.String())
	} else {
		res, err = apply.Apply(ctx, cfg.DatabaseURL, conv)
	}
	if err != nil {
		return err
	}

	stats := conv.Stats()
	slog.Info("statement applied",
		"input", cfg.InputPath,
		"table", cfg.Conversion().QualifiedTable(),
		"records", stats.Records,
		"rows_inserted", res.RowsInserted,
	)
	return nil
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the available output formats",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range converters.Formats() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

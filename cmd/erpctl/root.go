package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/common/logger"
)

var version = "1.0.0"

// cli is the state shared by every subcommand
type cli struct {
	logLevel string
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "erpctl",
		Short: "Construction ERP financial core tooling",
		Long: `erpctl runs the cash flow forecaster and the project risk scorer over
local JSON files, and provisions the postgres schema or the DynamoDB table
used by the MCP and REST servers.

Store settings are read from the environment and from a .env file in the
working directory, as for the servers.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			l, err := logger.New(c.logLevel, "console")
			if err != nil {
				return err
			}
			c.logger = l.Named("erpctl")
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newForecastCmd(c),
		newRiskCmd(c),
		newMigrateCmd(c),
		newCreateTableCmd(c),
		newTokenCmd(c),
	)
	return root
}

// readJSON decodes the file at path into out
func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

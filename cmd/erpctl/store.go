package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	envconfig "github.com/hirosato/construction-erp/internal/common/config"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/client"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/repository"
	"github.com/hirosato/construction-erp/internal/platform/postgres"
)

// loadConfig reads the environment and checks that it selects driver
func loadConfig(driver string) (*envconfig.Config, error) {
	cfg, err := envconfig.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.StoreDriver != driver {
		return nil, fmt.Errorf("STORE_DRIVER is %q; this command needs %q", cfg.StoreDriver, driver)
	}
	return cfg, nil
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envconfig.StorePostgres)
			if err != nil {
				return err
			}

			db, err := postgres.Open(cfg.Database.DSN(), c.logger)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := postgres.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			c.logger.Info("schema migrated", zap.String("database", cfg.Database.Name))
			fmt.Fprintf(cmd.OutOrStdout(), "migrated database %s\n", cfg.Database.Name)
			return nil
		},
	}
}

func newCreateTableCmd(c *cli) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "create-table",
		Short: "Create the DynamoDB table and wait until it is active",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envconfig.StoreDynamoDB)
			if err != nil {
				return err
			}

			ddb, err := client.NewDynamoDBClient(cmd.Context(), cfg.AWSRegion, cfg.DynamoDBEndpoint, c.logger)
			if err != nil {
				return fmt.Errorf("dynamodb client: %w", err)
			}

			created, err := repository.CreateTable(cmd.Context(), ddb, cfg.DynamoDBTableName, wait)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created table %s\n", cfg.DynamoDBTableName)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "table %s already exists\n", cfg.DynamoDBTableName)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 2*time.Minute, "How long to wait for the table to become active")
	return cmd
}

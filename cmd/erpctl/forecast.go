package main

import (
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/domain/forecast"
)

func newForecastCmd(c *cli) *cobra.Command {
	var (
		file      string
		months    int
		scenarios bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast monthly cash flow from a history file",
		Long: `Forecast reads a JSON array of monthly cash movements, e.g.

  [{"month": "2025-01", "cashInflow": "12000", "cashOutflow": "9000"}, ...]

and projects inflow and outflow from their average and trend. At least three
months of history are needed. Months may appear in any order.`,
		Example: `  erpctl forecast --file history.json
  erpctl forecast --file history.json --months 6 --scenarios`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var history []forecast.HistoricalMonth
			if err := readJSON(file, &history); err != nil {
				return err
			}

			// Forecast expects the most recent month first
			sort.Slice(history, func(i, j int) bool { return history[i].Month > history[j].Month })
			for i := range history {
				history[i].NetFlow = history[i].Inflow.Sub(history[i].Outflow)
			}

			c.logger.Info("forecasting",
				zap.String("file", file),
				zap.Int("historyMonths", len(history)),
				zap.Int("months", months))

			if scenarios {
				result, err := forecast.GenerateScenarios(history, months)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			}
			result, err := forecast.Forecast(history, months)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "History JSON file")
	cmd.Flags().IntVar(&months, "months", 3, "Months to project")
	cmd.Flags().BoolVar(&scenarios, "scenarios", false, "Include optimistic and pessimistic scenarios")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

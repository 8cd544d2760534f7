package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hirosato/construction-erp/internal/domain/project"
	"github.com/hirosato/construction-erp/internal/domain/risk"
)

// projectFile is the project snapshot read by the risk command
type projectFile struct {
	Budget          decimal.Decimal `json:"budget"`
	Spent           decimal.Decimal `json:"spent"`
	PlannedProgress decimal.Decimal `json:"plannedProgress"`
	ActualProgress  decimal.Decimal `json:"actualProgress"`
	Status          string          `json:"status"`
	OverdueInvoices int             `json:"overdueInvoices"`
}

func newRiskCmd(c *cli) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Score the risk of a project snapshot",
		Example: `  erpctl risk --file project.json

  project.json:
  {"budget": "100000", "spent": "85000", "plannedProgress": 60,
   "actualProgress": 45, "status": "Active", "overdueInvoices": 2}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in projectFile
			if err := readJSON(file, &in); err != nil {
				return err
			}

			status := project.Active
			if in.Status != "" {
				st, ok := project.ParseStatus(in.Status)
				if !ok {
					return fmt.Errorf("unknown project status %q", in.Status)
				}
				status = st
			}

			result := risk.Score(risk.Snapshot{
				Budget:          in.Budget,
				Spent:           in.Spent,
				PlannedProgress: in.PlannedProgress,
				ActualProgress:  in.ActualProgress,
				Status:          status,
				OverdueInvoices: in.OverdueInvoices,
			})
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Project snapshot JSON file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

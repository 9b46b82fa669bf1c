package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/onboardlens/onboardlens/pkg/funnel"
	"github.com/onboardlens/onboardlens/pkg/models"
)

type calcOutput struct {
	Report   models.ReportData      `json:"report"`
	Analysis []models.StepAnalysis  `json:"analysis"`
	Summary  models.AnalysisSummary `json:"summary"`
}

// newCalcCmd computes a report offline, without a database.
func newCalcCmd() *cobra.Command {
	var (
		steps       []string
		completions []int64
		totalUsers  int64
		at          string
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute funnel metrics from step completion counts",
		Example: "  onboardlens calc --steps 'Sign up,Verify email,First project' " +
			"--completions 1000,640,310 --total 1000",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(steps) == 0 {
				return fmt.Errorf("--steps must name at least one step")
			}
			if totalUsers < 0 {
				return fmt.Errorf("--total must not be negative")
			}

			generatedAt := time.Now().UTC()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be an RFC 3339 timestamp: %w", err)
				}
				generatedAt = t
			}

			data := funnel.Calculate(completions, totalUsers, steps, generatedAt)
			analysis := funnel.Analyze(&models.FunnelReport{ReportData: data, GeneratedAt: generatedAt})

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(calcOutput{Report: data, Analysis: analysis.Steps, Summary: analysis.Summary})
		},
	}

	cmd.Flags().StringSliceVar(&steps, "steps", nil, "ordered, comma-separated step names")
	cmd.Flags().Int64SliceVar(&completions, "completions", nil, "users completing each step, in step order")
	cmd.Flags().Int64Var(&totalUsers, "total", 0, "users who entered the funnel")
	cmd.Flags().StringVar(&at, "at", "", "report timestamp in RFC 3339 (default: now)")
	_ = cmd.MarkFlagRequired("steps")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/crm-tasks/internal/report"
)

var (
	summaryHours int
	summaryJSON  bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show task generation activity over a lookback window",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		summary, err := report.NewCollector(st).Collect(cmd.Context(), summaryHours)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if summaryJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}

		fmt.Fprintf(out, "Task generation, last %dh\n", summary.LookbackHours)
		fmt.Fprintf(out, "  attempts:      %d\n", summary.TotalAttempts)
		fmt.Fprintf(out, "  tasks created: %d\n", summary.TasksCreated)
		fmt.Fprintf(out, "  failures:      %d (%.1f%%)\n", summary.Failures, summary.FailRate*100)
		fmt.Fprintf(out, "  leads touched: %d\n", summary.LeadsTouched)
		fmt.Fprintf(out, "  protected:     ₹%.0f\n", summary.ProtectedValue)
		if len(summary.ByRule) > 0 {
			fmt.Fprintln(out, "  by rule:")
			for rule, n := range summary.ByRule {
				fmt.Fprintf(out, "    %-40s %d\n", rule, n)
			}
		}
		return nil
	},
}

func init() {
	summaryCmd.Flags().IntVar(&summaryHours, "hours", 24, "lookback window in hours")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "output JSON")
	rootCmd.AddCommand(summaryCmd)
}

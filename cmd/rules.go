package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/crm-tasks/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active business rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, rule := range rules.DefaultRules(cfg.Engine) {
			state := "enabled"
			if !rule.Enabled {
				state = "disabled"
			}
			fmt.Fprintf(out, "%-35s %-8s SLA %3dh  %s\n", rule.ID, rule.Priority, rule.SLAHours, state)
			fmt.Fprintf(out, "    %s\n", rule.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-tasks/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crm-tasks",
	Short: "Rule-based follow-up task generation for CRM leads",
	Long:  "Consumes lead and quotation lifecycle events, evaluates business rules, and generates SLA-bound follow-up tasks assigned by department, designation, and workload.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

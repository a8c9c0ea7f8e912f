package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-tasks/internal/store"
)

var employeesCSVPath string

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Manage the employee directory",
}

var employeesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import employees from a CRM CSV export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		pg, ok := st.(*store.PostgresStore)
		if !ok {
			return eris.New("employee import requires the postgres driver")
		}

		upserted, err := store.ImportEmployeesCSV(ctx, pg.Pool(), employeesCSVPath)
		if err != nil {
			return eris.Wrap(err, "import employees")
		}

		zap.L().Info("employee import complete",
			zap.Int64("upserted", upserted),
			zap.String("csv", employeesCSVPath),
		)
		return nil
	},
}

func init() {
	employeesImportCmd.Flags().StringVar(&employeesCSVPath, "csv", "", "path to CSV file (required)")
	_ = employeesImportCmd.MarkFlagRequired("csv")
	employeesCmd.AddCommand(employeesImportCmd)
	rootCmd.AddCommand(employeesCmd)
}

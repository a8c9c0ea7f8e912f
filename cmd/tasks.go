package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	tasksLeadID int
	tasksJSON   bool
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List generated tasks for a lead",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tasksLeadID == 0 {
			return eris.New("--lead is required")
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		tasks, err := st.ListTasksByLead(cmd.Context(), tasksLeadID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if tasksJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(tasks)
		}

		if len(tasks) == 0 {
			fmt.Fprintf(out, "no tasks for lead %d\n", tasksLeadID)
			return nil
		}
		for _, task := range tasks {
			fmt.Fprintf(out, "%-10s %-45s %-20s due %s\n",
				task.Priority, task.Title, task.AssignedToName, task.DueDate.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	tasksCmd.Flags().IntVar(&tasksLeadID, "lead", 0, "lead id (required)")
	tasksCmd.Flags().BoolVar(&tasksJSON, "json", false, "output JSON")
	rootCmd.AddCommand(tasksCmd)
}

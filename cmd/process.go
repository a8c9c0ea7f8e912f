package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crm-tasks/internal/engine"
	"github.com/sells-group/crm-tasks/internal/model"
)

var processFile string

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a single lead event from a JSON file or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if processFile != "" {
			f, err := os.Open(processFile)
			if err != nil {
				return eris.Wrap(err, "open event file")
			}
			defer f.Close()
			in = f
		}

		var event model.LeadEvent
		if err := json.NewDecoder(in).Decode(&event); err != nil {
			return eris.Wrap(err, "decode event")
		}
		if event.EventType == "" {
			return eris.New("event_type is required")
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		svc := engine.New(st, engine.WithConfig(cfg.Engine))
		result := svc.ProcessLeadEvent(cmd.Context(), event)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	processCmd.Flags().StringVarP(&processFile, "file", "f", "", "event JSON file (default stdin)")
	rootCmd.AddCommand(processCmd)
}

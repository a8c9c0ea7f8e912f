package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/crm-tasks/internal/engine"
	"github.com/sells-group/crm-tasks/internal/model"
)

var (
	replayFile        string
	replayConcurrency int
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay lead events from an NDJSON file",
	Long:  "Reads one lead event per line and processes them concurrently. Idempotency makes replays safe: events whose tasks already exist generate nothing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayFile == "" {
			return eris.New("--file is required")
		}
		f, err := os.Open(replayFile)
		if err != nil {
			return eris.Wrap(err, "open replay file")
		}
		defer f.Close()

		var events []model.LeadEvent
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			if len(scanner.Bytes()) == 0 {
				continue
			}
			var event model.LeadEvent
			if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
				return eris.Wrapf(err, "decode event at line %d", line)
			}
			events = append(events, event)
		}
		if err := scanner.Err(); err != nil {
			return eris.Wrap(err, "read replay file")
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		svc := engine.New(st, engine.WithConfig(cfg.Engine))

		concurrency := replayConcurrency
		if concurrency == 0 {
			concurrency = cfg.Replay.MaxConcurrentEvents
		}

		var generated, failed atomic.Int64
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(concurrency)
		for _, event := range events {
			g.Go(func() error {
				result := svc.ProcessLeadEvent(ctx, event)
				if !result.Success {
					failed.Add(1)
					zap.L().Warn("replay: event failed",
						zap.Int("lead_id", event.LeadID),
						zap.String("error", result.Error),
					)
					return nil
				}
				generated.Add(int64(result.TasksGenerated))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "replayed %d events: %d tasks generated, %d events failed\n",
			len(events), generated.Load(), failed.Load())
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "NDJSON event file")
	replayCmd.Flags().IntVar(&replayConcurrency, "concurrency", 0, "max concurrent events (default from config)")
	rootCmd.AddCommand(replayCmd)
}

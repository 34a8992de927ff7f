package main

import (
	"fmt"

	"github.com/redcell/swarm/internal/eventlog"
	"github.com/spf13/cobra"
)

// buildLogsCmd groups the "list logs" and "replay <session_id>" CLI
// surface spec.md §6 requires.
func buildLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect and replay past sessions",
	}
	cmd.AddCommand(buildLogsListCmd(), buildLogsReplayCmd())
	return cmd
}

func buildLogsListCmd() *cobra.Command {
	var configPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List past sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store := eventlog.NewFileStore(logDirOrDefault(cfg.EventLog.Directory))

			summaries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("swarmctl: list sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "no sessions logged")
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(out, "%s  %s  events=%d  model=%s  %q\n",
					s.SessionID, s.StartTime.Format("2006-01-02T15:04:05Z07:00"), s.EventCount, s.ModelLabel, s.Preview)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")
	return cmd
}

func buildLogsReplayCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "replay <session_id>",
		Short: "Replay a past session's events without calling the LLM or tools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store := eventlog.NewFileStore(logDirOrDefault(cfg.EventLog.Directory))

			events, err := eventlog.Replay(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			return printEvents(cmd.OutOrStdout(), events, nil)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

func logDirOrDefault(dir string) string {
	if dir == "" {
		return "./logs"
	}
	return dir
}

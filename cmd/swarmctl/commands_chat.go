package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redcell/swarm/internal/eventlog"
	"github.com/redcell/swarm/internal/executor"
	"github.com/redcell/swarm/internal/identity"
	"github.com/spf13/cobra"
)

// buildChatCmd starts an interactive session: a read-eval-print loop that
// feeds each line of operator input through one executor.Execute turn and
// prints the resulting Event stream, per spec.md §6's "start interactive
// session" CLI surface requirement.
func buildChatCmd() *cobra.Command {
	var configPath, model, userFingerprint string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session with the agent swarm",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(configPath, model)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.tools.EnsureContainer(cmd.Context()); err != nil {
				return fmt.Errorf("swarmctl: tool server unreachable: %w", err)
			}

			if userFingerprint == "" {
				if host, err := os.Hostname(); err == nil {
					userFingerprint = host
				} else {
					userFingerprint = "swarmctl"
				}
			}
			userID := identity.DeriveUserID(userFingerprint, time.Now())
			conversationID := uuid.NewString()
			threadID := identity.DeriveThreadID(userID, conversationID)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "swarmctl chat - thread %s. Type 'exit' to quit.\n", threadID)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				line := scanner.Text()
				if line == "exit" || line == "quit" {
					break
				}
				if line == "" {
					continue
				}

				events, err := rt.currentExecutor().Execute(ctx, line, executor.Config{ThreadID: threadID, ModelLabel: model})
				if err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}
				var publish func(*eventlog.Event)
				if rt.stream != nil {
					publish = func(ev *eventlog.Event) { rt.stream.Publish(threadID, ev) }
				}
				if err := printEvents(out, events, publish); err != nil && err != io.EOF {
					fmt.Fprintf(out, "error: %v\n", err)
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringVarP(&model, "model", "m", "", "LLM provider to use (overrides llm.default_provider)")
	cmd.Flags().StringVar(&userFingerprint, "user", "", "Stable identifier for memory/thread derivation (default: hostname)")
	return cmd
}

// printEvents renders a stream of eventlog.Event to out, in the order the
// executor or Replay emits them. If publish is non-nil, every event is
// also forwarded to it (chat wires this to streamui.Server.Publish; logs
// replay leaves it nil, since a replayed session has no live subscriber).
func printEvents(out io.Writer, events <-chan *eventlog.Event, publish func(*eventlog.Event)) error {
	for ev := range events {
		if publish != nil {
			publish(ev)
		}
		switch ev.Kind {
		case eventlog.EventMessage:
			rec := ev.Message
			switch rec.MessageType {
			case "tool":
				fmt.Fprintf(out, "[%s] %s: %s\n", rec.AgentName, rec.ToolName, rec.Content)
			default:
				if rec.AgentName != "" {
					fmt.Fprintf(out, "%s: %s\n", rec.AgentName, rec.Content)
				} else {
					fmt.Fprintf(out, "%s\n", rec.Content)
				}
			}
		case eventlog.EventWorkflowComplete:
			fmt.Fprintf(out, "-- turn complete (%d steps) --\n", ev.StepCount)
		case eventlog.EventError:
			fmt.Fprintf(out, "error: %s\n", ev.Err)
		}
	}
	return nil
}

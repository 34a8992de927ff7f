// Package main provides the CLI entry point for swarmctl, the red-team
// swarm orchestrator's operator console.
//
// swarmctl drives the planner / reconnaissance / initial-access / summary
// agent swarm (C4) through the Workflow Executor (C6), against a Tool
// Server-backed container (C1) and an append-only per-session event log
// (C7).
//
// # Basic usage
//
// Start an interactive session:
//
//	swarmctl chat --config swarm.yaml
//
// List past sessions and replay one:
//
//	swarmctl logs list
//	swarmctl logs replay <session_id>
//
// Show the effective configuration:
//
//	swarmctl config show
//
// # Environment variables
//
// Provider API keys are read the way spec.md §6 names them:
// ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY. DOCKER_CONTAINER,
// DEBUG_MODE and CHAT_HEIGHT, when set, override the tool_server container,
// debug and chat_height_hint settings.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to load env file", "file", f, "error", err)
		}
	}

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Kept separate from main so tests can exercise it without os.Exit.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "swarmctl",
		Short: "swarmctl - red-team agent swarm orchestrator",
		Long: `swarmctl drives a swarm of specialized agents - planner, reconnaissance,
initial-access, summary - against a sandboxed container's offensive tools
over one conversation thread, narrating progress and persisting a
replayable session log.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildChatCmd(),
		buildModelCmd(),
		buildLogsCmd(),
		buildConfigCmd(),
	)

	return rootCmd
}

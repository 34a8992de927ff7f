package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildModelCmd lists the LLM providers/models available to the running
// configuration, per spec.md §6's "select model" CLI surface requirement.
// Selection itself happens via chat's --model flag; this command is the
// read side operators use to see what's configured.
func buildModelCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "model",
		Short: "List configured LLM providers and models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cfg.LLM.Providers) == 0 {
				fmt.Fprintln(out, "no llm.providers configured")
				return nil
			}

			for name, p := range cfg.LLM.Providers {
				marker := " "
				if name == cfg.LLM.DefaultProvider {
					marker = "*"
				}
				model := p.DefaultModel
				if model == "" {
					model = "(provider default)"
				}
				fmt.Fprintf(out, "%s %s -> %s\n", marker, name, model)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "config",
		Short:        "Validate the config and print the resolved debate setup",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rounds: %d\n", cfg.Debate.Rounds)
			fmt.Fprintf(out, "clarifications: %v\n", cfg.Debate.Clarifications)
			fmt.Fprintf(out, "on_agent_failure: %s\n", cfg.Debate.FailurePolicy())
			fmt.Fprintf(out, "max_tool_iterations: %d\n", cfg.Budgets.MaxToolIterations)
			fmt.Fprintln(out, "agents:")
			for name, a := range cfg.Agents {
				judge := ""
				if name == cfg.Debate.Judge {
					judge = " (judge)"
				}
				fmt.Fprintf(out, "  %s: type=%s role=%s%s\n", name, a.Type, a.Role, judge)
			}
			for _, t := range cfg.Tools {
				fmt.Fprintf(out, "tool server: %s (%v)\n", t.Name, t.Cmd)
			}
			return nil
		},
	}
	return cmd
}

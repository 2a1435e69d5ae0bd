package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forumlabs/moot/internal/db"
)

func debatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "debates [debate-id]",
		Short:        "List stored debates or show one in full",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, _, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()
			store := db.NewStore(storeDB)

			if len(args) == 1 {
				return showDebate(cmd, store, args[0])
			}

			debates, err := store.ListDebates(cmd.Context())
			if err != nil {
				return err
			}
			if len(debates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no debates recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tROUNDS\tPROBLEM")
			for _, d := range debates {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", d.DebateID, d.CreatedAt, d.Status, d.Rounds, truncate(d.Problem, 60))
			}
			return w.Flush()
		},
	}
	return cmd
}

func showDebate(cmd *cobra.Command, store *db.Store, id string) error {
	record, err := store.GetDebate(cmd.Context(), id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("debate %q not found", id)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Problem: %s\n", record.Problem)
	fmt.Fprintf(out, "Status:  %s (%d rounds, %d ms)\n", record.Status, record.Rounds, record.DurationMs)
	if record.Error != "" {
		fmt.Fprintf(out, "Error:   %s\n", record.Error)
	}

	contributions, err := store.ListContributions(cmd.Context(), id)
	if err != nil {
		return err
	}
	for _, c := range contributions {
		marker := ""
		if c.Failed {
			marker = " [failed]"
		}
		fmt.Fprintf(out, "\n-- round %d / %s / %s%s --\n%s\n", c.Round, c.Phase, c.AgentID, marker, c.Content)
	}

	if record.Solution != "" {
		fmt.Fprintf(out, "\n== Solution ==\n%s\n", record.Solution)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

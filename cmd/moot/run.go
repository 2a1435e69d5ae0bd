package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/forumlabs/moot/internal/db"
	"github.com/forumlabs/moot/internal/debate"
	"github.com/forumlabs/moot/internal/run"
	"github.com/forumlabs/moot/internal/tool"
)

func runCmd() *cobra.Command {
	var rounds int
	var clarifications bool
	cmd := &cobra.Command{
		Use:          "run <problem>",
		Short:        "Run a debate over the given problem statement",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			problem := strings.TrimSpace(strings.Join(args, " "))
			if problem == "" {
				return fmt.Errorf("problem statement is empty")
			}

			storeDB, root, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if rounds > 0 {
				cfg.Debate.Rounds = rounds
			}
			if cmd.Flags().Changed("clarifications") {
				cfg.Debate.Clarifications = clarifications
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			registry := tool.NewRegistry()
			for _, serverCfg := range cfg.Tools {
				server, err := tool.ConnectMCP(ctx, serverCfg)
				if err != nil {
					return err
				}
				defer func() { _ = server.Close() }()
				if err := server.Register(ctx, registry); err != nil {
					return err
				}
			}

			opts := run.Options{
				Config:   cfg,
				Store:    db.NewStore(storeDB),
				Registry: registry,
			}
			if cfg.Debate.Clarifications {
				opts.Answerer = &stdinAnswerer{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
			}

			runner, err := run.NewRunner(opts)
			if err != nil {
				return err
			}

			result, err := runner.Run(ctx, problem)
			if err != nil {
				return err
			}

			log.Info().Str("debate_id", result.DebateID).Msg("debate finished")
			fmt.Fprintln(cmd.OutOrStdout(), result.Solution.Content)
			return nil
		},
	}
	cmd.Flags().IntVar(&rounds, "rounds", 0, "override the configured round count")
	cmd.Flags().BoolVar(&clarifications, "clarifications", false, "collect clarifying questions before the debate")
	return cmd
}

// stdinAnswerer asks the user to answer each clarifying question on the
// terminal. An empty line leaves the question unanswered.
type stdinAnswerer struct {
	in  io.Reader
	out io.Writer
}

func (a *stdinAnswerer) Answer(ctx context.Context, questions []debate.AgentClarifications) ([]debate.AgentClarifications, error) {
	scanner := bufio.NewScanner(a.in)
	for gi := range questions {
		for ii := range questions[gi].Items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			fmt.Fprintf(a.out, "[%s] %s\n> ", questions[gi].AgentID, questions[gi].Items[ii].Question)
			if !scanner.Scan() {
				return questions, scanner.Err()
			}
			questions[gi].Items[ii].Answer = strings.TrimSpace(scanner.Text())
		}
	}
	return questions, nil
}

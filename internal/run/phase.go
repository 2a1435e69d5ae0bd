package run

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/forumlabs/moot/internal/config"
	"github.com/forumlabs/moot/internal/debate"
	"github.com/forumlabs/moot/internal/turn"
)

// Participant is one debating agent with its invoker.
type Participant struct {
	ID      string
	Role    string
	Invoker turn.Invoker
}

// promptFunc builds the conversation for one participant from the current
// debate snapshot.
type promptFunc func(p Participant, snapshot debate.State) []turn.Message

var phaseActivities = map[debate.Phase]string{
	debate.PhaseProposal:   "drafting proposal",
	debate.PhaseCritique:   "critiquing proposals",
	debate.PhaseRefinement: "refining proposal",
}

// runPhase is the barrier: it launches one turn per participant, joins them
// all, and completes the phase only once every expected contribution is in.
// Contribution order is completion order. A failed turn becomes a recorded
// failure note under the continue policy; under abort it cancels the
// remaining turns and fails the phase.
func (r *Runner) runPhase(ctx context.Context, round int, phase debate.Phase) error {
	if _, err := r.machine.Apply(debate.PhaseStarted{
		Round:         round,
		Phase:         phase,
		ExpectedCount: len(r.participants),
	}); err != nil {
		return err
	}
	log.Info().Int("round", round).Str("phase", string(phase)).Int("agents", len(r.participants)).Msg("phase started")

	snapshot := r.machine.Snapshot()
	prompt := phasePrompts[phase]

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range r.participants {
		g.Go(func() error {
			return r.runAgentTurn(gctx, p, round, phase, prompt(p, snapshot))
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("round %d %s phase: %w", round, phase, err)
	}

	if _, err := r.machine.Apply(debate.PhaseCompleted{Round: round, Phase: phase}); err != nil {
		return err
	}
	log.Info().Int("round", round).Str("phase", string(phase)).Msg("phase completed")
	return nil
}

func (r *Runner) runAgentTurn(ctx context.Context, p Participant, round int, phase debate.Phase, messages []turn.Message) error {
	if _, err := r.machine.Apply(debate.AgentStarted{AgentID: p.ID, Activity: phaseActivities[phase]}); err != nil {
		return err
	}
	defer func() {
		if _, err := r.machine.Apply(debate.AgentCompleted{AgentID: p.ID}); err != nil {
			log.Warn().Str("agent", p.ID).Err(err).Msg("agent completion not recorded")
		}
	}()

	outcome, err := r.turns.RunTurn(ctx, p.Invoker, messages)
	if err != nil {
		// A cancelled debate aborts the phase regardless of policy.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		r.notifier.Error(fmt.Sprintf("agent %s failed during %s: %v", p.ID, phase, err))
		if r.cfg.Debate.FailurePolicy() == config.FailureAbort {
			return fmt.Errorf("agent %s: %w", p.ID, err)
		}

		log.Warn().Str("agent", p.ID).Str("phase", string(phase)).Err(err).Msg("continuing with failure note")
		_, aerr := r.machine.Apply(debate.ContributionCreated{Contribution: debate.Contribution{
			AgentID:   p.ID,
			AgentRole: p.Role,
			Type:      phase,
			Round:     round,
			Content:   fmt.Sprintf("(no contribution: %v)", err),
			Failed:    true,
		}})
		return aerr
	}

	_, err = r.machine.Apply(debate.ContributionCreated{Contribution: debate.Contribution{
		AgentID:   p.ID,
		AgentRole: p.Role,
		Type:      phase,
		Round:     round,
		Content:   outcome.Content,
	}})
	if err != nil {
		return err
	}

	if outcome.Metadata.Iterations > 0 {
		log.Debug().Str("agent", p.ID).Int("iterations", outcome.Metadata.Iterations).
			Int("tool_calls", len(outcome.Metadata.ToolCalls)).Msg("turn used tools")
	}
	return nil
}

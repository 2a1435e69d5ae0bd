// Package run orchestrates a debate end to end: configuration events,
// optional clarifications, the round/phase loop, and final synthesis.
package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/forumlabs/moot/internal/agent"
	"github.com/forumlabs/moot/internal/config"
	"github.com/forumlabs/moot/internal/db"
	"github.com/forumlabs/moot/internal/debate"
	"github.com/forumlabs/moot/internal/tool"
	"github.com/forumlabs/moot/internal/turn"
)

// Answerer supplies answers for the clarification phase. Without one the
// phase is skipped with a warning.
type Answerer interface {
	Answer(ctx context.Context, questions []debate.AgentClarifications) ([]debate.AgentClarifications, error)
}

// TurnRunner runs one agent turn. Satisfied by *turn.Executor.
type TurnRunner interface {
	RunTurn(ctx context.Context, invoker turn.Invoker, messages []turn.Message) (turn.Outcome, error)
}

// Options configures a Runner. Config is required; everything else is
// optional.
type Options struct {
	Config   config.Config
	Machine  *debate.Machine
	Store    *db.Store
	Registry *tool.Registry
	Answerer Answerer
	Turns    TurnRunner
}

// Runner executes one debate.
type Runner struct {
	cfg          config.Config
	machine      *debate.Machine
	notifier     *debate.Notifier
	turns        TurnRunner
	participants []Participant
	judge        Participant
	store        *db.Store
	answerer     Answerer

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRunner validates the configuration and builds invokers for every
// configured agent.
func NewRunner(opts Options) (*Runner, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	machine := opts.Machine
	if machine == nil {
		machine = debate.NewMachine()
	}

	registry := opts.Registry
	if registry == nil {
		registry = tool.NewRegistry()
	}

	turns := opts.Turns
	if turns == nil {
		turns = turn.NewExecutor(registry, cfg.Budgets.MaxToolIterations, cfg.Budgets.TurnTimeout())
	}

	names := make([]string, 0, len(cfg.Agents))
	for name := range cfg.Agents {
		names = append(names, name)
	}
	sort.Strings(names)

	participants := make([]Participant, 0, len(names))
	for _, name := range names {
		agentCfg := cfg.Agents[name]
		invoker, err := agent.NewInvoker(name, agentCfg, cfg.Budgets.TurnTimeout())
		if err != nil {
			return nil, fmt.Errorf("init agent %q: %w", name, err)
		}
		participants = append(participants, Participant{ID: name, Role: agentCfg.Role, Invoker: invoker})
	}

	judge := participants[0]
	if cfg.Debate.Judge != "" {
		for _, p := range participants {
			if p.ID == cfg.Debate.Judge {
				judge = p
				break
			}
		}
	}

	return &Runner{
		cfg:          cfg,
		machine:      machine,
		notifier:     debate.NewNotifier(machine),
		turns:        turns,
		participants: participants,
		judge:        judge,
		store:        opts.Store,
		answerer:     opts.Answerer,
	}, nil
}

// Machine exposes the state machine for observers.
func (r *Runner) Machine() *debate.Machine {
	return r.machine
}

// Cancel aborts the running debate. Outstanding turns are interrupted and
// the debate lands in the cancelled terminal state.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Run executes the debate for the given problem and returns the final
// result. The debate is journaled to the store as it progresses.
func (r *Runner) Run(ctx context.Context, problem string) (debate.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	debateID := uuid.NewString()
	startedAt := time.Now().UTC()
	log.Info().Str("debate_id", debateID).Int("rounds", r.cfg.Debate.Rounds).
		Int("agents", len(r.participants)).Msg("debate starting")

	if r.store != nil {
		if err := r.store.CreateDebate(ctx, debateID, problem, r.cfg.Debate.Rounds); err != nil {
			return debate.Result{}, err
		}
		r.journalEvents(debateID)
	}

	result, err := r.execute(ctx, debateID, problem, startedAt)
	if err != nil {
		r.fail(ctx, debateID, startedAt, err)
		return debate.Result{}, err
	}

	if r.store != nil {
		if serr := r.store.FinishDebate(context.WithoutCancel(ctx), debateID, "completed",
			result.Solution.Content, "", result.Metadata.DurationMs); serr != nil {
			log.Warn().Err(serr).Msg("debate outcome not persisted")
		}
	}
	log.Info().Str("debate_id", debateID).Int64("duration_ms", result.Metadata.DurationMs).Msg("debate completed")
	return result, nil
}

func (r *Runner) execute(ctx context.Context, debateID, problem string, startedAt time.Time) (debate.Result, error) {
	setup := []debate.Event{
		debate.ProblemSet{Problem: problem},
		debate.RoundsSet{Rounds: r.cfg.Debate.Rounds},
		debate.ClarificationsToggled{Enabled: r.cfg.Debate.Clarifications},
		debate.ConnectionEstablished{Agents: r.roster(), Judge: r.judge.ID},
		debate.DebateStarted{},
	}
	for _, ev := range setup {
		if _, err := r.machine.Apply(ev); err != nil {
			return debate.Result{}, err
		}
	}

	if r.cfg.Debate.Clarifications {
		if err := r.collectClarifications(ctx); err != nil {
			return debate.Result{}, err
		}
	}

	for round := 1; round <= r.cfg.Debate.Rounds; round++ {
		if _, err := r.machine.Apply(debate.RoundStarted{Round: round}); err != nil {
			return debate.Result{}, err
		}
		for _, phase := range debate.PhaseOrder {
			if err := r.runPhase(ctx, round, phase); err != nil {
				return debate.Result{}, err
			}
		}
	}

	solution, err := r.synthesize(ctx)
	if err != nil {
		return debate.Result{}, err
	}

	snapshot := r.machine.Snapshot()
	result := debate.Result{
		DebateID: debateID,
		Solution: solution,
		Rounds:   snapshot.Rounds,
		Metadata: debate.ResultMetadata{
			TotalRounds: r.cfg.Debate.Rounds,
			DurationMs:  time.Since(startedAt).Milliseconds(),
		},
	}
	if _, err := r.machine.Apply(debate.DebateCompleted{Result: result}); err != nil {
		return debate.Result{}, err
	}
	return result, nil
}

// collectClarifications asks every agent for questions, then routes them to
// the answerer. Without an answerer the questions stay unanswered and the
// debate proceeds with a warning.
func (r *Runner) collectClarifications(ctx context.Context) error {
	snapshot := r.machine.Snapshot()

	var questions []debate.AgentClarifications
	for _, p := range r.participants {
		outcome, err := r.turns.RunTurn(ctx, p.Invoker, clarificationMessages(p, snapshot))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.notifier.Warn(fmt.Sprintf("agent %s produced no clarifying questions: %v", p.ID, err))
			continue
		}
		if items := parseQuestions(outcome.Content); len(items) > 0 {
			questions = append(questions, debate.AgentClarifications{AgentID: p.ID, Items: items})
		}
	}

	if _, err := r.machine.Apply(debate.ClarificationsRequired{Questions: questions}); err != nil {
		return err
	}

	answers := questions
	if len(questions) == 0 {
		// nothing to answer
	} else if r.answerer == nil {
		r.notifier.Warn("clarifications skipped: no answerer available")
	} else {
		answered, err := r.answerer.Answer(ctx, questions)
		if err != nil {
			return fmt.Errorf("answer clarifications: %w", err)
		}
		answers = answered
	}

	_, err := r.machine.Apply(debate.ClarificationsSubmitted{Answers: answers})
	return err
}

func (r *Runner) synthesize(ctx context.Context) (debate.Solution, error) {
	if _, err := r.machine.Apply(debate.SynthesisStarted{AgentID: r.judge.ID}); err != nil {
		return debate.Solution{}, err
	}
	log.Info().Str("judge", r.judge.ID).Msg("synthesis started")

	outcome, err := r.turns.RunTurn(ctx, r.judge.Invoker, synthesisMessages(r.judge, r.machine.Snapshot()))
	if err != nil {
		return debate.Solution{}, fmt.Errorf("synthesis by %s: %w", r.judge.ID, err)
	}

	solution := debate.Solution{Content: outcome.Content, AgentID: r.judge.ID}
	if _, err := r.machine.Apply(debate.SynthesisCompleted{Solution: solution}); err != nil {
		return debate.Solution{}, err
	}
	return solution, nil
}

// fail routes the error into the terminal state, distinguishing
// cancellation from failure.
func (r *Runner) fail(ctx context.Context, debateID string, startedAt time.Time, cause error) {
	status := "error"
	var ev debate.Event
	if errors.Is(cause, context.Canceled) {
		status = "cancelled"
		ev = debate.DebateCancelled{Reason: "debate cancelled"}
	} else {
		ev = debate.DebateFailed{Message: cause.Error()}
	}

	if _, err := r.machine.Apply(ev); err != nil {
		log.Warn().Err(err).Msg("terminal event rejected")
	}
	log.Error().Str("debate_id", debateID).Err(cause).Msg("debate ended abnormally")

	if r.store != nil {
		if err := r.store.FinishDebate(context.WithoutCancel(ctx), debateID, status,
			"", cause.Error(), time.Since(startedAt).Milliseconds()); err != nil {
			log.Warn().Err(err).Msg("debate outcome not persisted")
		}
	}
}

func (r *Runner) roster() []debate.AgentState {
	out := make([]debate.AgentState, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, debate.AgentState{ID: p.ID, Name: p.ID, Role: p.Role})
	}
	return out
}

// journalEvents subscribes a store-backed observer. Journal failures are
// logged, never fatal to the debate.
func (r *Runner) journalEvents(debateID string) {
	store := r.store
	r.machine.Subscribe(func(seq int, ev debate.Event, snapshot debate.State) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		data := marshalEvent(ev)
		if err := store.AppendEvent(ctx, debateID, seq, ev.Kind(), data); err != nil {
			log.Warn().Int("seq", seq).Str("event", ev.Kind()).Err(err).Msg("event not journaled")
		}

		if cc, ok := ev.(debate.ContributionCreated); ok {
			c := cc.Contribution
			if err := store.InsertContribution(ctx, db.ContributionRecord{
				DebateID:  debateID,
				AgentID:   c.AgentID,
				AgentRole: c.AgentRole,
				Round:     c.Round,
				Phase:     string(c.Type),
				Content:   c.Content,
				Failed:    c.Failed,
			}); err != nil {
				log.Warn().Str("agent", c.AgentID).Err(err).Msg("contribution not persisted")
			}
		}
	})
}

func marshalEvent(ev debate.Event) string {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Warn().Str("event", ev.Kind()).Err(err).Msg("event payload not encodable")
		return ""
	}
	return string(data)
}

// parseQuestions extracts one question per non-empty line, dropping list
// markers and the explicit "none" answer.
func parseQuestions(content string) []debate.ClarificationItem {
	var items []debate.ClarificationItem
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		if line == "" || strings.EqualFold(line, "none") {
			continue
		}
		items = append(items, debate.ClarificationItem{Question: line})
	}
	return items
}

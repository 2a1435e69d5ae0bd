package debate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roster() ConnectionEstablished {
	return ConnectionEstablished{
		Agents: []AgentState{
			{ID: "a1", Name: "Athena", Role: "architect"},
			{ID: "a2", Name: "Hermes", Role: "pragmatist"},
		},
		Judge: "a1",
	}
}

// apply reduces a sequence of events, failing the test on any rejection.
func apply(t *testing.T, s State, events ...Event) State {
	t.Helper()
	for _, ev := range events {
		next, err := Reduce(s, ev)
		require.NoError(t, err, "event %s in status %s", ev.Kind(), s.Status)
		s = next
	}
	return s
}

func startedState(t *testing.T, rounds int) State {
	t.Helper()
	return apply(t, NewState(),
		ProblemSet{Problem: "How should we cache session data?"},
		RoundsSet{Rounds: rounds},
		roster(),
		DebateStarted{},
	)
}

func contribution(agentID string, phase Phase, round int) ContributionCreated {
	return ContributionCreated{Contribution: Contribution{
		AgentID: agentID,
		Type:    phase,
		Round:   round,
		Content: "content from " + agentID,
	}}
}

// runFullPhase starts a phase, records one contribution per agent, and
// completes it.
func runFullPhase(t *testing.T, s State, round int, phase Phase) State {
	t.Helper()
	s = apply(t, s, PhaseStarted{Round: round, Phase: phase, ExpectedCount: 2})
	s = apply(t, s,
		contribution("a1", phase, round),
		contribution("a2", phase, round),
		PhaseCompleted{Round: round, Phase: phase},
	)
	return s
}

func TestReduce_StartWithoutClarificationsGoesStraightToRunning(t *testing.T) {
	s := startedState(t, 2)
	assert.Equal(t, StatusRunning, s.Status)
	assert.True(t, s.IsRunning)
	assert.Equal(t, 0, s.CurrentRound)
}

func TestReduce_StartWithClarificationsCollectsFirst(t *testing.T) {
	s := apply(t, NewState(),
		ProblemSet{Problem: "p"},
		RoundsSet{Rounds: 1},
		ClarificationsToggled{Enabled: true},
		roster(),
		DebateStarted{},
	)
	assert.Equal(t, StatusCollectingClarifications, s.Status)

	s = apply(t, s, ClarificationsRequired{Questions: []AgentClarifications{
		{AgentID: "a1", Items: []ClarificationItem{{Question: "Which storage backend?"}}},
	}})
	assert.Equal(t, StatusAwaitingClarifications, s.Status)

	s = apply(t, s, ClarificationsSubmitted{Answers: []AgentClarifications{
		{AgentID: "a1", Items: []ClarificationItem{{Question: "Which storage backend?", Answer: "redis"}}},
	}})
	assert.Equal(t, StatusRunning, s.Status)
	require.Len(t, s.Clarifications, 1)
	assert.Equal(t, "redis", s.Clarifications[0].Items[0].Answer)
}

func TestReduce_StartRequiresProblemRoundsAndRoster(t *testing.T) {
	_, err := Reduce(NewState(), DebateStarted{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s := apply(t, NewState(), ProblemSet{Problem: "p"}, RoundsSet{Rounds: 1})
	_, err = Reduce(s, DebateStarted{})
	assert.ErrorIs(t, err, ErrInvalidTransition, "no roster connected")
}

func TestReduce_ConfigurationOnlyAllowedWhileIdle(t *testing.T) {
	s := startedState(t, 1)

	for _, ev := range []Event{
		ProblemSet{Problem: "other"},
		RoundsSet{Rounds: 5},
		ClarificationsToggled{Enabled: true},
		roster(),
	} {
		next, err := Reduce(s, ev)
		assert.ErrorIs(t, err, ErrInvalidTransition, ev.Kind())
		assert.Equal(t, s, next, "state must be unchanged after rejected %s", ev.Kind())
	}
}

func TestReduce_PhaseStartRejectedWhileIdle(t *testing.T) {
	s := NewState()
	next, err := Reduce(s, PhaseStarted{Round: 1, Phase: PhaseProposal, ExpectedCount: 2})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusIdle, next.Status)
}

func TestReduce_PhasesRunInStrictOrder(t *testing.T) {
	s := startedState(t, 1)
	s = apply(t, s, RoundStarted{Round: 1})

	// Critique cannot open before proposal has completed.
	_, err := Reduce(s, PhaseStarted{Round: 1, Phase: PhaseCritique, ExpectedCount: 2})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s = runFullPhase(t, s, 1, PhaseProposal)

	// Refinement cannot skip critique.
	_, err = Reduce(s, PhaseStarted{Round: 1, Phase: PhaseRefinement, ExpectedCount: 2})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s = runFullPhase(t, s, 1, PhaseCritique)
	s = runFullPhase(t, s, 1, PhaseRefinement)
	assert.True(t, s.Rounds[0].Closed())
}

func TestReduce_CritiqueContributionRejectedBeforeProposalCompletes(t *testing.T) {
	s := startedState(t, 1)
	s = apply(t, s,
		RoundStarted{Round: 1},
		PhaseStarted{Round: 1, Phase: PhaseProposal, ExpectedCount: 2},
	)

	_, err := Reduce(s, contribution("a1", PhaseCritique, 1))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_PhaseCompleteRequiresExpectedCount(t *testing.T) {
	s := startedState(t, 1)
	s = apply(t, s,
		RoundStarted{Round: 1},
		PhaseStarted{Round: 1, Phase: PhaseProposal, ExpectedCount: 3},
	)

	s = apply(t, s, contribution("a1", PhaseProposal, 1))
	_, err := Reduce(s, PhaseCompleted{Round: 1, Phase: PhaseProposal})
	assert.ErrorIs(t, err, ErrInvalidTransition, "1 of 3 contributions")

	s = apply(t, s, contribution("a2", PhaseProposal, 1))
	_, err = Reduce(s, PhaseCompleted{Round: 1, Phase: PhaseProposal})
	assert.ErrorIs(t, err, ErrInvalidTransition, "2 of 3 contributions")
}

func TestReduce_ContributionBeyondExpectedCountRejected(t *testing.T) {
	s := startedState(t, 1)
	s = apply(t, s,
		RoundStarted{Round: 1},
		PhaseStarted{Round: 1, Phase: PhaseProposal, ExpectedCount: 1},
		contribution("a1", PhaseProposal, 1),
	)

	_, err := Reduce(s, contribution("a2", PhaseProposal, 1))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_AgentActivityLifecycle(t *testing.T) {
	s := startedState(t, 1)
	s = apply(t, s, AgentStarted{AgentID: "a1", Activity: "drafting proposal"})
	assert.Equal(t, "drafting proposal", s.Agents[0].CurrentActivity)

	s = apply(t, s, AgentCompleted{AgentID: "a1"})
	assert.Empty(t, s.Agents[0].CurrentActivity)

	_, err := Reduce(s, AgentStarted{AgentID: "ghost", Activity: "x"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_ContributionRecordedOnAgentAndRound(t *testing.T) {
	s := startedState(t, 1)
	s = apply(t, s,
		RoundStarted{Round: 1},
		PhaseStarted{Round: 1, Phase: PhaseProposal, ExpectedCount: 2},
		contribution("a2", PhaseProposal, 1),
		contribution("a1", PhaseProposal, 1),
	)

	// Completion order is preserved on the round.
	require.Len(t, s.Rounds[0].Contributions, 2)
	assert.Equal(t, "a2", s.Rounds[0].Contributions[0].AgentID)
	assert.Equal(t, "a1", s.Rounds[0].Contributions[1].AgentID)

	require.Len(t, s.Agents[0].Contributions, 1)
	require.Len(t, s.Agents[1].Contributions, 1)
}

func TestReduce_SynthesisRequiresAllRoundsClosed(t *testing.T) {
	s := startedState(t, 2)
	s = apply(t, s, RoundStarted{Round: 1})
	s = runFullPhase(t, s, 1, PhaseProposal)

	_, err := Reduce(s, SynthesisStarted{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s = runFullPhase(t, s, 1, PhaseCritique)
	s = runFullPhase(t, s, 1, PhaseRefinement)

	// Round 2 still missing.
	_, err = Reduce(s, SynthesisStarted{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_SolutionSetAtMostOnce(t *testing.T) {
	s := startedState(t, 1)
	s = apply(t, s, RoundStarted{Round: 1})
	for _, phase := range PhaseOrder {
		s = runFullPhase(t, s, 1, phase)
	}
	s = apply(t, s,
		SynthesisStarted{AgentID: "a1"},
		SynthesisCompleted{Solution: Solution{Content: "final", AgentID: "a1"}},
	)
	require.NotNil(t, s.Solution)

	_, err := Reduce(s, SynthesisCompleted{Solution: Solution{Content: "second"}})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_EndToEndTwoRoundsTwoAgents(t *testing.T) {
	s := startedState(t, 2)
	assert.Equal(t, StatusRunning, s.Status, "clarifications disabled starts running directly")

	for round := 1; round <= 2; round++ {
		s = apply(t, s, RoundStarted{Round: round})
		for _, phase := range PhaseOrder {
			s = runFullPhase(t, s, round, phase)
		}
	}

	s = apply(t, s,
		SynthesisStarted{AgentID: "a1"},
		SynthesisCompleted{Solution: Solution{Content: "the answer", AgentID: "a1"}},
		DebateCompleted{Result: Result{
			DebateID: "d1",
			Solution: Solution{Content: "the answer", AgentID: "a1"},
			Rounds:   s.Rounds,
			Metadata: ResultMetadata{TotalRounds: 2, DurationMs: 1200},
		}},
	)

	assert.Equal(t, StatusCompleted, s.Status)
	assert.False(t, s.IsRunning)
	require.NotNil(t, s.Result)
	assert.Equal(t, 2, s.Result.Metadata.TotalRounds)
	assert.Len(t, s.Result.Rounds, 2)
}

func TestReduce_CancellationMidPhaseIsTerminal(t *testing.T) {
	s := startedState(t, 2)
	s = apply(t, s, RoundStarted{Round: 1})
	s = runFullPhase(t, s, 1, PhaseProposal)
	s = apply(t, s,
		PhaseStarted{Round: 1, Phase: PhaseCritique, ExpectedCount: 2},
		contribution("a1", PhaseCritique, 1),
	)

	s = apply(t, s, DebateCancelled{Reason: "cancelled by user"})
	assert.Equal(t, StatusError, s.Status)
	assert.True(t, s.Cancelled)
	assert.Equal(t, "cancelled by user", s.ErrorMessage)

	// No further events of any kind are accepted.
	for _, ev := range []Event{
		contribution("a2", PhaseCritique, 1),
		PhaseCompleted{Round: 1, Phase: PhaseCritique},
		DebateStarted{},
		NotificationAdded{Notification: Notification{ID: "n1"}},
	} {
		next, err := Reduce(s, ev)
		assert.ErrorIs(t, err, ErrInvalidTransition, ev.Kind())
		assert.Equal(t, s, next)
	}
}

func TestReduce_ErrorFromAnyNonTerminalState(t *testing.T) {
	s := apply(t, NewState(), ProblemSet{Problem: "p"})
	s, err := Reduce(s, DebateFailed{Message: "config invalid"})
	require.NoError(t, err)
	assert.Equal(t, StatusError, s.Status)
	assert.False(t, s.Cancelled)
	assert.Equal(t, "config invalid", s.ErrorMessage)
}

func TestReduce_NotificationClearIsIDScoped(t *testing.T) {
	s := NewState()
	for _, id := range []string{"A", "B", "C"} {
		s = apply(t, s, NotificationAdded{Notification: Notification{ID: id, Severity: SeverityInfo, Message: id}})
	}

	s = apply(t, s, NotificationCleared{ID: "B"})
	require.Len(t, s.Notifications, 2)
	assert.Equal(t, "A", s.Notifications[0].ID)
	assert.Equal(t, "C", s.Notifications[1].ID)
}

func TestReduce_InputStateIsNeverMutated(t *testing.T) {
	s := startedState(t, 1)
	s = apply(t, s,
		RoundStarted{Round: 1},
		PhaseStarted{Round: 1, Phase: PhaseProposal, ExpectedCount: 2},
	)

	before := s.clone()
	next := apply(t, s, contribution("a1", PhaseProposal, 1))
	assert.Equal(t, before, s, "input state must stay untouched")
	require.Len(t, next.Rounds[0].Contributions, 1)
	assert.Empty(t, s.Rounds[0].Contributions)
}

func TestReduce_RoundInvariants(t *testing.T) {
	s := startedState(t, 2)

	// Rounds must start at 1 and increase by one.
	_, err := Reduce(s, RoundStarted{Round: 2})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s = apply(t, s, RoundStarted{Round: 1})

	// A new round cannot start while the current one is open.
	_, err = Reduce(s, RoundStarted{Round: 2})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	for _, phase := range PhaseOrder {
		s = runFullPhase(t, s, 1, phase)
	}
	s = apply(t, s, RoundStarted{Round: 2})
	for _, phase := range PhaseOrder {
		s = runFullPhase(t, s, 2, phase)
	}

	// Round 3 exceeds the configured total.
	_, err = Reduce(s, RoundStarted{Round: 3})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

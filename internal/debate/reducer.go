package debate

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition marks an event delivered in a state that forbids it.
// The caller's state is left unchanged; this is a local validation failure,
// never a debate-level error.
var ErrInvalidTransition = errors.New("invalid transition")

func invalid(s State, ev Event, detail string) error {
	if detail == "" {
		return fmt.Errorf("%w: %s not allowed in status %s", ErrInvalidTransition, ev.Kind(), s.Status)
	}
	return fmt.Errorf("%w: %s in status %s: %s", ErrInvalidTransition, ev.Kind(), s.Status, detail)
}

// Reduce applies one event to the state and returns the next state. It is a
// pure function: on success the returned state is a fresh deep copy, and on
// error the input state is returned untouched alongside ErrInvalidTransition.
func Reduce(s State, ev Event) (State, error) {
	if s.Terminal() {
		return s, invalid(s, ev, "debate is terminal")
	}

	switch e := ev.(type) {
	case ProblemSet:
		if s.Status != StatusIdle {
			return s, invalid(s, ev, "")
		}
		next := s.clone()
		next.Problem = e.Problem
		return next, nil

	case RoundsSet:
		if s.Status != StatusIdle {
			return s, invalid(s, ev, "")
		}
		if e.Rounds < 1 {
			return s, invalid(s, ev, "rounds must be >= 1")
		}
		next := s.clone()
		next.TotalRounds = e.Rounds
		return next, nil

	case ClarificationsToggled:
		if s.Status != StatusIdle {
			return s, invalid(s, ev, "")
		}
		next := s.clone()
		next.ClarificationsEnabled = e.Enabled
		return next, nil

	case ConnectionEstablished:
		if s.Status != StatusIdle {
			return s, invalid(s, ev, "")
		}
		next := s.clone()
		next.Agents = make([]AgentState, len(e.Agents))
		for i, a := range e.Agents {
			next.Agents[i] = AgentState{ID: a.ID, Name: a.Name, Role: a.Role}
		}
		next.Judge = e.Judge
		return next, nil

	case DebateStarted:
		if s.Status != StatusIdle {
			return s, invalid(s, ev, "")
		}
		if s.Problem == "" {
			return s, invalid(s, ev, "problem is not set")
		}
		if s.TotalRounds < 1 {
			return s, invalid(s, ev, "rounds are not set")
		}
		if len(s.Agents) == 0 {
			return s, invalid(s, ev, "no agents connected")
		}
		next := s.clone()
		next.IsRunning = true
		if s.ClarificationsEnabled {
			next.Status = StatusCollectingClarifications
		} else {
			next.Status = StatusRunning
		}
		return next, nil

	case ClarificationsRequired:
		if s.Status != StatusCollectingClarifications {
			return s, invalid(s, ev, "")
		}
		next := s.clone()
		next.Status = StatusAwaitingClarifications
		next.Clarifications = e.Questions
		return next, nil

	case ClarificationsSubmitted:
		if s.Status != StatusAwaitingClarifications {
			return s, invalid(s, ev, "")
		}
		next := s.clone()
		next.Status = StatusRunning
		next.Clarifications = e.Answers
		return next, nil

	case RoundStarted:
		if s.Status != StatusRunning {
			return s, invalid(s, ev, "")
		}
		if e.Round != s.CurrentRound+1 {
			return s, invalid(s, ev, fmt.Sprintf("round %d does not follow round %d", e.Round, s.CurrentRound))
		}
		if e.Round > s.TotalRounds {
			return s, invalid(s, ev, fmt.Sprintf("round %d exceeds total of %d", e.Round, s.TotalRounds))
		}
		if prev := s.round(s.CurrentRound); prev != nil && !prev.Closed() {
			return s, invalid(s, ev, fmt.Sprintf("round %d is still open", s.CurrentRound))
		}
		next := s.clone()
		next.CurrentRound = e.Round
		next.Rounds = append(next.Rounds, Round{Number: e.Round})
		return next, nil

	case PhaseStarted:
		if s.Status != StatusRunning {
			return s, invalid(s, ev, "")
		}
		if e.Round != s.CurrentRound {
			return s, invalid(s, ev, fmt.Sprintf("phase targets round %d, current is %d", e.Round, s.CurrentRound))
		}
		if s.CurrentPhase != "" {
			return s, invalid(s, ev, fmt.Sprintf("phase %s is still in flight", s.CurrentPhase))
		}
		if e.ExpectedCount < 1 {
			return s, invalid(s, ev, "expected count must be >= 1")
		}
		round := s.round(e.Round)
		if round == nil {
			return s, invalid(s, ev, fmt.Sprintf("round %d has not started", e.Round))
		}
		if want := nextPhase(*round); e.Phase != want {
			return s, invalid(s, ev, fmt.Sprintf("phase %s out of order, expected %s", e.Phase, want))
		}
		next := s.clone()
		next.CurrentPhase = e.Phase
		next.ExpectedCount = e.ExpectedCount
		return next, nil

	case AgentStarted:
		if s.Status != StatusRunning {
			return s, invalid(s, ev, "")
		}
		next := s.clone()
		agent := next.agent(e.AgentID)
		if agent == nil {
			return s, invalid(s, ev, fmt.Sprintf("unknown agent %q", e.AgentID))
		}
		agent.CurrentActivity = e.Activity
		return next, nil

	case AgentCompleted:
		if s.Status != StatusRunning {
			return s, invalid(s, ev, "")
		}
		next := s.clone()
		agent := next.agent(e.AgentID)
		if agent == nil {
			return s, invalid(s, ev, fmt.Sprintf("unknown agent %q", e.AgentID))
		}
		agent.CurrentActivity = ""
		return next, nil

	case ContributionCreated:
		if s.Status != StatusRunning {
			return s, invalid(s, ev, "")
		}
		c := e.Contribution
		if s.CurrentPhase == "" {
			return s, invalid(s, ev, "no phase in flight")
		}
		if c.Type != s.CurrentPhase {
			return s, invalid(s, ev, fmt.Sprintf("contribution type %s does not match phase %s", c.Type, s.CurrentPhase))
		}
		if c.Round != s.CurrentRound {
			return s, invalid(s, ev, fmt.Sprintf("contribution round %d does not match round %d", c.Round, s.CurrentRound))
		}
		next := s.clone()
		round := next.round(c.Round)
		if round == nil {
			return s, invalid(s, ev, fmt.Sprintf("round %d has not started", c.Round))
		}
		if round.contributionsFor(c.Type) >= s.ExpectedCount {
			return s, invalid(s, ev, "phase already has all expected contributions")
		}
		agent := next.agent(c.AgentID)
		if agent == nil {
			return s, invalid(s, ev, fmt.Sprintf("unknown agent %q", c.AgentID))
		}
		round.Contributions = append(round.Contributions, c)
		agent.Contributions = append(agent.Contributions, c)
		return next, nil

	case PhaseCompleted:
		if s.Status != StatusRunning {
			return s, invalid(s, ev, "")
		}
		if s.CurrentPhase == "" || e.Phase != s.CurrentPhase || e.Round != s.CurrentRound {
			return s, invalid(s, ev, "no matching phase in flight")
		}
		round := s.round(e.Round)
		if round == nil {
			return s, invalid(s, ev, fmt.Sprintf("round %d has not started", e.Round))
		}
		if got := round.contributionsFor(e.Phase); got != s.ExpectedCount {
			return s, invalid(s, ev, fmt.Sprintf("phase has %d of %d expected contributions", got, s.ExpectedCount))
		}
		next := s.clone()
		next.round(e.Round).CompletedPhases = append(next.round(e.Round).CompletedPhases, e.Phase)
		next.CurrentPhase = ""
		next.ExpectedCount = 0
		return next, nil

	case SynthesisStarted:
		if s.Status != StatusRunning {
			return s, invalid(s, ev, "")
		}
		if !s.allRoundsClosed() {
			return s, invalid(s, ev, "rounds are not all closed")
		}
		if s.Solution != nil {
			return s, invalid(s, ev, "solution already exists")
		}
		return s.clone(), nil

	case SynthesisCompleted:
		if s.Status != StatusRunning {
			return s, invalid(s, ev, "")
		}
		if !s.allRoundsClosed() {
			return s, invalid(s, ev, "rounds are not all closed")
		}
		if s.Solution != nil {
			return s, invalid(s, ev, "solution already exists")
		}
		next := s.clone()
		sol := e.Solution
		next.Solution = &sol
		return next, nil

	case DebateCompleted:
		if s.Status != StatusRunning {
			return s, invalid(s, ev, "")
		}
		if s.Solution == nil {
			return s, invalid(s, ev, "no solution synthesized")
		}
		next := s.clone()
		next.Status = StatusCompleted
		next.IsRunning = false
		next.CurrentRound = 0
		res := e.Result
		next.Result = &res
		return next, nil

	case DebateFailed:
		next := s.clone()
		next.Status = StatusError
		next.IsRunning = false
		next.CurrentRound = 0
		next.CurrentPhase = ""
		next.ErrorMessage = e.Message
		return next, nil

	case DebateCancelled:
		next := s.clone()
		next.Status = StatusError
		next.Cancelled = true
		next.IsRunning = false
		next.CurrentRound = 0
		next.CurrentPhase = ""
		next.ErrorMessage = e.Reason
		return next, nil

	case NotificationAdded:
		next := s.clone()
		next.Notifications = append(next.Notifications, e.Notification)
		return next, nil

	case NotificationCleared:
		next := s.clone()
		kept := next.Notifications[:0]
		for _, n := range next.Notifications {
			if n.ID != e.ID {
				kept = append(kept, n)
			}
		}
		next.Notifications = kept
		return next, nil

	default:
		return s, invalid(s, ev, "unknown event kind")
	}
}

// nextPhase returns the first phase of the round that has not completed yet.
func nextPhase(r Round) Phase {
	for _, p := range PhaseOrder {
		if !r.PhaseCompleted(p) {
			return p
		}
	}
	return ""
}

func (s State) allRoundsClosed() bool {
	if s.CurrentRound != s.TotalRounds {
		return false
	}
	last := s.round(s.CurrentRound)
	return last != nil && last.Closed()
}

// Package debate implements the debate state machine: a deterministic
// reducer over an ordered event stream, plus the single-writer machine
// that serializes event application and publishes immutable snapshots.
package debate

import "time"

// Status is the lifecycle state of a debate.
type Status string

// Debate lifecycle states.
const (
	StatusIdle                     Status = "idle"
	StatusCollectingClarifications Status = "collecting_clarifications"
	StatusAwaitingClarifications   Status = "awaiting_clarifications"
	StatusRunning                  Status = "running"
	StatusCompleted                Status = "completed"
	StatusError                    Status = "error"
)

// Phase is one of the three contribution phases within a round.
type Phase string

// Phases in their strict per-round order.
const (
	PhaseProposal   Phase = "proposal"
	PhaseCritique   Phase = "critique"
	PhaseRefinement Phase = "refinement"
)

// PhaseOrder lists the phases in the order they run within a round.
var PhaseOrder = []Phase{PhaseProposal, PhaseCritique, PhaseRefinement}

// Contribution is a single agent output for a phase. Immutable once created.
type Contribution struct {
	AgentID       string `json:"agent_id"`
	AgentRole     string `json:"agent_role"`
	Type          Phase  `json:"type"`
	Round         int    `json:"round"`
	Content       string `json:"content"`
	TargetAgentID string `json:"target_agent_id,omitempty"`
	Failed        bool   `json:"failed,omitempty"`
}

// AgentState tracks one participant's identity, activity and contributions.
type AgentState struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Role            string         `json:"role"`
	CurrentActivity string         `json:"current_activity,omitempty"`
	Contributions   []Contribution `json:"contributions"`
}

// Round holds the contributions of one debate round in completion order.
type Round struct {
	Number          int            `json:"number"`
	Contributions   []Contribution `json:"contributions"`
	CompletedPhases []Phase        `json:"completed_phases"`
}

// PhaseCompleted reports whether the given phase has completed in this round.
func (r Round) PhaseCompleted(p Phase) bool {
	for _, done := range r.CompletedPhases {
		if done == p {
			return true
		}
	}
	return false
}

// Closed reports whether all three phases of this round have completed.
func (r Round) Closed() bool {
	return len(r.CompletedPhases) == len(PhaseOrder)
}

// contributionsFor counts contributions of the given phase type.
func (r Round) contributionsFor(p Phase) int {
	n := 0
	for _, c := range r.Contributions {
		if c.Type == p {
			n++
		}
	}
	return n
}

// Solution is the final synthesized answer.
type Solution struct {
	Content string `json:"content"`
	AgentID string `json:"agent_id,omitempty"`
}

// ClarificationItem is a single pre-debate question with its eventual answer.
type ClarificationItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// AgentClarifications groups the clarification items posed by one agent.
type AgentClarifications struct {
	AgentID string              `json:"agent_id"`
	Items   []ClarificationItem `json:"items"`
}

// Severity classifies a notification.
type Severity string

// Notification severities.
const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a user-facing advisory message.
type Notification struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ResultMetadata carries summary figures for a completed debate.
type ResultMetadata struct {
	TotalRounds int   `json:"total_rounds"`
	DurationMs  int64 `json:"duration_ms"`
}

// Result is the terminal output of a completed debate.
type Result struct {
	DebateID string         `json:"debate_id"`
	Solution Solution       `json:"solution"`
	Rounds   []Round        `json:"rounds"`
	Metadata ResultMetadata `json:"metadata"`
}

// State is the full debate state. It is owned by the Machine; everything
// else reads snapshots and emits events.
type State struct {
	Status                Status                `json:"status"`
	Problem               string                `json:"problem"`
	ClarificationsEnabled bool                  `json:"clarifications_enabled"`
	Clarifications        []AgentClarifications `json:"clarifications,omitempty"`
	Agents                []AgentState          `json:"agents"`
	Judge                 string                `json:"judge,omitempty"`
	CurrentRound          int                   `json:"current_round"`
	TotalRounds           int                   `json:"total_rounds"`
	CurrentPhase          Phase                 `json:"current_phase,omitempty"`
	ExpectedCount         int                   `json:"expected_count,omitempty"`
	Rounds                []Round               `json:"rounds"`
	Solution              *Solution             `json:"solution,omitempty"`
	Notifications         []Notification        `json:"notifications"`
	IsRunning             bool                  `json:"is_running"`
	Cancelled             bool                  `json:"cancelled,omitempty"`
	ErrorMessage          string                `json:"error_message,omitempty"`
	Result                *Result               `json:"result,omitempty"`
}

// NewState returns the initial idle state.
func NewState() State {
	return State{Status: StatusIdle}
}

// Terminal reports whether no further events are accepted.
func (s State) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusError
}

// Agent returns a pointer to the agent with the given id within s, or nil.
func (s *State) agent(id string) *AgentState {
	for i := range s.Agents {
		if s.Agents[i].ID == id {
			return &s.Agents[i]
		}
	}
	return nil
}

// currentRound returns a pointer to the in-progress round within s, or nil.
func (s *State) round(number int) *Round {
	for i := range s.Rounds {
		if s.Rounds[i].Number == number {
			return &s.Rounds[i]
		}
	}
	return nil
}

// clone returns a deep copy so reducer output never aliases reducer input.
func (s State) clone() State {
	out := s

	out.Clarifications = make([]AgentClarifications, len(s.Clarifications))
	for i, ac := range s.Clarifications {
		out.Clarifications[i] = ac
		out.Clarifications[i].Items = append([]ClarificationItem(nil), ac.Items...)
	}

	out.Agents = make([]AgentState, len(s.Agents))
	for i, a := range s.Agents {
		out.Agents[i] = a
		out.Agents[i].Contributions = append([]Contribution(nil), a.Contributions...)
	}

	out.Rounds = make([]Round, len(s.Rounds))
	for i, r := range s.Rounds {
		out.Rounds[i] = r
		out.Rounds[i].Contributions = append([]Contribution(nil), r.Contributions...)
		out.Rounds[i].CompletedPhases = append([]Phase(nil), r.CompletedPhases...)
	}

	out.Notifications = append([]Notification(nil), s.Notifications...)

	if s.Solution != nil {
		sol := *s.Solution
		out.Solution = &sol
	}
	if s.Result != nil {
		res := *s.Result
		res.Rounds = make([]Round, len(s.Result.Rounds))
		for i, r := range s.Result.Rounds {
			res.Rounds[i] = r
			res.Rounds[i].Contributions = append([]Contribution(nil), r.Contributions...)
			res.Rounds[i].CompletedPhases = append([]Phase(nil), r.CompletedPhases...)
		}
		out.Result = &res
	}

	return out
}

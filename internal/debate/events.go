package debate

// Event is the sealed union of debate events. Every state change flows
// through the reducer as one of these; nothing mutates State directly.
type Event interface {
	// Kind returns the stable wire name of the event, used for journaling.
	Kind() string
	isEvent()
}

// ProblemSet configures the problem statement. Idle only.
type ProblemSet struct {
	Problem string `json:"problem"`
}

// RoundsSet configures the target round count. Idle only.
type RoundsSet struct {
	Rounds int `json:"rounds"`
}

// ClarificationsToggled enables or disables the clarification phase. Idle only.
type ClarificationsToggled struct {
	Enabled bool `json:"enabled"`
}

// ConnectionEstablished announces the agent roster and the judge. Idle only.
type ConnectionEstablished struct {
	Agents []AgentState `json:"agents"`
	Judge  string       `json:"judge,omitempty"`
}

// DebateStarted begins the debate.
type DebateStarted struct{}

// ClarificationsRequired carries the questions gathered from the agents.
type ClarificationsRequired struct {
	Questions []AgentClarifications `json:"questions"`
}

// ClarificationsSubmitted carries the user's answers.
type ClarificationsSubmitted struct {
	Answers []AgentClarifications `json:"answers"`
}

// RoundStarted opens the next round.
type RoundStarted struct {
	Round int `json:"round"`
}

// PhaseStarted opens a phase and announces the barrier's expected count.
type PhaseStarted struct {
	Round         int   `json:"round"`
	Phase         Phase `json:"phase"`
	ExpectedCount int   `json:"expected_count"`
}

// AgentStarted marks an agent turn as in flight.
type AgentStarted struct {
	AgentID  string `json:"agent_id"`
	Activity string `json:"activity"`
}

// AgentCompleted clears an agent's in-flight activity.
type AgentCompleted struct {
	AgentID string `json:"agent_id"`
}

// ContributionCreated records one agent contribution for the current phase.
type ContributionCreated struct {
	Contribution Contribution `json:"contribution"`
}

// PhaseCompleted closes the current phase once all contributions arrived.
type PhaseCompleted struct {
	Round int   `json:"round"`
	Phase Phase `json:"phase"`
}

// SynthesisStarted begins the final synthesis step.
type SynthesisStarted struct {
	AgentID string `json:"agent_id,omitempty"`
}

// SynthesisCompleted records the synthesized solution.
type SynthesisCompleted struct {
	Solution Solution `json:"solution"`
}

// DebateCompleted carries the terminal result.
type DebateCompleted struct {
	Result Result `json:"result"`
}

// DebateFailed transitions the debate to the terminal error state.
type DebateFailed struct {
	Message string `json:"message"`
}

// DebateCancelled transitions to the cancelled variant of the error state.
type DebateCancelled struct {
	Reason string `json:"reason"`
}

// NotificationAdded appends an advisory notification.
type NotificationAdded struct {
	Notification Notification `json:"notification"`
}

// NotificationCleared removes the single notification with the given id.
type NotificationCleared struct {
	ID string `json:"id"`
}

// Kind implementations.

func (ProblemSet) Kind() string              { return "problem-set" }
func (RoundsSet) Kind() string               { return "rounds-set" }
func (ClarificationsToggled) Kind() string   { return "clarifications-toggled" }
func (ConnectionEstablished) Kind() string   { return "connection-established" }
func (DebateStarted) Kind() string           { return "debate-started" }
func (ClarificationsRequired) Kind() string  { return "clarifications-required" }
func (ClarificationsSubmitted) Kind() string { return "clarifications-submitted" }
func (RoundStarted) Kind() string            { return "round-start" }
func (PhaseStarted) Kind() string            { return "phase-start" }
func (AgentStarted) Kind() string            { return "agent-start" }
func (AgentCompleted) Kind() string          { return "agent-complete" }
func (ContributionCreated) Kind() string     { return "contribution-created" }
func (PhaseCompleted) Kind() string          { return "phase-complete" }
func (SynthesisStarted) Kind() string        { return "synthesis-start" }
func (SynthesisCompleted) Kind() string      { return "synthesis-complete" }
func (DebateCompleted) Kind() string         { return "debate-complete" }
func (DebateFailed) Kind() string            { return "error" }
func (DebateCancelled) Kind() string         { return "debate-cancelled" }
func (NotificationAdded) Kind() string       { return "notification-added" }
func (NotificationCleared) Kind() string     { return "notification-cleared" }

func (ProblemSet) isEvent()              {}
func (RoundsSet) isEvent()               {}
func (ClarificationsToggled) isEvent()   {}
func (ConnectionEstablished) isEvent()   {}
func (DebateStarted) isEvent()           {}
func (ClarificationsRequired) isEvent()  {}
func (ClarificationsSubmitted) isEvent() {}
func (RoundStarted) isEvent()            {}
func (PhaseStarted) isEvent()            {}
func (AgentStarted) isEvent()            {}
func (AgentCompleted) isEvent()          {}
func (ContributionCreated) isEvent()     {}
func (PhaseCompleted) isEvent()          {}
func (SynthesisStarted) isEvent()        {}
func (SynthesisCompleted) isEvent()      {}
func (DebateCompleted) isEvent()         {}
func (DebateFailed) isEvent()            {}
func (DebateCancelled) isEvent()         {}
func (NotificationAdded) isEvent()       {}
func (NotificationCleared) isEvent()     {}

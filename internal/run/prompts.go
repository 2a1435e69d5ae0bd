package run

import (
	"fmt"
	"strings"

	"github.com/forumlabs/moot/internal/debate"
	"github.com/forumlabs/moot/internal/turn"
)

var phasePrompts = map[debate.Phase]promptFunc{
	debate.PhaseProposal:   proposalMessages,
	debate.PhaseCritique:   critiqueMessages,
	debate.PhaseRefinement: refinementMessages,
}

func participantSystemPrompt(p Participant) string {
	var b strings.Builder
	b.WriteString("You are one participant in a structured multi-agent debate.\n")
	b.WriteString("- Several agents work the same problem through proposal, critique, and refinement rounds.\n")
	b.WriteString("- Be concrete and technical. Do not restate the problem or pad your answer.\n")
	b.WriteString("- Answer with your contribution text only, no preamble.\n")
	if p.Role != "" {
		b.WriteString("Your role in this debate: ")
		b.WriteString(p.Role)
		b.WriteString(". Argue from that perspective.\n")
	}
	return b.String()
}

func problemBlock(s debate.State) string {
	var b strings.Builder
	b.WriteString("Problem under debate:\n")
	b.WriteString(s.Problem)
	b.WriteString("\n")
	if answered := answeredClarifications(s.Clarifications); answered != "" {
		b.WriteString("\nClarifications provided:\n")
		b.WriteString(answered)
	}
	return b.String()
}

func answeredClarifications(groups []debate.AgentClarifications) string {
	var b strings.Builder
	for _, g := range groups {
		for _, item := range g.Items {
			if item.Answer == "" {
				continue
			}
			fmt.Fprintf(&b, "- Q: %s\n  A: %s\n", item.Question, item.Answer)
		}
	}
	return b.String()
}

func proposalMessages(p Participant, s debate.State) []turn.Message {
	var b strings.Builder
	b.WriteString(problemBlock(s))
	b.WriteString("\nWrite your proposal for solving this problem. ")
	b.WriteString("State your approach, the key decisions, and the trade-offs you accept.\n")
	if prior := priorRoundSummary(s); prior != "" {
		b.WriteString("\nThis is a later round. Refined positions from the previous round:\n")
		b.WriteString(prior)
		b.WriteString("Advance the debate; do not repeat what already has consensus.\n")
	}
	return []turn.Message{
		turn.SystemMessage(participantSystemPrompt(p)),
		turn.UserMessage(b.String()),
	}
}

func critiqueMessages(p Participant, s debate.State) []turn.Message {
	var b strings.Builder
	b.WriteString(problemBlock(s))
	b.WriteString("\nProposals from this round:\n")
	for _, c := range currentPhaseContributions(s, debate.PhaseProposal) {
		writeContribution(&b, c, c.AgentID == p.ID)
	}
	b.WriteString("\nCritique the other agents' proposals. Point out concrete weaknesses, risks, and gaps. Do not critique your own proposal.\n")
	return []turn.Message{
		turn.SystemMessage(participantSystemPrompt(p)),
		turn.UserMessage(b.String()),
	}
}

func refinementMessages(p Participant, s debate.State) []turn.Message {
	var b strings.Builder
	b.WriteString(problemBlock(s))
	b.WriteString("\nYour proposal this round:\n")
	for _, c := range currentPhaseContributions(s, debate.PhaseProposal) {
		if c.AgentID == p.ID {
			b.WriteString(c.Content)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nCritiques raised this round:\n")
	for _, c := range currentPhaseContributions(s, debate.PhaseCritique) {
		writeContribution(&b, c, c.AgentID == p.ID)
	}
	b.WriteString("\nRefine your proposal: address the valid critiques, defend what holds up, and drop what does not.\n")
	return []turn.Message{
		turn.SystemMessage(participantSystemPrompt(p)),
		turn.UserMessage(b.String()),
	}
}

func synthesisMessages(p Participant, s debate.State) []turn.Message {
	var b strings.Builder
	b.WriteString(problemBlock(s))
	b.WriteString("\nFull debate history:\n")
	for _, round := range s.Rounds {
		fmt.Fprintf(&b, "\n== Round %d ==\n", round.Number)
		for _, c := range round.Contributions {
			writeContribution(&b, c, false)
		}
	}
	b.WriteString("\nYou are the judge. Synthesize the debate into one final solution: ")
	b.WriteString("take the strongest elements of each position, resolve the disagreements explicitly, and present a single coherent answer.\n")
	return []turn.Message{
		turn.SystemMessage(participantSystemPrompt(p)),
		turn.UserMessage(b.String()),
	}
}

func clarificationMessages(p Participant, s debate.State) []turn.Message {
	var b strings.Builder
	b.WriteString("Problem under debate:\n")
	b.WriteString(s.Problem)
	b.WriteString("\n\nBefore the debate starts, list up to 3 clarifying questions whose answers would materially change your approach.\n")
	b.WriteString("One question per line, no numbering. If nothing needs clarifying, answer with the single word: none\n")
	return []turn.Message{
		turn.SystemMessage(participantSystemPrompt(p)),
		turn.UserMessage(b.String()),
	}
}

func writeContribution(b *strings.Builder, c debate.Contribution, own bool) {
	label := c.AgentID
	if c.AgentRole != "" {
		label = fmt.Sprintf("%s (%s)", c.AgentID, c.AgentRole)
	}
	if own {
		label += " [you]"
	}
	if c.Failed {
		fmt.Fprintf(b, "--- %s: failed to contribute ---\n", label)
		return
	}
	fmt.Fprintf(b, "--- %s ---\n%s\n", label, c.Content)
}

// currentPhaseContributions returns the current round's contributions of
// the given type, skipping failure notes.
func currentPhaseContributions(s debate.State, phase debate.Phase) []debate.Contribution {
	var out []debate.Contribution
	for _, round := range s.Rounds {
		if round.Number != s.CurrentRound {
			continue
		}
		for _, c := range round.Contributions {
			if c.Type == phase && !c.Failed {
				out = append(out, c)
			}
		}
	}
	return out
}

// priorRoundSummary returns the refinements of the most recent closed round.
func priorRoundSummary(s debate.State) string {
	var b strings.Builder
	for _, round := range s.Rounds {
		if round.Number != s.CurrentRound-1 {
			continue
		}
		for _, c := range round.Contributions {
			if c.Type == debate.PhaseRefinement && !c.Failed {
				writeContribution(&b, c, false)
			}
		}
	}
	return b.String()
}

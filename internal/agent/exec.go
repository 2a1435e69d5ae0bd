package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/metalagman/ainvoke"
	"github.com/rs/zerolog/log"

	"github.com/forumlabs/moot/internal/config"
	"github.com/forumlabs/moot/internal/tool"
	"github.com/forumlabs/moot/internal/turn"
)

// cliInvoker runs a CLI coding agent through ainvoke. CLI agents bring
// their own tools, so the broker's tool schemas are not forwarded and the
// reply is always plain content.
type cliInvoker struct {
	name   string
	runner ainvoke.Runner
}

func newCLIInvoker(name string, cfg config.AgentConfig, cmd []string) (turn.Invoker, error) {
	useTTY := false
	if cfg.UseTTY != nil {
		useTTY = *cfg.UseTTY
	}

	runner, err := ainvoke.NewRunner(ainvoke.AgentConfig{
		Cmd:    cmd,
		UseTTY: useTTY,
	})
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", name, err)
	}

	return &cliInvoker{name: name, runner: runner}, nil
}

type cliInput struct {
	Messages []turn.Message `json:"messages"`
}

// Invoke implements turn.Invoker.
func (r *cliInvoker) Invoke(ctx context.Context, messages []turn.Message, _ []tool.Schema) (turn.Reply, error) {
	runDir, err := os.MkdirTemp("", "moot-turn-")
	if err != nil {
		return turn.Reply{}, fmt.Errorf("create run dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(runDir); err != nil {
			log.Warn().Err(err).Str("dir", runDir).Msg("failed to clean run dir")
		}
	}()

	system, rest := splitConversation(messages)
	inv := ainvoke.Invocation{
		RunDir:       runDir,
		SystemPrompt: system,
		Input:        cliInput{Messages: rest},
	}

	out, errOut, exitCode, err := r.runner.Run(ctx, inv, ainvoke.WithStdout(io.Discard), ainvoke.WithStderr(io.Discard))
	if err != nil {
		return turn.Reply{}, fmt.Errorf("run agent %q: %w", r.name, err)
	}
	if exitCode != 0 {
		return turn.Reply{}, fmt.Errorf("agent %q exited with code %d: %s", r.name, exitCode, tail(errOut))
	}

	content := strings.TrimSpace(string(out))
	if content == "" {
		return turn.Reply{}, fmt.Errorf("agent %q produced no output", r.name)
	}
	return turn.Reply{Content: content}, nil
}

// splitConversation folds system messages into one system prompt and keeps
// the rest as structured input.
func splitConversation(messages []turn.Message) (string, []turn.Message) {
	var system strings.Builder
	rest := make([]turn.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return system.String(), rest
}

func tail(b []byte) string {
	const max = 512
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}

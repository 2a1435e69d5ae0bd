// Package agent turns agent configuration into invokers the turn executor
// can drive, covering both API-backed and CLI-backed participants.
package agent

import (
	"fmt"
	"time"

	"github.com/forumlabs/moot/internal/agent/openaiapi"
	"github.com/forumlabs/moot/internal/config"
	"github.com/forumlabs/moot/internal/turn"
)

type agentSpec struct {
	defaultSubcommand string
	extraFlags        []string
}

var agentSpecs = map[string]agentSpec{
	"codex": {
		defaultSubcommand: "exec",
		extraFlags:        []string{"--full-auto", "--skip-git-repo-check"},
	},
	"opencode": {
		defaultSubcommand: "run",
	},
	"gemini": {
		extraFlags: []string{"--output-format", "text", "--approval-mode", "yolo"},
	},
	"claude": {
		extraFlags: []string{"--output-format", "text", "--print", "--dangerously-skip-permissions"},
	},
}

// NewInvoker constructs the invoker for one configured agent. The name is
// used only for error and log context.
func NewInvoker(name string, cfg config.AgentConfig, timeout time.Duration) (turn.Invoker, error) {
	switch {
	case cfg.Type == "openai":
		client, err := openaiapi.NewClient(openaiapi.Config{
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			APIKeyEnv: cfg.APIKeyEnv,
			Timeout:   timeout,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", name, err)
		}
		return client, nil

	case cfg.Type == "exec":
		if len(cfg.Cmd) == 0 {
			return nil, fmt.Errorf("agent %q: exec agent requires cmd", name)
		}
		return newCLIInvoker(name, cfg, cfg.Cmd)

	default:
		spec, ok := agentSpecs[cfg.Type]
		if !ok {
			return nil, fmt.Errorf("agent %q: unknown agent type %q", name, cfg.Type)
		}
		return newCLIInvoker(name, cfg, prepareCmd(cfg.Type, spec, cfg.Model))
	}
}

func prepareCmd(baseCmd string, spec agentSpec, model string) []string {
	out := []string{baseCmd}
	if spec.defaultSubcommand != "" {
		out = append(out, spec.defaultSubcommand)
	}
	if model != "" {
		out = append(out, "--model", model)
	}
	out = append(out, spec.extraFlags...)
	return out
}

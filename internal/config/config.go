// Package config provides configuration loading and management for moot.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Agents  map[string]AgentConfig `json:"agents"  mapstructure:"agents"`
	Debate  DebateConfig           `json:"debate"  mapstructure:"debate"`
	Budgets Budgets                `json:"budgets" mapstructure:"budgets"`
	Tools   []ToolServerConfig     `json:"tools,omitempty" mapstructure:"tools"`
}

// AgentConfig describes how to invoke a debate participant.
type AgentConfig struct {
	Type      string   `json:"type"                  mapstructure:"type"`
	Role      string   `json:"role,omitempty"        mapstructure:"role"`
	Cmd       []string `json:"cmd,omitempty"         mapstructure:"cmd"`
	Model     string   `json:"model,omitempty"       mapstructure:"model"`
	BaseURL   string   `json:"base_url,omitempty"    mapstructure:"base_url"`
	APIKey    string   `json:"api_key,omitempty"     mapstructure:"api_key"`
	APIKeyEnv string   `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	UseTTY    *bool    `json:"use_tty,omitempty"     mapstructure:"use_tty"`
}

// DebateConfig shapes the debate itself.
type DebateConfig struct {
	Rounds         int    `json:"rounds"                     mapstructure:"rounds"`
	Clarifications bool   `json:"clarifications,omitempty"   mapstructure:"clarifications"`
	Judge          string `json:"judge,omitempty"            mapstructure:"judge"`
	OnAgentFailure string `json:"on_agent_failure,omitempty" mapstructure:"on_agent_failure"`
}

// Budgets defines per-turn limits.
type Budgets struct {
	MaxToolIterations int `json:"max_tool_iterations"        mapstructure:"max_tool_iterations"`
	TurnTimeoutSec    int `json:"turn_timeout_sec,omitempty" mapstructure:"turn_timeout_sec"`
}

// ToolServerConfig describes an MCP tool server to expose to agents.
type ToolServerConfig struct {
	Name string   `json:"name" mapstructure:"name"`
	Cmd  []string `json:"cmd"  mapstructure:"cmd"`
}

// Failure policies for a phase participant.
const (
	FailureAbort    = "abort"
	FailureContinue = "continue"
)

// TurnTimeout returns the per-turn wall clock budget.
func (b Budgets) TurnTimeout() time.Duration {
	if b.TurnTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(b.TurnTimeoutSec) * time.Second
}

// FailurePolicy returns the configured failure policy, defaulting to continue.
func (c DebateConfig) FailurePolicy() string {
	if c.OnAgentFailure == "" {
		return FailureContinue
	}
	return c.OnAgentFailure
}

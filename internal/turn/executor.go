// Package turn runs one agent turn, driving the model and its tool calls
// until a plain text answer comes back or the iteration budget runs out.
package turn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/forumlabs/moot/internal/tool"
)

// ErrIterationLimit marks a turn that still wanted tools after the last
// allowed pass. The partial conversation is discarded.
var ErrIterationLimit = errors.New("tool call iteration limit exceeded")

// Message is one entry of the model conversation.
type Message struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []tool.Call `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Reply is the model's answer to one invocation: either final content or a
// batch of tool calls to satisfy first.
type Reply struct {
	Content   string
	ToolCalls []tool.Call
}

// Invoker sends a conversation to a model and returns its reply.
type Invoker interface {
	Invoke(ctx context.Context, messages []Message, tools []tool.Schema) (Reply, error)
}

// Metadata records the tool activity of a completed turn. It stays zero
// when the model answered without tools.
type Metadata struct {
	ToolCalls   []tool.Call   `json:"tool_calls,omitempty"`
	ToolResults []tool.Result `json:"tool_results,omitempty"`
	Iterations  int           `json:"iterations,omitempty"`
}

// Outcome is the final product of a turn.
type Outcome struct {
	Content  string
	Metadata Metadata
}

// Executor owns the tool loop budget shared by all turns.
type Executor struct {
	registry      *tool.Registry
	maxIterations int
	timeout       time.Duration
}

// NewExecutor creates an executor. maxIterations must be positive; timeout
// of zero means no per-turn deadline.
func NewExecutor(registry *tool.Registry, maxIterations int, timeout time.Duration) *Executor {
	return &Executor{registry: registry, maxIterations: maxIterations, timeout: timeout}
}

// RunTurn invokes the model, resolves any tool calls it makes, and repeats
// until a text answer arrives. Each pass appends the assistant's tool calls
// and their encoded results to the conversation, so the model sees failed
// calls too and can recover. A turn that exceeds the pass budget fails with
// ErrIterationLimit.
func (e *Executor) RunTurn(ctx context.Context, invoker Invoker, messages []Message) (Outcome, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	schemas := e.registry.Schemas()
	convo := make([]Message, len(messages))
	copy(convo, messages)

	var meta Metadata
	for pass := 1; pass <= e.maxIterations; pass++ {
		reply, err := invoker.Invoke(ctx, convo, schemas)
		if err != nil {
			return Outcome{}, fmt.Errorf("invoke model: %w", err)
		}

		if len(reply.ToolCalls) == 0 {
			return Outcome{Content: reply.Content, Metadata: meta}, nil
		}

		meta.Iterations = pass
		convo = append(convo, Message{
			Role:      "assistant",
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})

		for _, call := range reply.ToolCalls {
			log.Debug().Str("tool", call.Name).Int("pass", pass).Msg("dispatching tool call")
			result := e.registry.Dispatch(ctx, call)
			meta.ToolCalls = append(meta.ToolCalls, call)
			meta.ToolResults = append(meta.ToolResults, result)
			convo = append(convo, Message{
				Role:       "tool",
				Content:    result.Content,
				ToolCallID: result.ToolCallID,
			})
		}

		if err := ctx.Err(); err != nil {
			return Outcome{}, fmt.Errorf("turn aborted: %w", err)
		}
	}

	return Outcome{}, fmt.Errorf("%w after %d passes", ErrIterationLimit, e.maxIterations)
}

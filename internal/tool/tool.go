// Package tool exposes callable tools to debate agents and encodes their
// results for the model-facing conversation.
package tool

import "encoding/json"

// Call is one tool invocation requested by a model.
type Call struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Result is the encoded outcome of a call, fed back to the model verbatim.
type Result struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
}

// Schema describes a tool to the model.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type successEnvelope struct {
	Status string `json:"status"`
	Result any    `json:"result"`
}

type errorEnvelope struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// SuccessContent encodes a tool result. Values that cannot marshal are
// reported as errors rather than dropped.
func SuccessContent(result any) string {
	out, err := json.Marshal(successEnvelope{Status: "success", Result: result})
	if err != nil {
		return ErrorContent("encode result: " + err.Error())
	}
	return string(out)
}

// ErrorContent encodes a tool failure so the model can react to it.
func ErrorContent(message string) string {
	out, _ := json.Marshal(errorEnvelope{Status: "error", Error: message})
	return string(out)
}

package openaiapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forumlabs/moot/internal/tool"
	"github.com/forumlabs/moot/internal/turn"
)

func TestClientInvoke_SendsToolsAndParsesToolCalls(t *testing.T) {
	const envKey = "MOOT_OPENAI_TEST_KEY"
	t.Setenv(envKey, "test-api-key")

	var gotAuth string
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [
				{
					"message": {
						"role": "assistant",
						"content": "",
						"tool_calls": [
							{
								"id": "call_1",
								"type": "function",
								"function": {"name": "lookup", "arguments": "{\"key\":\"alpha\"}"}
							}
						]
					}
				}
			]
		}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Model:     "gpt-5",
		BaseURL:   srv.URL,
		APIKeyEnv: envKey,
	}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	reply, err := client.Invoke(context.Background(),
		[]turn.Message{
			turn.SystemMessage("You are a debate participant."),
			turn.UserMessage("Propose a solution."),
		},
		[]tool.Schema{{
			Name:        "lookup",
			Description: "looks a key up",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{"type": "string"},
				},
			},
		}},
	)
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}

	if len(reply.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(reply.ToolCalls))
	}
	if reply.ToolCalls[0].ID != "call_1" || reply.ToolCalls[0].Name != "lookup" {
		t.Fatalf("unexpected tool call %+v", reply.ToolCalls[0])
	}
	if reply.ToolCalls[0].Arguments != `{"key":"alpha"}` {
		t.Fatalf("arguments = %q", reply.ToolCalls[0].Arguments)
	}

	if gotAuth != "Bearer test-api-key" {
		t.Fatalf("authorization header = %q, want bearer auth", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("path = %q, want %q", gotPath, "/chat/completions")
	}
	if gotBody["model"] != "gpt-5" {
		t.Fatalf("model = %v, want %q", gotBody["model"], "gpt-5")
	}

	tools, ok := gotBody["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("tools = %v, want one entry", gotBody["tools"])
	}
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	if fn["name"] != "lookup" {
		t.Fatalf("tool name = %v, want %q", fn["name"], "lookup")
	}

	msgs, ok := gotBody["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("messages = %v, want two entries", gotBody["messages"])
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Fatalf("first message role = %v, want system", first["role"])
	}
}

func TestClientInvoke_ParsesPlainContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [
				{"message": {"role": "assistant", "content": "  the final answer  "}}
			]
		}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Model:   "gpt-5",
		BaseURL: srv.URL,
		APIKey:  "k",
	}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	reply, err := client.Invoke(context.Background(), []turn.Message{turn.UserMessage("q")}, nil)
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if reply.Content != "the final answer" {
		t.Fatalf("content = %q, want trimmed answer", reply.Content)
	}
	if len(reply.ToolCalls) != 0 {
		t.Fatalf("tool calls = %d, want 0", len(reply.ToolCalls))
	}
}

func TestClientInvoke_EmptyResponseIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": ""}}]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Model: "gpt-5", BaseURL: srv.URL, APIKey: "k"}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if _, err := client.Invoke(context.Background(), []turn.Message{turn.UserMessage("q")}, nil); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestNewClient_RequiresModelAndKey(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "k"}, nil); err == nil {
		t.Fatal("expected error for missing model")
	}
	t.Setenv(defaultAPIKeyEnv, "")
	if _, err := NewClient(Config{Model: "gpt-5"}, nil); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harunnryd/teller/pkg/llm"
	"github.com/harunnryd/teller/pkg/resilience"
)

func TestGenerateParsesToolCalls(t *testing.T) {
	var gotAuth, gotReferer string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReferer = r.Header.Get("HTTP-Referer")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"content": "",
					"tool_calls": []any{map[string]any{
						"id": "call-1",
						"function": map[string]any{
							"name":      "get_balance",
							"arguments": `{"account_number":"1234567890"}`,
						},
					}},
				},
			}},
			"usage": map[string]any{"prompt_tokens": 10.0, "completion_tokens": 5.0, "total_tokens": 15.0},
		})
	}))
	defer srv.Close()

	a := NewAdapter("secret", "test-model")
	a.BaseURL = srv.URL
	resp, err := a.Generate(context.Background(), llm.Context{
		Messages: []map[string]any{{"role": "user", "content": "balance?"}},
		Tools:    []llm.Tool{{Name: "get_balance", Schema: map[string]any{"type": "object"}}},
	})
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("missing bearer auth, got %q", gotAuth)
	}
	if gotReferer == "" {
		t.Fatalf("expected HTTP-Referer header")
	}
	if _, ok := gotBody["tools"]; !ok {
		t.Fatalf("tools missing from request payload")
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected one tool call, got %d", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if call.ID != "call-1" || call.Name != "get_balance" {
		t.Fatalf("unexpected call %+v", call)
	}
	if call.Arguments["account_number"] != "1234567890" {
		t.Fatalf("arguments not decoded: %+v", call.Arguments)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Fatalf("usage not parsed: %+v", resp.Usage)
	}
}

func TestGenerateRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewAdapter("secret", "test-model")
	a.BaseURL = srv.URL
	_, err := a.Generate(context.Background(), llm.Context{
		Messages: []map[string]any{{"role": "user", "content": "hi"}},
	})
	if !resilience.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

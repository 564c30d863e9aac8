package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XiaoConstantine/cort-go/pkg/core"
)

func TestAnthropicComplete(t *testing.T) {
	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "Hello, "},
				{"type": "text", "text": "world!"},
			},
			"usage": map[string]int{"input_tokens": 12, "output_tokens": 7},
		})
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "claude-test", false)
	client.baseURL = server.URL

	messages := []core.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	}
	resp, err := client.Complete(context.Background(), messages, core.GenParams{Temperature: 0.8, MaxTokens: 256})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Content != "Hello, world!" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.PromptTokens != 12 || resp.CompletionTokens != 7 {
		t.Errorf("tokens = %d/%d, want 12/7", resp.PromptTokens, resp.CompletionTokens)
	}

	if gotReq.Model != "claude-test" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if gotReq.Temperature != 0.8 {
		t.Errorf("request temperature = %v, want 0.8", gotReq.Temperature)
	}
	if gotReq.MaxTokens != 256 {
		t.Errorf("request max_tokens = %d, want 256", gotReq.MaxTokens)
	}
	if gotReq.System != "be brief" {
		t.Errorf("system prompt = %q: system messages should be lifted out", gotReq.System)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want the user message only", gotReq.Messages)
	}
}

func TestAnthropicErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, KindRateLimited},
		{"unauthorized", http.StatusUnauthorized, KindAuth},
		{"forbidden", http.StatusForbidden, KindAuth},
		{"server error", http.StatusInternalServerError, KindInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			client := NewAnthropicClient("k", "m", false)
			client.baseURL = server.URL

			_, err := client.Complete(context.Background(), []core.Message{{Role: "user", Content: "hi"}}, core.GenParams{})
			if err == nil {
				t.Fatal("expected error")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error is %T, want *APIError", err)
			}
			if apiErr.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", apiErr.Kind, tt.want)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
		})
	}
}

func TestAnthropicAPIErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "overloaded"},
		})
	}))
	defer server.Close()

	client := NewAnthropicClient("k", "m", false)
	client.baseURL = server.URL

	_, err := client.Complete(context.Background(), []core.Message{{Role: "user", Content: "hi"}}, core.GenParams{})
	if ErrorKindOf(err) != KindInvalidResponse {
		t.Errorf("kind = %q, want %q", ErrorKindOf(err), KindInvalidResponse)
	}
}

func TestAnthropicCompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("stream flag not set in request")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`data: {"type":"message_start","message":{"usage":{"input_tokens":9}}}`,
			`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"foo"}}`,
			`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"bar"}}`,
			`data: {"type":"message_delta","usage":{"output_tokens":4}}`,
			`data: {"type":"message_stop"}`,
		}
		for _, ev := range events {
			_, _ = w.Write([]byte(ev + "\n\n"))
		}
	}))
	defer server.Close()

	client := NewAnthropicClient("k", "m", false)
	client.baseURL = server.URL

	var chunks []string
	var sawDone bool
	resp, err := client.CompleteStream(context.Background(),
		[]core.Message{{Role: "user", Content: "hi"}}, core.GenParams{},
		func(chunk string, done bool) error {
			if done {
				sawDone = true
			} else {
				chunks = append(chunks, chunk)
			}
			return nil
		})
	if err != nil {
		t.Fatalf("CompleteStream: %v", err)
	}

	if resp.Content != "foobar" {
		t.Errorf("Content = %q, want %q", resp.Content, "foobar")
	}
	if resp.PromptTokens != 9 || resp.CompletionTokens != 4 {
		t.Errorf("tokens = %d/%d, want 9/4", resp.PromptTokens, resp.CompletionTokens)
	}
	if len(chunks) != 2 {
		t.Errorf("chunks = %v, want two", chunks)
	}
	if !sawDone {
		t.Error("handler never saw done")
	}
}

func TestAnthropicMaxTokensDefault(t *testing.T) {
	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "ok"}},
		})
	}))
	defer server.Close()

	client := NewAnthropicClient("k", "m", false)
	client.baseURL = server.URL

	if _, err := client.Complete(context.Background(), []core.Message{{Role: "user", Content: "hi"}}, core.GenParams{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotReq.MaxTokens != 4096 {
		t.Errorf("max_tokens = %d, want the 4096 default", gotReq.MaxTokens)
	}
}

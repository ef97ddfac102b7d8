package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

func newStubClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(logger.Nop(), Config{APIKey: "test", Model: "test-model", BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestCompleteJoinsPromptAndReturnsText(t *testing.T) {
	var gotBody string
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/test-model:generateContent" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		var raw map[string]any
		_ = json.NewDecoder(r.Body).Decode(&raw)
		b, _ := json.Marshal(raw)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": `{"ok":true}`}}}},
			},
		})
	})

	out, err := c.Complete(context.Background(), "be terse", "describe acme", 100, 0.2)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("text: want=%q got=%q", `{"ok":true}`, out)
	}
	if !strings.Contains(gotBody, "be terse") || !strings.Contains(gotBody, "describe acme") {
		t.Fatalf("request body missing prompt parts: %s", gotBody)
	}
	if c.Name() != ProviderTag || c.Model() != "test-model" {
		t.Fatalf("identity: got=%s/%s", c.Name(), c.Model())
	}
}

func TestCompleteEmptyTextIsError(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": ""}}}},
			},
		})
	})
	if _, err := c.Complete(context.Background(), "", "prompt", 0, 0); err == nil {
		t.Fatalf("expected error for empty response")
	}
}

func TestCompleteUpstreamFailure(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "429 rate limit", http.StatusTooManyRequests)
	})
	if _, err := c.Complete(context.Background(), "", "prompt", 0, 0); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(logger.Nop(), Config{Model: "m"}, nil); err == nil {
		t.Fatalf("expected missing key error")
	}
}

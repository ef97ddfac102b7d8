package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

const okBody = `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"{\"ok\":true}"}]}]}`

func TestCompleteSendsResponsesRequest(t *testing.T) {
	var got responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, Model: "gpt-test", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text, err := c.Complete(context.Background(), "sys", "user", 3000, 0.2)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"ok":true}` {
		t.Fatalf("text: got=%q", text)
	}
	if got.Model != "gpt-test" || got.MaxOutputTokens != 3000 {
		t.Fatalf("request: got=%+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 0.2 {
		t.Fatalf("temperature: got=%v", got.Temperature)
	}
	if len(got.Input) != 2 || got.Input[0].Role != "system" || got.Input[1].Content != "user" {
		t.Fatalf("input: got=%+v", got.Input)
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, Model: "m", MaxRetries: 2})
	cc := c.(*client)
	start := time.Now()
	if _, err := cc.Complete(context.Background(), "s", "u", 10, 0.3); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("retry took too long")
	}
}

func TestCompleteDropsRejectedTemperature(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req responsesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		atomic.AddInt32(&calls, 1)
		if req.Temperature != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported parameter: 'temperature' is not supported with this model."}}`))
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, Model: "o-test"})
	if _, err := c.Complete(context.Background(), "s", "u", 10, 0.2); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := c.Complete(context.Background(), "s", "u", 10, 0.2); err != nil {
		t.Fatalf("Complete (second): %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("calls: want=3 (reject, retry, remembered) got=%d", calls)
	}
}

func TestCompleteRejectsEmptyOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":[]}`))
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	if _, err := c.Complete(context.Background(), "s", "u", 10, 0.2); err == nil {
		t.Fatalf("Complete: expected error for empty output")
	}
}

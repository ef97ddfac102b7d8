package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/interview-brief-backend/internal/domain"
)

type scriptedBackend struct {
	reply string
	err   error
	got   struct {
		system, user string
		maxTokens    int
		temperature  float64
	}
}

func (b *scriptedBackend) Complete(ctx context.Context, system, user string, maxOutputTokens int, temperature float64) (string, error) {
	b.got.system, b.got.user, b.got.maxTokens, b.got.temperature = system, user, maxOutputTokens, temperature
	return b.reply, b.err
}

func (b *scriptedBackend) Name() string { return "scripted_model" }

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{`Here you go: {"a":"}{"} trailing`, `{"a":"}{"}`, true},
		{`[1,[2,3]] and {"b":2}`, `[1,[2,3]]`, true},
		{`{"a": "esc \" quote"}`, `{"a": "esc \" quote"}`, true},
		{`] {"x": 1}`, `{"x": 1}`, true},
		{`no json here`, "", false},
		{`{"unterminated": [1, 2}`, "", false},
	}
	for _, c := range cases {
		got, ok := ExtractJSON(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ExtractJSON(%q): want=%q,%v got=%q,%v", c.in, c.want, c.ok, got, ok)
		}
	}
}

func TestCompleteStructuredDefaultsAndDecode(t *testing.T) {
	b := &scriptedBackend{reply: "Sure!\n{\"companyOverview\":\"Acme ships boxes\"}"}
	var out domain.Profile
	if err := CompleteStructured(context.Background(), b, Request{Op: "profile", System: "sys", User: "usr"}, &out); err != nil {
		t.Fatalf("CompleteStructured: %v", err)
	}
	if out.CompanyOverview != "Acme ships boxes" {
		t.Fatalf("decode: got=%q", out.CompanyOverview)
	}
	if b.got.maxTokens != DefaultMaxTokens || b.got.temperature != DefaultTemperature {
		t.Fatalf("defaults: want=%d/%v got=%d/%v", DefaultMaxTokens, DefaultTemperature, b.got.maxTokens, b.got.temperature)
	}
}

func TestCompleteStructuredErrorCodes(t *testing.T) {
	var out map[string]any
	err := CompleteStructured(context.Background(), &scriptedBackend{reply: "I cannot help"}, Request{Op: "profile"}, &out)
	if !domain.IsCode(err, domain.CodeMalformedModelOutput) {
		t.Fatalf("no json: want=malformed_model_output got=%v", err)
	}
	err = CompleteStructured(context.Background(), &scriptedBackend{reply: `{"a": tru}`}, Request{Op: "profile"}, &out)
	if !domain.IsCode(err, domain.CodeMalformedModelOutput) {
		t.Fatalf("bad json: want=malformed_model_output got=%v", err)
	}
	err = CompleteStructured(context.Background(), &scriptedBackend{err: errors.New("503")}, Request{Op: "profile"}, &out)
	if !domain.IsCode(err, domain.CodeUpstreamDependency) {
		t.Fatalf("provider failure: want=upstream_dependency got=%v", err)
	}
}

func TestNewFromEnvRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "llama")
	if _, err := NewFromEnv(nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

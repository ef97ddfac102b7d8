// Package llm is the narrow generative-model surface used by the briefing
// stages: free-text completion plus structured (JSON) decoding.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/gemini"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
	"github.com/yungbote/interview-brief-backend/internal/platform/openai"
)

// Backend is any completion provider. Name is the provenance tag recorded on
// versions it produced.
type Backend interface {
	Complete(ctx context.Context, system, user string, maxOutputTokens int, temperature float64) (string, error)
	Name() string
}

const (
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.2
)

type Request struct {
	Op          string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

func (r Request) withDefaults() Request {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Temperature <= 0 {
		r.Temperature = DefaultTemperature
	}
	if r.Op == "" {
		r.Op = "llm_complete"
	}
	return r
}

// CompleteStructured calls backend and decodes the first balanced JSON value
// of its reply into out. Provider failures are upstream errors; replies with
// no decodable JSON are malformed-output errors.
func CompleteStructured(ctx context.Context, backend Backend, req Request, out any) error {
	if backend == nil {
		return domain.NewError(domain.CodeInternal, req.Op, "no model backend configured", nil)
	}
	req = req.withDefaults()
	raw, err := backend.Complete(ctx, req.System, req.User, req.MaxTokens, req.Temperature)
	if err != nil {
		return domain.UpstreamError(req.Op, err)
	}
	js, ok := ExtractJSON(raw)
	if !ok {
		return domain.MalformedOutputError(req.Op, fmt.Errorf("no JSON object in model output"))
	}
	if err := json.Unmarshal([]byte(js), out); err != nil {
		return domain.MalformedOutputError(req.Op, fmt.Errorf("decode model output: %w", err))
	}
	return nil
}

// ExtractJSON returns the first balanced {...} or [...] in s, skipping
// brackets inside string literals. Markdown fences around it are ignored.
func ExtractJSON(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	for start >= 0 {
		if end, ok := matchClose(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexAny(s[start+1:], "{[")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchClose(s string, start int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// NewFromEnv selects the provider named by LLM_PROVIDER (openai or gemini).
func NewFromEnv(log *logger.Logger) (Backend, error) {
	switch p := strings.ToLower(envutil.String("LLM_PROVIDER", "openai")); p {
	case "openai":
		return openai.NewClient(log)
	case "gemini":
		return gemini.NewClient(log)
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q (want openai|gemini)", p)
	}
}

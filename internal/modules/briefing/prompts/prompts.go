// Package prompts loads the embedded prompt catalog shared by the briefing
// stages and renders entries into model requests.
package prompts

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/interview-brief-backend/internal/llm"
)

const (
	CompanyProfile     = "company_profile"
	InterviewQuestions = "interview_questions"
	InterviewerBrief   = "interviewer_brief"
	IntervieweePacket  = "interviewee_packet"
	PostCallSynthesis  = "post_call_synthesis"
)

//go:embed prompts.yaml
var catalogYAML []byte

type entry struct {
	MaxTokens int    `yaml:"max_tokens"`
	System    string `yaml:"system"`
	User      string `yaml:"user"`
}

type Catalog struct {
	entries map[string]entry
	users   map[string]*template.Template
}

// Data is the template input. Fields a prompt does not reference may be empty.
type Data struct {
	CompanyName     string
	Archetype       string
	ContextText     string
	URLsJSON        string
	ProfileJSON     string
	QuestionsJSON   string
	CorrectionsJSON string
	SelectedJSON    string
	SourcesJSON     string
	NotesJSON       string
}

func Parse(raw []byte) (*Catalog, error) {
	var entries map[string]entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	c := &Catalog{entries: entries, users: map[string]*template.Template{}}
	for name, e := range entries {
		if strings.TrimSpace(e.System) == "" || strings.TrimSpace(e.User) == "" {
			return nil, fmt.Errorf("prompt %q: system and user required", name)
		}
		t, err := template.New(name).Option("missingkey=error").Parse(e.User)
		if err != nil {
			return nil, fmt.Errorf("prompt %q: %w", name, err)
		}
		c.users[name] = t
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(catalogYAML)
	})
	return defaultCatalog, defaultErr
}

// Render builds the request for prompt name.
func (c *Catalog) Render(name string, data Data) (llm.Request, error) {
	e, ok := c.entries[name]
	if !ok {
		return llm.Request{}, fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := c.users[name].Execute(&buf, data); err != nil {
		return llm.Request{}, fmt.Errorf("render prompt %q: %w", name, err)
	}
	return llm.Request{
		Op:          name,
		System:      strings.TrimSpace(e.System),
		User:        strings.TrimSpace(buf.String()),
		MaxTokens:   e.MaxTokens,
		Temperature: llm.DefaultTemperature,
	}, nil
}

// JSON renders v indented for embedding in a prompt; nil or empty values
// become "".
func JSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	s := string(b)
	if s == "null" || s == "[]" || s == "{}" {
		return ""
	}
	return s
}

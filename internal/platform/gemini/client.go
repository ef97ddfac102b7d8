package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/interview-brief-backend/internal/observability"
	"github.com/yungbote/interview-brief-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// ProviderTag is the provenance tag recorded on brief versions produced by
// this client.
const ProviderTag = "gemini_model"

// Client calls the Gemini generateContent API.
type Client interface {
	Complete(ctx context.Context, system, user string, maxOutputTokens int, temperature float64) (string, error)
	Name() string
	Model() string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:  envutil.String("GEMINI_API_KEY", ""),
		Model:   envutil.String("GEMINI_MODEL", "gemini-2.5-flash"),
		BaseURL: envutil.String("GEMINI_BASE_URL", ""),
		Timeout: envutil.Seconds("GEMINI_TIMEOUT_SECONDS", 180*time.Second),
	}
}

type client struct {
	log     *logger.Logger
	genai   *genai.Client
	model   string
	timeout time.Duration
}

func NewClient(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv(), nil)
}

// New builds a client. httpClient may be nil; a non-empty cfg.BaseURL points
// the SDK at a different endpoint.
func New(log *logger.Logger, cfg Config, httpClient *http.Client) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if httpClient != nil {
		cc.HTTPClient = httpClient
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base, APIVersion: "v1beta"}
	}
	gc, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &client{
		log:     log.With("service", "GeminiClient"),
		genai:   gc,
		model:   strings.TrimSpace(cfg.Model),
		timeout: cfg.Timeout,
	}, nil
}

func (c *client) Name() string  { return ProviderTag }
func (c *client) Model() string { return c.model }

// Complete sends system and user text as one prompt. Token and temperature
// limits are left to the model defaults.
func (c *client) Complete(ctx context.Context, system, user string, maxOutputTokens int, temperature float64) (string, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := strings.TrimSpace(system)
	if prompt != "" {
		prompt += "\n\n"
	}
	prompt += user

	start := time.Now()
	result, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		observability.Current().ObserveLLMRequest(ProviderTag, c.model, statusFromErr(err), time.Since(start))
		c.log.Warn("Gemini request failed", "model", c.model, "error", err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	observability.Current().ObserveLLMRequest(ProviderTag, c.model, "ok", time.Since(start))
	if result == nil {
		return "", fmt.Errorf("gemini returned no response")
	}
	text, err := result.Text()
	if err != nil {
		return "", fmt.Errorf("gemini response text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

func statusFromErr(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

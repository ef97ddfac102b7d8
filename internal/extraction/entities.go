// Package extraction holds the enrichment collaborators of ingestion: named
// entity and key-phrase extraction, and document text extraction.
package extraction

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/llm"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// EntityExtractor never fails: an unavailable backend yields empty results.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) []domain.Entity
	ExtractKeyPhrases(ctx context.Context, text string) []string
}

// MaxExtractionChars bounds the text sent per extraction call.
const MaxExtractionChars = 4500

const entitySystem = `You extract named entities from business text.
Return JSON only: {"entities":[{"text":"...","type":"ORGANIZATION|PERSON|LOCATION|COMMERCIAL_ITEM|EVENT|DATE|QUANTITY|OTHER","score":0.0-1.0}]}`

const keyPhraseSystem = `You extract the key noun phrases that describe a company's business.
Return JSON only: {"keyPhrases":[{"text":"...","score":0.0-1.0}]}`

type modelEntityExtractor struct {
	backend llm.Backend
	log     *logger.Logger
}

func NewModelEntityExtractor(backend llm.Backend, baseLog *logger.Logger) EntityExtractor {
	return &modelEntityExtractor{backend: backend, log: baseLog.With("service", "EntityExtractor")}
}

func clip(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= MaxExtractionChars {
		return text
	}
	cut := MaxExtractionChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func (e *modelEntityExtractor) ExtractEntities(ctx context.Context, text string) []domain.Entity {
	text = clip(text)
	if text == "" || e.backend == nil {
		return []domain.Entity{}
	}
	var out struct {
		Entities []domain.Entity `json:"entities"`
	}
	err := llm.CompleteStructured(ctx, e.backend, llm.Request{
		Op:        "extract_entities",
		System:    entitySystem,
		User:      text,
		MaxTokens: 1500,
	}, &out)
	if err != nil {
		e.log.Warn("Entity extraction failed", "error", err)
		return []domain.Entity{}
	}
	if out.Entities == nil {
		return []domain.Entity{}
	}
	return out.Entities
}

func (e *modelEntityExtractor) ExtractKeyPhrases(ctx context.Context, text string) []string {
	text = clip(text)
	if text == "" || e.backend == nil {
		return []string{}
	}
	var out struct {
		KeyPhrases []struct {
			Text  string  `json:"text"`
			Score float64 `json:"score"`
		} `json:"keyPhrases"`
	}
	err := llm.CompleteStructured(ctx, e.backend, llm.Request{
		Op:        "extract_key_phrases",
		System:    keyPhraseSystem,
		User:      text,
		MaxTokens: 1000,
	}, &out)
	if err != nil {
		e.log.Warn("Key phrase extraction failed", "error", err)
		return []string{}
	}
	phrases := make([]string, 0, len(out.KeyPhrases))
	for _, kp := range out.KeyPhrases {
		if kp.Score > ScoreThreshold && strings.TrimSpace(kp.Text) != "" {
			phrases = append(phrases, strings.TrimSpace(kp.Text))
		}
	}
	return phrases
}

// ScoreThreshold is the minimum confidence kept for entities and key phrases.
const ScoreThreshold = 0.8

// NoopEntityExtractor is used when no backend is configured.
type NoopEntityExtractor struct{}

func (NoopEntityExtractor) ExtractEntities(context.Context, string) []domain.Entity {
	return []domain.Entity{}
}
func (NoopEntityExtractor) ExtractKeyPhrases(context.Context, string) []string { return []string{} }

package ingestion

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/interview-brief-backend/internal/data/blob"
	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/extraction"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// FetchConcurrency bounds parallel URL fetches per session.
const FetchConcurrency = 4

type Input struct {
	SessionID   string
	CompanyName string
	URLs        []string
	// UploadKey is the blob key of an uploaded PDF, or "".
	UploadKey string
}

type Stage struct {
	fetcher   Fetcher
	entities  extraction.EntityExtractor
	documents extraction.DocumentExtractor
	blob      blob.Store
	log       *logger.Logger
}

func New(fetcher Fetcher, entities extraction.EntityExtractor, documents extraction.DocumentExtractor, store blob.Store, baseLog *logger.Logger) *Stage {
	if entities == nil {
		entities = extraction.NoopEntityExtractor{}
	}
	return &Stage{
		fetcher:   fetcher,
		entities:  entities,
		documents: documents,
		blob:      store,
		log:       baseLog.With("stage", "ingestion"),
	}
}

type sourceText struct {
	record   domain.SourceRecord
	text     string
	entities []domain.Entity
}

// chunksDoc is the persisted extraction artifact.
type chunksDoc struct {
	Chunks     []string              `json:"chunks"`
	Entities   []domain.Entity       `json:"entities"`
	KeyPhrases []string              `json:"keyPhrases"`
	Sources    []domain.SourceRecord `json:"sources"`
}

// Run gathers every source, chunks the combined text and persists the
// extraction artifacts. Sources that fail contribute nothing; only a failed
// artifact write is an error.
func (s *Stage) Run(ctx context.Context, in Input) (*domain.IngestionResult, error) {
	urls := cleanURLs(in.URLs)
	fetched := make([]*sourceText, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(FetchConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			text, err := s.fetcher.Fetch(gctx, u)
			if err != nil {
				s.log.Warn("URL fetch failed", "session_id", in.SessionID, "url", u, "error", err)
				return nil
			}
			if strings.TrimSpace(text) == "" {
				return nil
			}
			fetched[i] = &sourceText{
				record:   domain.SourceRecord{Type: domain.SourceTypeURL, Source: u, Chars: len([]rune(text))},
				text:     text,
				entities: s.entities.ExtractEntities(gctx, text),
			}
			return nil
		})
	}
	_ = g.Wait()

	sources := make([]*sourceText, 0, len(fetched)+1)
	for _, f := range fetched {
		if f != nil {
			sources = append(sources, f)
		}
	}

	if in.UploadKey != "" && s.documents != nil {
		if text, ok := s.documents.ExtractText(ctx, in.UploadKey); ok {
			if err := s.blob.PutText(ctx, domain.DocumentTextKey(in.SessionID), text); err != nil {
				return nil, err
			}
			sources = append(sources, &sourceText{
				record:   domain.SourceRecord{Type: domain.SourceTypePDF, Source: domain.SourceTypePDF, Chars: len([]rune(text))},
				text:     text,
				entities: s.entities.ExtractEntities(ctx, text),
			})
		}
	}

	texts := make([]string, 0, len(sources))
	records := make([]domain.SourceRecord, 0, len(sources))
	var allEntities []domain.Entity
	for _, src := range sources {
		texts = append(texts, src.text)
		records = append(records, src.record)
		allEntities = append(allEntities, src.entities...)
	}
	combined := strings.Join(texts, " ")
	chunks := SplitWords(combined, ChunkWords, ChunkOverlap)

	keyPhrases := []string{}
	if strings.TrimSpace(combined) != "" {
		keyPhrases = dedupeStrings(s.entities.ExtractKeyPhrases(ctx, combined), MaxKeyPhrases)
	}
	entities := FilterEntities(allEntities, 0)

	if len(chunks) > 0 {
		doc := chunksDoc{Chunks: chunks, Entities: entities, KeyPhrases: keyPhrases, Sources: records}
		if err := s.blob.PutJSON(ctx, domain.ChunksKey(in.SessionID), doc); err != nil {
			return nil, fmt.Errorf("persist chunks: %w", err)
		}
	}

	out := &domain.IngestionResult{
		Chunks:        capStrings(chunks, MaxContextChunks),
		Entities:      FilterEntities(entities, MaxEntities),
		KeyPhrases:    keyPhrases,
		Sources:       records,
		TotalChunks:   len(chunks),
		TotalEntities: len(entities),
	}
	s.log.Info("Sources ingested",
		"session_id", in.SessionID,
		"sources", len(records),
		"chunks", len(chunks),
		"entities", len(entities),
	)
	return out, nil
}

func cleanURLs(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, u := range in {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func capStrings(in []string, n int) []string {
	if len(in) > n {
		return append([]string(nil), in[:n]...)
	}
	return in
}

// Load rebuilds the bounded generation context from the persisted chunks
// artifact. A session whose sources yielded no text has no artifact; that
// reads as an empty result.
func Load(ctx context.Context, store blob.Store, sessionID string) (*domain.IngestionResult, error) {
	var doc chunksDoc
	ok, err := store.GetJSON(ctx, domain.ChunksKey(sessionID), &doc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &domain.IngestionResult{Chunks: []string{}, Entities: []domain.Entity{}, KeyPhrases: []string{}, Sources: []domain.SourceRecord{}}, nil
	}
	return &domain.IngestionResult{
		Chunks:        capStrings(doc.Chunks, MaxContextChunks),
		Entities:      FilterEntities(doc.Entities, MaxEntities),
		KeyPhrases:    doc.KeyPhrases,
		Sources:       doc.Sources,
		TotalChunks:   len(doc.Chunks),
		TotalEntities: len(doc.Entities),
	}, nil
}

package ingestion

import (
	"strings"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/extraction"
)

const (
	ChunkWords   = 1500
	ChunkOverlap = 200

	MaxContextChunks = 15
	MaxEntities      = 30
	MaxKeyPhrases    = 20
)

// SplitWords splits text on whitespace into windows of size words starting
// every size-overlap words.
func SplitWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}
	out := make([]string, 0, len(words)/step+1)
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[i:end], " "))
	}
	return out
}

// FilterEntities keeps entities scoring above the threshold, dedupes them
// case-insensitively by text (highest score wins, first-seen order kept) and
// caps the list.
func FilterEntities(in []domain.Entity, limit int) []domain.Entity {
	idx := map[string]int{}
	out := make([]domain.Entity, 0, len(in))
	for _, e := range in {
		text := strings.TrimSpace(e.Text)
		if text == "" || e.Score <= extraction.ScoreThreshold {
			continue
		}
		key := strings.ToLower(text)
		if i, ok := idx[key]; ok {
			if e.Score > out[i].Score {
				out[i] = e
			}
			continue
		}
		idx[key] = len(out)
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func dedupeStrings(in []string, limit int) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		k := strings.ToLower(strings.TrimSpace(s))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, strings.TrimSpace(s))
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

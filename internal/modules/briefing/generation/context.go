package generation

import (
	"fmt"
	"strings"

	"github.com/yungbote/interview-brief-backend/internal/domain"
)

const (
	// ContextEntityLimit caps entities named in the entity line.
	ContextEntityLimit = 15
	noContextText      = "No proprietary context available."
	feedbackPrefix     = "QUALITY FEEDBACK FROM PRIOR GENERATION (fix these issues): "
	entityPrefix       = "Key entities identified: "
)

// BuildContext assembles the context sections handed to the profile prompt.
// Quality feedback comes first, then the entity line, then the chunks.
func BuildContext(ingest *domain.IngestionResult, feedback []string) []string {
	var out []string
	if fb := cleanFeedback(feedback); len(fb) > 0 {
		out = append(out, feedbackPrefix+strings.Join(fb, "; "))
	}
	if ingest == nil {
		return out
	}
	if len(ingest.Entities) > 0 {
		n := len(ingest.Entities)
		if n > ContextEntityLimit {
			n = ContextEntityLimit
		}
		names := make([]string, 0, n)
		for _, e := range ingest.Entities[:n] {
			names = append(names, fmt.Sprintf("%s (%s)", e.Text, e.Type))
		}
		out = append(out, entityPrefix+strings.Join(names, ", "))
	}
	for _, c := range ingest.Chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

func contextText(sections []string) string {
	if len(sections) == 0 {
		return noContextText
	}
	return strings.Join(sections, "\n\n")
}

// cleanFeedback trims, drops empties and de-duplicates, keeping first-seen order.
func cleanFeedback(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// OrderQuestions returns questions with the selected ids first (in selection
// order), then the remaining menu questions, then interviewer-only ones.
// Unknown selected ids are ignored.
func OrderQuestions(questions []domain.Question, selected []string) (chosen, rest []domain.Question) {
	byID := make(map[string]int, len(questions))
	for i, q := range questions {
		byID[q.ID] = i
	}
	used := map[int]bool{}
	for _, id := range selected {
		i, ok := byID[strings.TrimSpace(id)]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		chosen = append(chosen, questions[i])
	}
	for i, q := range questions {
		if !used[i] {
			rest = append(rest, q)
		}
	}
	return chosen, rest
}

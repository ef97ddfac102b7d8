// Package quality scores a generated question set against non-leading and
// structural rules. Evaluate is pure and deterministic so it can run inside
// the regeneration loop.
package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yungbote/interview-brief-backend/internal/domain"
)

const (
	StartScore   = 100
	PassScore    = 60
	MinQuestions = 5
	// MaxReportedIssues caps Result.Issues; IssueCount keeps the full count.
	MaxReportedIssues = 10

	tooFewPenalty   = 20
	leadingPenalty  = 10
	fieldPenalty    = 5
	phasePenalty    = 5
	excerptLen      = 60
	fieldExcerptLen = 40
)

var leadingPatterns = compile(
	`^why don'?t you`,
	`^isn'?t it true`,
	`^don'?t you think`,
	`^wouldn'?t you agree`,
	`^surely you`,
	`^obviously`,
	`your high \w+`,
	`your low \w+`,
	`your poor \w+`,
	`your declining`,
	`your struggling`,
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

type Result struct {
	Passed     bool     `json:"passed"`
	Score      int      `json:"score"`
	Issues     []string `json:"issues"`
	IssueCount int      `json:"issueCount"`
}

// Evaluate scores questions. Penalties stack without per-category caps; the
// score is floored at 0.
func Evaluate(questions []domain.Question) Result {
	score := StartScore
	issues := []string{}

	if len(questions) < MinQuestions {
		issues = append(issues, fmt.Sprintf("Too few questions: %d (minimum %d)", len(questions), MinQuestions))
		score -= tooFewPenalty
	}

	seen := map[string]bool{}
	for _, q := range questions {
		found := questionIssues(q.Question)
		issues = append(issues, found...)
		score -= leadingPenalty * len(found)

		short := excerpt(q.Question, fieldExcerptLen)
		if strings.TrimSpace(q.FollowUpStem) == "" {
			issues = append(issues, fmt.Sprintf("Missing follow-up stem for: '%s'", short))
			score -= fieldPenalty
		}
		if strings.TrimSpace(q.Objective) == "" {
			issues = append(issues, fmt.Sprintf("Missing objective for: '%s'", short))
			score -= fieldPenalty
		}
		if strings.TrimSpace(q.CoachingCue) == "" {
			issues = append(issues, fmt.Sprintf("Missing coaching cue for: '%s'", short))
			score -= fieldPenalty
		}
		if p := strings.TrimSpace(q.Phase); p != "" {
			seen[p] = true
		}
	}

	for _, phase := range domain.RequiredPhases {
		if !seen[phase] {
			issues = append(issues, fmt.Sprintf("Missing question phase: %s", phase))
			score -= phasePenalty
		}
	}

	if score < 0 {
		score = 0
	}
	res := Result{
		Passed:     score >= PassScore,
		Score:      score,
		IssueCount: len(issues),
		Issues:     issues,
	}
	if len(res.Issues) > MaxReportedIssues {
		res.Issues = res.Issues[:MaxReportedIssues]
	}
	return res
}

// questionIssues returns one issue per matching leading pattern plus one when
// the text is not phrased as a question.
func questionIssues(text string) []string {
	lower := strings.ToLower(strings.TrimSpace(text))
	short := excerpt(text, excerptLen)
	var out []string
	for _, re := range leadingPatterns {
		if re.MatchString(lower) {
			out = append(out, fmt.Sprintf("Leading pattern detected: '%s' in question: '%s'", re.String(), short))
		}
	}
	if !strings.Contains(text, "?") {
		out = append(out, fmt.Sprintf("Not a question (missing '?'): '%s'", short))
	}
	return out
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

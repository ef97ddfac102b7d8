// Package llmtest provides a scripted model backend and canned replies for
// tests of the briefing stages.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Markers that identify each prompt by its user text.
const (
	ProfileMarker   = "Build a company profile"
	QuestionsMarker = "Write interview questions"
	BriefMarker     = "Write the Interviewer Brief"
	PacketMarker    = "Write the pre-read packet"
	SynthesisMarker = "Synthesize the interview notes"
)

type Call struct {
	System string
	User   string
}

// Backend answers each call with the reply registered for the first marker
// found in the user text. Replies registered with Queue are consumed first.
type Backend struct {
	Tag string

	mu      sync.Mutex
	replies map[string]string
	queued  map[string][]string
	errs    map[string]error
	calls   []Call
}

func New() *Backend {
	return &Backend{
		Tag:     "openai_model",
		replies: map[string]string{},
		queued:  map[string][]string{},
		errs:    map[string]error{},
	}
}

// Default returns a backend that answers every prompt with a valid reply.
func Default() *Backend {
	b := New()
	b.Reply(ProfileMarker, ProfileJSON)
	b.Reply(QuestionsMarker, QuestionsJSON(8))
	b.Reply(BriefMarker, BriefJSON)
	b.Reply(PacketMarker, PacketJSON)
	b.Reply(SynthesisMarker, SynthesisJSON)
	return b
}

func (b *Backend) Reply(marker, reply string) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[marker] = reply
	delete(b.errs, marker)
	return b
}

// Queue registers one-shot replies returned before the standing reply.
func (b *Backend) Queue(marker string, replies ...string) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queued[marker] = append(b.queued[marker], replies...)
	return b
}

func (b *Backend) Fail(marker string, err error) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[marker] = err
	return b
}

func (b *Backend) Name() string { return b.Tag }

func (b *Backend) Complete(ctx context.Context, system, user string, maxOutputTokens int, temperature float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{System: system, User: user})
	for _, m := range []string{ProfileMarker, QuestionsMarker, BriefMarker, PacketMarker, SynthesisMarker} {
		if !strings.Contains(user, m) {
			continue
		}
		if err := b.errs[m]; err != nil {
			return "", err
		}
		if q := b.queued[m]; len(q) > 0 {
			b.queued[m] = q[1:]
			return q[0], nil
		}
		if r, ok := b.replies[m]; ok {
			return r, nil
		}
		return "", fmt.Errorf("no reply scripted for %q", m)
	}
	return "", fmt.Errorf("unrecognized prompt")
}

// Calls returns the user prompts seen so far that contain marker.
func (b *Backend) Calls(marker string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Call
	for _, c := range b.calls {
		if strings.Contains(c.User, marker) {
			out = append(out, c)
		}
	}
	return out
}

const ProfileJSON = `{
  "companyOverview": "Acme makes industrial widgets for regional distributors.",
  "marketContext": "The widget market is fragmented and price sensitive.",
  "revenueModelHypothesis": {"description": "Per-unit sales through distributors", "confidence": "Medium"},
  "whatWeThinkWeKnow": [
    {"assertion": "Acme sells mainly through distributors", "confidence": "Medium", "sourceType": "Public", "source": "company site"}
  ],
  "knowledgeGaps": ["Direct sales share"],
  "industryClassification": {"industry": "Manufacturing", "region": "Midwest", "stage": "growth", "archetype": "manufacturing"}
}`

var phases = []string{"opening", "opening", "deep_dive", "deep_dive", "strategic", "strategic", "closing", "closing"}

// Questions returns n well-formed questions covering every phase.
func Questions(n int) []map[string]string {
	out := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]string{
			"id":           fmt.Sprintf("q%d", i+1),
			"question":     fmt.Sprintf("Walk us through how decision %d gets made?", i+1),
			"followUpStem": "What would change that?",
			"objective":    "Understand decision drivers",
			"coachingCue":  "Let them finish",
			"phase":        phases[i%len(phases)],
		})
	}
	return out
}

// QuestionsJSON renders n well-formed questions as the questions reply.
func QuestionsJSON(n int) string {
	b, _ := json.Marshal(map[string]any{"intervieweeQuestions": Questions(n)})
	return string(b)
}

// LeadingQuestionsJSON renders 8 questions that all fail the quality gate.
func LeadingQuestionsJSON() string {
	qs := Questions(8)
	for _, q := range qs {
		q["question"] = "Why don't you fix your high churn"
		q["followUpStem"] = ""
		q["objective"] = ""
		q["coachingCue"] = ""
	}
	b, _ := json.Marshal(map[string]any{"intervieweeQuestions": qs})
	return string(b)
}

const BriefJSON = "Here is the brief:\n```json\n" + `{
  "title": "Interviewer Brief: Acme",
  "page1_companyContext": {
    "companyHeader": {"name": "Acme", "industry": "Manufacturing", "region": "Midwest", "stage": "growth"},
    "companyOverview": "Acme makes widgets [Ask about direct sales]",
    "marketContext": "Fragmented market",
    "revenueModelHypothesis": {"text": "Distributor sales", "confidence": "Medium"},
    "whatWeThinkWeKnow": [{"assertion": "Acme sells mainly through distributors", "confidence": "Medium", "sourceType": "Public", "wasCorrection": false}],
    "openingCoachingCue": "[Start by asking what we got wrong.]"
  },
  "page2_questionSequence": {"selectedQuestions": [], "additionalQuestions": [], "knowledgeGaps": ["Direct sales share"]},
  "page3_insightCapture": {
    "liveNotesTemplate": {"corrections": [], "keyInsights": [], "surprises": [], "followUpActions": []},
    "closingProtocol": "Thank the interviewee",
    "closingCoachingCue": "[Confirm the top 3 constraints]"
  }
}` + "\n```"

const PacketJSON = `{
  "header": {"companyName": "Acme", "preparedFor": "Business Leader"},
  "whatWeLearned": "Acme sells widgets [Source: url]",
  "accuracyRequest": "Tell us what we got wrong.",
  "questionMenu": [{"id": "q1", "question": "Walk us through how decision 1 gets made?", "context": "Decision drivers"}],
  "transparencyFooter": {"sourcesUsed": [], "statement": "Only public sources were used.", "optOutNote": "You may opt out at any time."}
}`

const SynthesisJSON = `{
  "companyProfile": {"name": "Acme", "industry": "Manufacturing", "region": "Midwest", "stage": "growth"},
  "constraintMap": {"top3Constraints": [
    {"constraint": "Distributor concentration", "type": "demand", "confirmed": true},
    {"constraint": "Hiring machinists", "type": "talent", "confirmed": false}
  ]},
  "marketStructure": {"regulatoryStructure": "light", "competitiveFragmentation": "high", "barriersToEntry": "moderate", "disintermediationRisk": "medium"},
  "strategicTensions": [{"tension": "Direct vs distributor", "riskLevel": "medium", "description": "Channel conflict"}],
  "aiOpportunities": [{"area": "Forecasting", "description": "Demand forecasting", "estimatedImpact": "high"}],
  "knowledgeGraphTags": {"industryCluster": "Industrial Manufacturing", "riskFlags": ["channel concentration"], "growthSignals": ["new plant", "export orders"], "relatedCompanies": ["Globex"]},
  "unresolvedQuestions": ["Export margin"],
  "keyDeltasFromProfile": ["Direct sales are larger than assumed"]
}`

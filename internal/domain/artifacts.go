package domain

// Generated artifacts are stored as JSON blobs; the structs below are their
// wire shapes. Field names match the keys the model is asked to return.

type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

type RevenueModelHypothesis struct {
	Description string     `json:"description"`
	Confidence  Confidence `json:"confidence"`
}

// Assertion is one falsifiable claim the interviewee can confirm or deny.
type Assertion struct {
	Assertion  string     `json:"assertion"`
	Confidence Confidence `json:"confidence"`
	SourceType string     `json:"sourceType"`
	Source     string     `json:"source,omitempty"`
}

type IndustryClassification struct {
	Industry  string `json:"industry"`
	Region    string `json:"region"`
	Stage     string `json:"stage"`
	Archetype string `json:"archetype"`
}

type Profile struct {
	CompanyOverview        string                 `json:"companyOverview"`
	MarketContext          string                 `json:"marketContext"`
	RevenueModelHypothesis RevenueModelHypothesis `json:"revenueModelHypothesis"`
	WhatWeThinkWeKnow      []Assertion            `json:"whatWeThinkWeKnow"`
	KnowledgeGaps          []string               `json:"knowledgeGaps"`
	IndustryClassification IndustryClassification `json:"industryClassification"`
}

// DefaultArchetype is used when the profile omits a classification.
const DefaultArchetype = "service"

func (p *Profile) Archetype() string {
	if p == nil || p.IndustryClassification.Archetype == "" {
		return DefaultArchetype
	}
	return p.IndustryClassification.Archetype
}

const (
	PhaseOpening   = "opening"
	PhaseDeepDive  = "deep_dive"
	PhaseStrategic = "strategic"
	PhaseClosing   = "closing"
)

// RequiredPhases lists every phase a question set must cover.
var RequiredPhases = []string{PhaseOpening, PhaseDeepDive, PhaseStrategic, PhaseClosing}

// QuestionCount is the exact size of a generated question set.
const QuestionCount = 8

// PacketQuestionCount is how many leading questions form the interviewee menu.
const PacketQuestionCount = 6

type Question struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	FollowUpStem string `json:"followUpStem"`
	Objective    string `json:"objective"`
	CoachingCue  string `json:"coachingCue"`
	Phase        string `json:"phase"`
}

type QuestionSet struct {
	Questions []Question `json:"questions"`
}

type CompanyHeader struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Region   string `json:"region"`
	Stage    string `json:"stage"`
}

type BriefAssertion struct {
	Assertion      string `json:"assertion"`
	Confidence     string `json:"confidence"`
	SourceType     string `json:"sourceType"`
	WasCorrection  bool   `json:"wasCorrection"`
	CorrectionNote string `json:"correctionNote,omitempty"`
}

type BriefContext struct {
	CompanyHeader          CompanyHeader    `json:"companyHeader"`
	CompanyOverview        string           `json:"companyOverview"`
	MarketContext          string           `json:"marketContext"`
	RevenueModelHypothesis map[string]any   `json:"revenueModelHypothesis,omitempty"`
	WhatWeThinkWeKnow      []BriefAssertion `json:"whatWeThinkWeKnow"`
	OpeningCoachingCue     string           `json:"openingCoachingCue"`
}

type BriefQuestionSequence struct {
	SelectedQuestions   []Question `json:"selectedQuestions"`
	AdditionalQuestions []Question `json:"additionalQuestions"`
	KnowledgeGaps       []string   `json:"knowledgeGaps"`
}

type LiveNotesTemplate struct {
	Corrections     []string `json:"corrections"`
	KeyInsights     []string `json:"keyInsights"`
	Surprises       []string `json:"surprises"`
	FollowUpActions []string `json:"followUpActions"`
}

type BriefInsightCapture struct {
	LiveNotesTemplate  LiveNotesTemplate `json:"liveNotesTemplate"`
	ClosingProtocol    string            `json:"closingProtocol"`
	ClosingCoachingCue string            `json:"closingCoachingCue"`
}

// Brief is the three-part interviewer document.
type Brief struct {
	Title            string                `json:"title"`
	GeneratedAt      string                `json:"generatedAt,omitempty"`
	CompanyContext   BriefContext          `json:"page1_companyContext"`
	QuestionSequence BriefQuestionSequence `json:"page2_questionSequence"`
	InsightCapture   BriefInsightCapture   `json:"page3_insightCapture"`
}

type PacketHeader struct {
	Institution string `json:"institution,omitempty"`
	Program     string `json:"program,omitempty"`
	CompanyName string `json:"companyName"`
	PreparedFor string `json:"preparedFor,omitempty"`
}

type PacketQuestion struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Context  string `json:"context"`
}

type TransparencyFooter struct {
	SourcesUsed []string `json:"sourcesUsed"`
	Statement   string   `json:"statement"`
	OptOutNote  string   `json:"optOutNote"`
}

// Packet is the interviewee-facing pre-read.
type Packet struct {
	Header             PacketHeader       `json:"header"`
	WhatWeLearned      string             `json:"whatWeLearned"`
	AccuracyRequest    string             `json:"accuracyRequest"`
	QuestionMenu       []PacketQuestion   `json:"questionMenu"`
	TransparencyFooter TransparencyFooter `json:"transparencyFooter"`
}

// Notes are the interviewer's post-interview notes.
type Notes struct {
	Corrections        []string `json:"corrections"`
	KeyInsights        []string `json:"keyInsights"`
	Surprises          []string `json:"surprises"`
	Constraints        []string `json:"constraints"`
	FollowUpActions    []string `json:"followUpActions"`
	MergedSuggestions  []string `json:"mergedSuggestions"`
	SkippedSuggestions []string `json:"skippedSuggestions"`
	RawNotes           string   `json:"rawNotes"`
}

// IsEmpty reports whether no note field carries content.
func (n Notes) IsEmpty() bool {
	return len(n.Corrections) == 0 && len(n.KeyInsights) == 0 && len(n.Surprises) == 0 &&
		len(n.Constraints) == 0 && len(n.FollowUpActions) == 0 && len(n.MergedSuggestions) == 0 &&
		len(n.SkippedSuggestions) == 0 && n.RawNotes == ""
}

var ConstraintTypes = []string{"demand", "fulfillment", "capital", "regulation", "talent", "execution"}

type Constraint struct {
	Constraint string `json:"constraint"`
	Type       string `json:"type"`
	Confirmed  bool   `json:"confirmed"`
}

type ConstraintMap struct {
	Top3Constraints []Constraint `json:"top3Constraints"`
}

type SynthesisProfile struct {
	Name          string `json:"name"`
	Industry      string `json:"industry"`
	Region        string `json:"region"`
	Stage         string `json:"stage"`
	EmployeeRange string `json:"employeeRange"`
	RevenueRange  string `json:"revenueRange"`
	OwnershipType string `json:"ownershipType"`
}

type MarketStructure struct {
	RegulatoryStructure      string `json:"regulatoryStructure"`
	CompetitiveFragmentation string `json:"competitiveFragmentation"`
	BarriersToEntry          string `json:"barriersToEntry"`
	DisintermediationRisk    string `json:"disintermediationRisk"`
}

type StrategicTension struct {
	Tension     string `json:"tension"`
	RiskLevel   string `json:"riskLevel"`
	Description string `json:"description"`
}

type AIOpportunity struct {
	Area            string `json:"area"`
	Description     string `json:"description"`
	EstimatedImpact string `json:"estimatedImpact"`
}

type KnowledgeGraphTags struct {
	IndustryCluster  string   `json:"industryCluster"`
	RiskFlags        []string `json:"riskFlags"`
	GrowthSignals    []string `json:"growthSignals"`
	RelatedCompanies []string `json:"relatedCompanies"`
}

// Synthesis maps interview notes onto the cross-session insights schema.
type Synthesis struct {
	CompanyProfile       SynthesisProfile   `json:"companyProfile"`
	ConstraintMap        ConstraintMap      `json:"constraintMap"`
	MarketStructure      MarketStructure    `json:"marketStructure"`
	StrategicTensions    []StrategicTension `json:"strategicTensions"`
	AIOpportunities      []AIOpportunity    `json:"aiOpportunities"`
	KnowledgeGraphTags   KnowledgeGraphTags `json:"knowledgeGraphTags"`
	UnresolvedQuestions  []string           `json:"unresolvedQuestions"`
	KeyDeltasFromProfile []string           `json:"keyDeltasFromProfile"`
}

// Entity is a named entity found in ingested text.
type Entity struct {
	Text  string  `json:"text"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

const (
	SourceTypeURL = "url"
	SourceTypePDF = "pdf"
)

// SourceRecord is per-source provenance from ingestion.
type SourceRecord struct {
	Type   string `json:"type"`
	Source string `json:"source"`
	Chars  int    `json:"chars"`
}

// IngestionResult is the bounded context handed to generation and persisted
// in full under the extracted/ prefix.
type IngestionResult struct {
	Chunks        []string       `json:"chunks"`
	Entities      []Entity       `json:"entities"`
	KeyPhrases    []string       `json:"keyPhrases"`
	Sources       []SourceRecord `json:"sources"`
	TotalChunks   int            `json:"totalChunks"`
	TotalEntities int            `json:"totalEntities"`
}

// SourceTypes returns the distinct provenance types in first-seen order.
func (r *IngestionResult) SourceTypes() []string {
	if r == nil {
		return []string{}
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		t := s.Type
		if t == "" {
			t = "unknown"
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// SourceIDs returns the source identifiers recorded for audit.
func (r *IngestionResult) SourceIDs() []string {
	if r == nil {
		return []string{}
	}
	out := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		out = append(out, s.Source)
	}
	return out
}

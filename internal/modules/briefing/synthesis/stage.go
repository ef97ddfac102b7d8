// Package synthesis maps post-interview notes onto the cross-session insights
// schema.
package synthesis

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/interview-brief-backend/internal/data/blob"
	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/llm"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/prompts"
	"github.com/yungbote/interview-brief-backend/internal/observability"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// MaxConstraints is the size of the constraint map.
const MaxConstraints = 3

type Stage struct {
	backend llm.Backend
	prompts *prompts.Catalog
	blob    blob.Store
	log     *logger.Logger
}

func New(backend llm.Backend, catalog *prompts.Catalog, store blob.Store, baseLog *logger.Logger) *Stage {
	return &Stage{
		backend: backend,
		prompts: catalog,
		blob:    store,
		log:     baseLog.With("stage", "synthesis"),
	}
}

type Input struct {
	SessionID   string
	CompanyName string
	// Version is the session's current brief version; the synthesis shares it.
	Version int
	Notes   domain.Notes
	// Profile is the stored company profile, or nil when none was generated.
	Profile *domain.Profile
}

// NotesSource is the provenance tag for interviewer notes.
const NotesSource = "interview_notes"

type Output struct {
	Synthesis *domain.Synthesis
	Key       string
	NotesKey  string
	Sources   []string
}

// Run stores the notes, asks the model for a synthesis and stores it under
// the version's key.
func (s *Stage) Run(ctx context.Context, in Input) (*Output, error) {
	const op = "post_call_synthesis"
	if in.Version < 1 {
		in.Version = 1
	}
	ctx, span := observability.StartSpan(ctx, "synthesis.Run",
		attribute.String("session_id", in.SessionID),
		attribute.Int("version", in.Version),
	)
	defer span.End()
	start := time.Now()

	out, err := s.run(ctx, in)
	status := "ok"
	if err != nil {
		status = "error"
		if c := domain.CodeOf(err); c != "" {
			status = string(c)
		}
		span.RecordError(err)
	}
	observability.Current().ObserveStage("synthesis", status, time.Since(start))
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, err)
	}
	return out, nil
}

func (s *Stage) run(ctx context.Context, in Input) (*Output, error) {
	notesKey := domain.NotesKey(in.SessionID)
	if err := s.blob.PutJSON(ctx, notesKey, in.Notes); err != nil {
		return nil, err
	}

	profileJSON := prompts.JSON(in.Profile)
	if profileJSON == "" {
		profileJSON = "{}"
	}
	req, err := s.prompts.Render(prompts.PostCallSynthesis, prompts.Data{
		CompanyName: in.CompanyName,
		NotesJSON:   prompts.JSON(in.Notes),
		ProfileJSON: profileJSON,
	})
	if err != nil {
		return nil, err
	}
	var syn domain.Synthesis
	if err := llm.CompleteStructured(ctx, s.backend, req, &syn); err != nil {
		return nil, err
	}
	Normalize(&syn, in.CompanyName)

	key := domain.SynthesisKey(in.SessionID, in.Version)
	if err := s.blob.PutJSON(ctx, key, &syn); err != nil {
		return nil, err
	}
	s.log.Info("Synthesis stored",
		"session_id", in.SessionID,
		"version", domain.VersionLabel(in.Version),
		"constraints", len(syn.ConstraintMap.Top3Constraints),
		"growth_signals", len(syn.KnowledgeGraphTags.GrowthSignals),
	)
	return &Output{
		Synthesis: &syn,
		Key:       key,
		NotesKey:  notesKey,
		Sources:   []string{NotesSource, s.backend.Name()},
	}, nil
}

// Normalize caps the constraint map, lowercases enum-like fields and fills
// the company name when the model left it blank.
func Normalize(syn *domain.Synthesis, companyName string) {
	if strings.TrimSpace(syn.CompanyProfile.Name) == "" {
		syn.CompanyProfile.Name = companyName
	}
	cs := syn.ConstraintMap.Top3Constraints
	if len(cs) > MaxConstraints {
		cs = cs[:MaxConstraints]
	}
	for i := range cs {
		cs[i].Type = strings.ToLower(strings.TrimSpace(cs[i].Type))
	}
	syn.ConstraintMap.Top3Constraints = cs
	for i := range syn.StrategicTensions {
		syn.StrategicTensions[i].RiskLevel = strings.ToLower(strings.TrimSpace(syn.StrategicTensions[i].RiskLevel))
	}
	for i := range syn.AIOpportunities {
		syn.AIOpportunities[i].EstimatedImpact = strings.ToLower(strings.TrimSpace(syn.AIOpportunities[i].EstimatedImpact))
	}
	if syn.KnowledgeGraphTags.GrowthSignals == nil {
		syn.KnowledgeGraphTags.GrowthSignals = []string{}
	}
}

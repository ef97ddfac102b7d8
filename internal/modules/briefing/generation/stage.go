package generation

import (
	"context"
	"fmt"
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

// CorrectionsSource is the provenance tag added to versions regenerated from
// interviewee corrections.
const CorrectionsSource = "interviewee_corrections"

type Stage struct {
	backend llm.Backend
	prompts *prompts.Catalog
	blob    blob.Store
	log     *logger.Logger
	now     func() time.Time
}

func New(backend llm.Backend, catalog *prompts.Catalog, store blob.Store, baseLog *logger.Logger) *Stage {
	return &Stage{
		backend: backend,
		prompts: catalog,
		blob:    store,
		log:     baseLog.With("stage", "generation"),
		now:     time.Now,
	}
}

type Input struct {
	SessionID   string
	CompanyName string
	URLs        []string
	// Version is the brief version number this run writes.
	Version   int
	Ingestion *domain.IngestionResult
	// Feedback holds quality issues from earlier attempts.
	Feedback []string
}

// Output carries the generated artifacts and where they were written.
type Output struct {
	Version      int
	Profile      *domain.Profile
	Questions    []domain.Question
	Brief        *domain.Brief
	Packet       *domain.Packet
	ProfileKey   string
	QuestionsKey string
	BriefKey     string
	PacketKey    string
	Sources      []string
}

// Generate produces profile, questions, brief and packet in that order and
// stores each under the session's key space. Nothing is written unless every
// model call succeeded.
func (s *Stage) Generate(ctx context.Context, in Input) (*Output, error) {
	const op = "generate_brief"
	if in.Version < 1 {
		return nil, domain.ValidationError(op, "version must be >= 1")
	}
	ctx, span := observability.StartSpan(ctx, "generation.Generate",
		attribute.String("session_id", in.SessionID),
		attribute.Int("version", in.Version),
		attribute.Int("feedback_count", len(in.Feedback)),
	)
	defer span.End()
	start := time.Now()

	out, err := s.generate(ctx, in)
	observability.Current().ObserveStage("generate", stageStatus(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

func (s *Stage) generate(ctx context.Context, in Input) (*Output, error) {
	sections := BuildContext(in.Ingestion, in.Feedback)

	profile, err := s.profile(ctx, in, sections)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions(ctx, in.CompanyName, profile)
	if err != nil {
		return nil, err
	}
	brief, err := s.brief(ctx, briefInput{
		companyName: in.CompanyName,
		profile:     profile,
		questions:   questions,
	})
	if err != nil {
		return nil, err
	}

	sources := append(in.Ingestion.SourceTypes(), s.backend.Name())
	packet, err := s.packet(ctx, in.CompanyName, profile, questions, sources)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Version:      in.Version,
		Profile:      profile,
		Questions:    questions,
		Brief:        brief,
		Packet:       packet,
		ProfileKey:   domain.ProfileKey(in.SessionID, in.Version),
		QuestionsKey: domain.QuestionsKey(in.SessionID, in.Version),
		BriefKey:     domain.BriefKey(in.SessionID, in.Version),
		PacketKey:    domain.PacketKey(in.SessionID),
		Sources:      sources,
	}
	writes := []struct {
		key string
		v   any
	}{
		{out.ProfileKey, profile},
		{out.QuestionsKey, domain.QuestionSet{Questions: questions}},
		{out.BriefKey, brief},
		{out.PacketKey, packet},
	}
	for _, w := range writes {
		if err := s.blob.PutJSON(ctx, w.key, w.v); err != nil {
			return nil, err
		}
	}
	s.log.Info("Brief generated",
		"session_id", in.SessionID,
		"version", domain.VersionLabel(in.Version),
		"questions", len(questions),
		"regeneration", len(in.Feedback) > 0,
	)
	return out, nil
}

type UpdateInput struct {
	SessionID   string
	CompanyName string
	Version     int
	Profile     *domain.Profile
	Questions   []domain.Question
	Corrections []domain.Correction
	// Selected holds question ids the interviewee picked, in pick order.
	Selected []string
	// PriorSources are the sources recorded on the brief being replaced.
	PriorSources []string
}

type UpdateOutput struct {
	Version  int
	Brief    *domain.Brief
	BriefKey string
	Sources  []string
}

// UpdateBrief regenerates only the brief, foregrounding corrections and the
// interviewee's selected questions. Profile, questions and packet are reused.
func (s *Stage) UpdateBrief(ctx context.Context, in UpdateInput) (*UpdateOutput, error) {
	const op = "update_brief"
	if in.Version < 1 {
		return nil, domain.ValidationError(op, "version must be >= 1")
	}
	if in.Profile == nil || len(in.Questions) == 0 {
		return nil, domain.ValidationError(op, "profile and questions are required")
	}
	ctx, span := observability.StartSpan(ctx, "generation.UpdateBrief",
		attribute.String("session_id", in.SessionID),
		attribute.Int("version", in.Version),
		attribute.Int("corrections", len(in.Corrections)),
	)
	defer span.End()
	start := time.Now()

	brief, err := s.brief(ctx, briefInput{
		companyName: in.CompanyName,
		profile:     in.Profile,
		questions:   in.Questions,
		corrections: in.Corrections,
		selected:    in.Selected,
	})
	if err == nil {
		err = s.blob.PutJSON(ctx, domain.BriefKey(in.SessionID, in.Version), brief)
	}
	observability.Current().ObserveStage("update_brief", stageStatus(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.log.Info("Brief updated from corrections",
		"session_id", in.SessionID,
		"version", domain.VersionLabel(in.Version),
		"corrections", len(in.Corrections),
		"selected", len(in.Selected),
	)
	return &UpdateOutput{
		Version:  in.Version,
		Brief:    brief,
		BriefKey: domain.BriefKey(in.SessionID, in.Version),
		Sources:  mergeSources(in.PriorSources, s.backend.Name(), CorrectionsSource),
	}, nil
}

// mergeSources appends extra to prior, dropping blanks and repeats.
func mergeSources(prior []string, extra ...string) []string {
	out := make([]string, 0, len(prior)+len(extra))
	seen := make(map[string]bool, len(prior)+len(extra))
	for _, src := range append(append([]string{}, prior...), extra...) {
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}

func (s *Stage) profile(ctx context.Context, in Input, sections []string) (*domain.Profile, error) {
	req, err := s.prompts.Render(prompts.CompanyProfile, prompts.Data{
		CompanyName: in.CompanyName,
		ContextText: contextText(sections),
		URLsJSON:    urlsJSON(in.URLs),
	})
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, "company_profile", err)
	}
	var p domain.Profile
	if err := llm.CompleteStructured(ctx, s.backend, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Stage) questions(ctx context.Context, companyName string, profile *domain.Profile) ([]domain.Question, error) {
	req, err := s.prompts.Render(prompts.InterviewQuestions, prompts.Data{
		CompanyName: companyName,
		Archetype:   profile.Archetype(),
		ProfileJSON: prompts.JSON(profile),
	})
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, "interview_questions", err)
	}
	var resp struct {
		Questions []domain.Question `json:"intervieweeQuestions"`
	}
	if err := llm.CompleteStructured(ctx, s.backend, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Questions) != domain.QuestionCount {
		return nil, domain.MalformedOutputError("interview_questions",
			fmt.Errorf("want %d questions, got %d", domain.QuestionCount, len(resp.Questions)))
	}
	for i := range resp.Questions {
		if strings.TrimSpace(resp.Questions[i].ID) == "" {
			resp.Questions[i].ID = fmt.Sprintf("q%d", i+1)
		}
	}
	return resp.Questions, nil
}

type briefInput struct {
	companyName string
	profile     *domain.Profile
	questions   []domain.Question
	corrections []domain.Correction
	selected    []string
}

func (s *Stage) brief(ctx context.Context, in briefInput) (*domain.Brief, error) {
	chosen, rest := OrderQuestions(in.questions, in.selected)
	ordered := append(append([]domain.Question{}, chosen...), rest...)

	var selectedJSON string
	if len(chosen) > 0 {
		ids := make([]string, 0, len(chosen))
		for _, q := range chosen {
			ids = append(ids, q.ID)
		}
		selectedJSON = prompts.JSON(ids)
	}
	req, err := s.prompts.Render(prompts.InterviewerBrief, prompts.Data{
		CompanyName:     in.companyName,
		ProfileJSON:     prompts.JSON(in.profile),
		QuestionsJSON:   prompts.JSON(ordered),
		CorrectionsJSON: prompts.JSON(in.corrections),
		SelectedJSON:    selectedJSON,
	})
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, "interviewer_brief", err)
	}
	var b domain.Brief
	if err := llm.CompleteStructured(ctx, s.backend, req, &b); err != nil {
		return nil, err
	}

	// The question pages always reflect the stored question set, whatever
	// ordering the model echoed back.
	b.QuestionSequence.SelectedQuestions = nonNil(chosen)
	b.QuestionSequence.AdditionalQuestions = nonNil(rest)
	if len(b.QuestionSequence.KnowledgeGaps) == 0 {
		b.QuestionSequence.KnowledgeGaps = in.profile.KnowledgeGaps
	}
	if strings.TrimSpace(b.Title) == "" {
		b.Title = "Interviewer Brief: " + in.companyName
	}
	b.GeneratedAt = s.now().UTC().Format(time.RFC3339)
	return &b, nil
}

func (s *Stage) packet(ctx context.Context, companyName string, profile *domain.Profile, questions []domain.Question, sources []string) (*domain.Packet, error) {
	menu := questions
	if len(menu) > domain.PacketQuestionCount {
		menu = menu[:domain.PacketQuestionCount]
	}
	req, err := s.prompts.Render(prompts.IntervieweePacket, prompts.Data{
		CompanyName:   companyName,
		ProfileJSON:   prompts.JSON(profile),
		QuestionsJSON: prompts.JSON(menu),
		SourcesJSON:   prompts.JSON(sources),
	})
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, "interviewee_packet", err)
	}
	var p domain.Packet
	if err := llm.CompleteStructured(ctx, s.backend, req, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Header.CompanyName) == "" {
		p.Header.CompanyName = companyName
	}
	if len(p.TransparencyFooter.SourcesUsed) == 0 {
		p.TransparencyFooter.SourcesUsed = sources
	}
	return &p, nil
}

func urlsJSON(urls []string) string {
	if js := prompts.JSON(urls); js != "" {
		return js
	}
	return "[]"
}

func nonNil(in []domain.Question) []domain.Question {
	if in == nil {
		return []domain.Question{}
	}
	return in
}

func stageStatus(err error) string {
	if err == nil {
		return "ok"
	}
	if c := domain.CodeOf(err); c != "" {
		return string(c)
	}
	return "error"
}

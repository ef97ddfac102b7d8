package services

import (
	"context"
	"time"

	"github.com/yungbote/interview-brief-backend/internal/data/blob"
	"github.com/yungbote/interview-brief-backend/internal/data/repos"
	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/generation"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/ingestion"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/quality"
	"github.com/yungbote/interview-brief-backend/internal/observability"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// DefaultMaxAttempts bounds generate/gate cycles per pipeline run.
const DefaultMaxAttempts = 3

// PipelineResult summarizes a bounded pipeline run.
type PipelineResult struct {
	SessionID string               `json:"sessionId"`
	Status    domain.SessionStatus `json:"status"`
	Version   int                  `json:"version"`
	Attempts  int                  `json:"attempts"`
	Passed    bool                 `json:"passed"`
	Score     int                  `json:"score"`
	Issues    []string             `json:"issues"`
}

// BriefPipeline runs the pre-interview stages for one session. Every stage
// holds the session lock, re-reads the session inside the transaction that
// records its outcome and discards its output if the session was opted out or
// aborted meanwhile.
type BriefPipeline interface {
	Ingest(ctx context.Context, sessionID string) (*domain.IngestionResult, error)
	Generate(ctx context.Context, sessionID string, feedback []string) (*generation.Output, error)
	QualityCheck(ctx context.Context, sessionID string) (*quality.Result, error)
	// Regenerate is the regeneration hook: generate with feedback, then gate.
	Regenerate(ctx context.Context, sessionID string, feedback []string) (*quality.Result, error)
	// Run ingests (when still created), then generates and gates up to
	// maxAttempts times. Exhausted attempts are not an error.
	Run(ctx context.Context, sessionID string, maxAttempts int) (*PipelineResult, error)
}

type PipelineDeps struct {
	Store      repos.RecordStore
	Blob       blob.Store
	Ingestion  *ingestion.Stage
	Generation *generation.Stage
	Locker     SessionLocker
	Audit      AuditTrail
	Log        *logger.Logger
}

type briefPipeline struct {
	store  repos.RecordStore
	blob   blob.Store
	ingest *ingestion.Stage
	gen    *generation.Stage
	locker SessionLocker
	audit  AuditTrail
	log    *logger.Logger
}

func NewBriefPipeline(deps PipelineDeps) BriefPipeline {
	return &briefPipeline{
		store:  deps.Store,
		blob:   deps.Blob,
		ingest: deps.Ingestion,
		gen:    deps.Generation,
		locker: deps.Locker,
		audit:  deps.Audit,
		log:    deps.Log.With("service", "BriefPipeline"),
	}
}

func (p *briefPipeline) Ingest(ctx context.Context, sessionID string) (*domain.IngestionResult, error) {
	const op, action = "ingest_sources", "ingest sources"
	unlock, err := p.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureActive(op, action, sess); err != nil {
		return nil, err
	}
	if !domain.CanTransition(sess.Status, domain.StatusIngested) {
		return nil, domain.StateConflictError(op, sess.Status, action)
	}

	in := ingestion.Input{SessionID: sess.ID, CompanyName: sess.CompanyName, URLs: sess.URLs()}
	if sess.HasUpload {
		in.UploadKey = sess.UploadKey
	}
	start := time.Now()
	res, err := p.ingest.Run(ctx, in)
	observability.Current().ObserveStage("ingest", stageStatus(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	err = p.store.InTx(ctx, func(tx repos.RecordStore) error {
		fresh, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := ensureActive(op, action, fresh); err != nil {
			return err
		}
		if err := transition(ctx, tx, op, action, fresh, domain.StatusIngested, map[string]any{
			"source_count": len(res.Sources),
			"chunk_count":  res.TotalChunks,
			"entity_count": res.TotalEntities,
		}); err != nil {
			return err
		}
		return p.audit.Record(ctx, tx, AuditEntry{
			ActorID:    fresh.InterviewerID,
			Action:     domain.AuditIngestSources,
			ResourceID: sessionID,
			Sources:    res.SourceIDs(),
			Metadata: map[string]any{
				"chunkCount":  res.TotalChunks,
				"entityCount": res.TotalEntities,
				"keyPhrases":  len(res.KeyPhrases),
			},
		})
	})
	if err != nil {
		p.log.Warn("Ingestion result discarded", "session_id", sessionID, "error", err)
		return nil, err
	}
	return res, nil
}

func (p *briefPipeline) Generate(ctx context.Context, sessionID string, feedback []string) (*generation.Output, error) {
	const op, action = "generate_brief", "generate a brief"
	unlock, err := p.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureActive(op, action, sess); err != nil {
		return nil, err
	}
	if !domain.CanTransition(sess.Status, domain.StatusGenerated) {
		return nil, domain.StateConflictError(op, sess.Status, action)
	}

	ingested, err := ingestion.Load(ctx, p.blob, sessionID)
	if err != nil {
		return nil, err
	}
	latest, _, err := p.store.GetLatestVersion(ctx, sessionID, domain.VersionKindBrief)
	if err != nil {
		return nil, err
	}
	next := domain.NextVersionNumber(latest)

	out, err := p.gen.Generate(ctx, generation.Input{
		SessionID:   sessionID,
		CompanyName: sess.CompanyName,
		URLs:        sess.URLs(),
		Version:     next,
		Ingestion:   ingested,
		Feedback:    feedback,
	})
	if err != nil {
		return nil, err
	}

	err = p.store.InTx(ctx, func(tx repos.RecordStore) error {
		fresh, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := ensureActive(op, action, fresh); err != nil {
			return err
		}
		if _, err := checkVersionSlot(ctx, tx, op, sessionID, domain.VersionKindBrief, next); err != nil {
			return err
		}
		if err := tx.PutVersion(ctx, &domain.Version{
			SessionID:    sessionID,
			Kind:         domain.VersionKindBrief,
			Number:       next,
			ContentKey:   out.BriefKey,
			ProfileKey:   out.ProfileKey,
			QuestionsKey: out.QuestionsKey,
			PacketKey:    out.PacketKey,
			Sources:      domain.JSONStrings(out.Sources),
		}); err != nil {
			return err
		}
		if err := transition(ctx, tx, op, action, fresh, domain.StatusGenerated, map[string]any{
			"brief_version":  next,
			"question_count": len(out.Questions),
			"profile_key":    out.ProfileKey,
			"questions_key":  out.QuestionsKey,
			"packet_key":     out.PacketKey,
		}); err != nil {
			return err
		}
		return p.audit.Record(ctx, tx, AuditEntry{
			ActorID:    fresh.InterviewerID,
			Action:     domain.AuditGenerateBrief,
			ResourceID: sessionID,
			Sources:    out.Sources,
			Metadata: map[string]any{
				"questionCount":  len(out.Questions),
				"isRegeneration": len(feedback) > 0,
				"archetype":      out.Profile.Archetype(),
				"version":        domain.VersionLabel(next),
			},
		})
	})
	if err != nil {
		p.log.Warn("Generated brief discarded", "session_id", sessionID, "version", domain.VersionLabel(next), "error", err)
		return nil, err
	}
	return out, nil
}

func (p *briefPipeline) QualityCheck(ctx context.Context, sessionID string) (*quality.Result, error) {
	const op, action = "quality_check", "run the quality check"
	unlock, err := p.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureActive(op, action, sess); err != nil {
		return nil, err
	}
	// A gate that already ran is replayed without a second transition, so a
	// redelivered activity sees the same verdict.
	if err := requireStatus(op, action, sess, domain.StatusGenerated, domain.StatusReady, domain.StatusQualityFailed); err != nil {
		return nil, err
	}
	var qs domain.QuestionSet
	ok, err := p.blob.GetJSON(ctx, sess.QuestionsKey, &qs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewError(domain.CodeStateConflict, op, "no generated questions to check", nil)
	}

	res := quality.Evaluate(qs.Questions)
	if sess.Status != domain.StatusGenerated {
		p.log.Info("Quality check replayed", "session_id", sessionID, "status", sess.Status, "score", res.Score)
		return &res, nil
	}
	observability.Current().ObserveQualityScore(res.Score, res.Passed)
	to := domain.StatusReady
	if !res.Passed {
		to = domain.StatusQualityFailed
	}

	err = p.store.InTx(ctx, func(tx repos.RecordStore) error {
		fresh, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := ensureActive(op, action, fresh); err != nil {
			return err
		}
		if err := transition(ctx, tx, op, action, fresh, to, map[string]any{
			"quality_score":       res.Score,
			"quality_issue_count": res.IssueCount,
			"quality_issues":      domain.JSONStrings(res.Issues),
		}); err != nil {
			return err
		}
		return p.audit.Record(ctx, tx, AuditEntry{
			ActorID:    fresh.InterviewerID,
			Action:     domain.AuditQualityCheck,
			ResourceID: sessionID,
			Metadata: map[string]any{
				"score":      res.Score,
				"passed":     res.Passed,
				"issueCount": res.IssueCount,
				"issues":     res.Issues,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	p.log.Info("Quality check complete", "session_id", sessionID, "score", res.Score, "passed", res.Passed, "issues", res.IssueCount)
	return &res, nil
}

func (p *briefPipeline) Regenerate(ctx context.Context, sessionID string, feedback []string) (*quality.Result, error) {
	if _, err := p.Generate(ctx, sessionID, feedback); err != nil {
		return nil, err
	}
	return p.QualityCheck(ctx, sessionID)
}

func (p *briefPipeline) Run(ctx context.Context, sessionID string, maxAttempts int) (*PipelineResult, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// A rerun resumes where the last run stopped. Feedback from the last
	// failed gate seeds the first regeneration.
	var feedback []string
	gateFirst := false
	switch sess.Status {
	case domain.StatusCreated:
		if _, err := p.Ingest(ctx, sessionID); err != nil {
			return nil, err
		}
	case domain.StatusIngested:
	case domain.StatusGenerated:
		gateFirst = true
	case domain.StatusQualityFailed:
		feedback = sess.LastQualityIssues()
	default:
		return nil, domain.StateConflictError("run_pipeline", sess.Status, "run the pipeline")
	}

	result := &PipelineResult{SessionID: sessionID}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var res *quality.Result
		if attempt == 1 && gateFirst {
			res, err = p.QualityCheck(ctx, sessionID)
		} else {
			res, err = p.Regenerate(ctx, sessionID, feedback)
		}
		if err != nil {
			return nil, err
		}
		result.Attempts = attempt
		result.Passed = res.Passed
		result.Score = res.Score
		result.Issues = res.Issues
		if res.Passed {
			break
		}
		feedback = MergeFeedback(feedback, res.Issues)
		p.log.Info("Quality gate failed", "session_id", sessionID, "attempt", attempt, "max_attempts", maxAttempts, "score", res.Score)
	}

	final, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result.Status = final.Status
	result.Version = final.BriefVersion
	return result, nil
}

// MergeFeedback appends issues not already present, keeping first-seen order.
func MergeFeedback(acc, issues []string) []string {
	seen := make(map[string]bool, len(acc))
	out := append([]string(nil), acc...)
	for _, s := range acc {
		seen[s] = true
	}
	for _, s := range issues {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
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

package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/interview-brief-backend/internal/data/blob"
	"github.com/yungbote/interview-brief-backend/internal/data/repos"
	"github.com/yungbote/interview-brief-backend/internal/data/repos/testutil"
	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/llm"
	"github.com/yungbote/interview-brief-backend/internal/llm/llmtest"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/generation"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/ingestion"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/prompts"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/synthesis"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type pageFetcher map[string]string

func (p pageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if text, ok := p[url]; ok {
		return text, nil
	}
	return "", errors.New("unreachable")
}

type sentMail struct{ to, subject, body string }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{to, subject, body})
	return nil
}

type recordingGraph struct {
	mu       sync.Mutex
	sessions []string
}

func (g *recordingGraph) UpsertCompanyInsights(ctx context.Context, sessionID string, syn *domain.Synthesis) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions = append(g.sessions, sessionID)
	return nil
}

// hookBackend runs onBrief before the brief prompt is answered.
type hookBackend struct {
	llm.Backend
	onBrief func()
}

func (h *hookBackend) Complete(ctx context.Context, system, user string, maxTokens int, temp float64) (string, error) {
	if h.onBrief != nil && strings.Contains(user, llmtest.BriefMarker) {
		h.onBrief()
	}
	return h.Backend.Complete(ctx, system, user, maxTokens, temp)
}

type harness struct {
	store    repos.RecordStore
	blob     *blob.MemoryStore
	llm      *llmtest.Backend
	notifier *recordingNotifier
	graph    *recordingGraph
	pipeline BriefPipeline
	runner   *LocalRunner
	svc      SessionService
}

var interviewer = Actor{ID: "int-1", Email: "interviewer@example.com"}

func newHarness(t *testing.T, backend llm.Backend, cfg SessionConfig) *harness {
	t.Helper()
	log := logger.Nop()
	catalog, err := prompts.Default()
	if err != nil {
		t.Fatalf("prompts: %v", err)
	}
	h := &harness{
		store:    repos.NewRecordStore(testutil.DB(t), log),
		blob:     blob.NewMemoryStore(),
		notifier: &recordingNotifier{},
		graph:    &recordingGraph{},
	}
	if b, ok := backend.(*llmtest.Backend); ok {
		h.llm = b
	}
	locker := NewLocalLocker(0)
	audit := NewAuditTrail(h.store, log)
	gen := generation.New(backend, catalog, h.blob, log)
	h.pipeline = NewBriefPipeline(PipelineDeps{
		Store: h.store,
		Blob:  h.blob,
		Ingestion: ingestion.New(pageFetcher{
			"https://acme.test/about": "Acme Co builds industrial widgets for regional distributors.",
		}, nil, nil, h.blob, log),
		Generation: gen,
		Locker:     locker,
		Audit:      audit,
		Log:        log,
	})
	h.runner = NewLocalRunner(h.pipeline, log)
	h.svc = NewSessionService(SessionServiceDeps{
		Store:      h.store,
		Blob:       h.blob,
		Generation: gen,
		Synthesis:  synthesis.New(backend, catalog, h.blob, log),
		Graph:      h.graph,
		Notifier:   h.notifier,
		Runner:     h.runner,
		Locker:     locker,
		Audit:      audit,
		Log:        log,
		Config:     cfg,
	})
	return h
}

func testConfig() SessionConfig {
	return SessionConfig{MaxAttempts: 3, FrontendBaseURL: "https://brief.test/", SenderName: "The Team"}
}

func (h *harness) create(t *testing.T) *domain.Session {
	t.Helper()
	res, err := h.svc.CreateSession(context.Background(), interviewer, CreateSessionRequest{
		CompanyName:      "Acme Co",
		LeaderName:       "Dana",
		IntervieweeEmail: "dana@acme.test",
		URLs:             []string{"https://acme.test/about"},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return res.Session
}

func (h *harness) status(t *testing.T, sid string) *domain.Session {
	t.Helper()
	sess, err := h.store.GetSession(context.Background(), sid)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	return sess
}

func (h *harness) actions(t *testing.T, sid string) map[string]int {
	t.Helper()
	events, err := h.store.ListAudit(context.Background(), sid)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	out := map[string]int{}
	for _, ev := range events {
		out[ev.Action]++
	}
	return out
}

func TestEndToEndBriefLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.Default(), testConfig())

	sess := h.create(t)
	if len(sess.ID) != 12 || sess.Status != domain.StatusCreated || sess.Stage != domain.StagePreInterview {
		t.Fatalf("created session: got=%+v", sess)
	}

	res, err := h.pipeline.Run(ctx, sess.ID, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Passed || res.Score != 100 || res.Attempts != 1 || res.Status != domain.StatusReady || res.Version != 1 {
		t.Fatalf("run result: got=%+v", res)
	}
	got := h.status(t, sess.ID)
	if got.SourceCount != 1 || got.QuestionCount != 8 || got.QualityScore == nil || *got.QualityScore != 100 {
		t.Fatalf("session after run: got=%+v", got)
	}
	v1, ok, err := h.store.GetLatestVersion(ctx, sess.ID, domain.VersionKindBrief)
	if err != nil || !ok || v1.Number != 1 {
		t.Fatalf("v1: got=%+v ok=%v err=%v", v1, ok, err)
	}
	if src := v1.SourceList(); len(src) != 2 || src[0] != "url" || src[1] != "openai_model" {
		t.Fatalf("v1 sources: got=%v", src)
	}

	view, err := h.svc.GetSession(ctx, interviewer, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if view.BriefMeta == nil || view.BriefMeta.Version != "v1" || view.Brief == nil || view.Packet == nil || view.Profile == nil || len(view.Questions) != 8 {
		t.Fatalf("view: got=%+v", view)
	}

	sent, err := h.svc.SendPacket(ctx, interviewer, sess.ID, SendPacketRequest{})
	if err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	if !sent.EmailSent || sent.FeedbackLink != "https://brief.test/feedback/"+sess.ID {
		t.Fatalf("send result: got=%+v", sent)
	}
	if len(h.notifier.sent) != 1 || h.notifier.sent[0].to != "dana@acme.test" || !strings.Contains(h.notifier.sent[0].body, sent.FeedbackLink) {
		t.Fatalf("mail: got=%+v", h.notifier.sent)
	}
	if _, ok, _ := h.store.GetConsent(ctx, "dana@acme.test", sess.ID); !ok {
		t.Fatalf("consent record missing")
	}
	if got := h.status(t, sess.ID); got.Status != domain.StatusPacketSent || got.DeliveryMethod != DeliveryEmail {
		t.Fatalf("after send: got=%+v", got)
	}

	sub, err := h.svc.SubmitCorrections(ctx, sess.ID, Submission{
		Corrections: []CorrectionInput{
			{OriginalAssertion: "Acme sells mainly through distributors", Correction: "Half of sales are direct"},
			{OriginalAssertion: "", Correction: "dropped"},
		},
		SelectedQuestions: []string{"q3"},
	})
	if err != nil {
		t.Fatalf("SubmitCorrections: %v", err)
	}
	if sub.Message != CorrectionMessage || sub.StoredCount != 1 || sub.TotalCorrections != 1 {
		t.Fatalf("submission: got=%+v", sub)
	}
	if _, err := h.svc.SubmitCorrections(ctx, sess.ID, Submission{
		Corrections: []CorrectionInput{{OriginalAssertion: "Founded 1999", Correction: "Founded 2001", CorrectionType: "date"}},
	}); err != nil {
		t.Fatalf("second submission: %v", err)
	}
	corrections, _ := h.store.ListCorrections(ctx, sess.ID)
	if len(corrections) != 2 || corrections[0].Index != 0 || corrections[1].Index != 1 {
		t.Fatalf("correction indices: got=%+v", corrections)
	}
	if corrections[0].CorrectionType != domain.DefaultCorrectionType || corrections[1].CorrectionType != "date" {
		t.Fatalf("correction types: got=%q,%q", corrections[0].CorrectionType, corrections[1].CorrectionType)
	}
	if sel := h.status(t, sess.ID).Selected(); len(sel) != 1 || sel[0] != "q3" {
		t.Fatalf("selection kept across batches: got=%v", sel)
	}

	upd, err := h.svc.UpdateBrief(ctx, interviewer, sess.ID)
	if err != nil {
		t.Fatalf("UpdateBrief: %v", err)
	}
	if upd.Message != UpdateMessage || upd.Version != "v2" {
		t.Fatalf("update: got=%+v", upd)
	}
	if sq := upd.Brief.QuestionSequence.SelectedQuestions; len(sq) != 1 || sq[0].ID != "q3" {
		t.Fatalf("selected first: got=%+v", sq)
	}
	briefCalls := h.llm.Calls(llmtest.BriefMarker)
	if last := briefCalls[len(briefCalls)-1].User; !strings.Contains(last, "Half of sales are direct") {
		t.Fatalf("corrections not in update prompt")
	}
	v2, _, _ := h.store.GetLatestVersion(ctx, sess.ID, domain.VersionKindBrief)
	if v2.Number != 2 || v2.CorrectionCount != 2 {
		t.Fatalf("v2: got=%+v", v2)
	}
	if src := strings.Join(v2.SourceList(), ","); src != "url,openai_model,"+generation.CorrectionsSource {
		t.Fatalf("v2 sources: want=url,openai_model,%s got=%s", generation.CorrectionsSource, src)
	}
	if got := h.status(t, sess.ID); got.Status != domain.StatusUpdated || !got.CorrectionIntegrated || got.BriefVersion != 2 {
		t.Fatalf("after update: got=%+v", got)
	}

	syn, err := h.svc.Synthesize(ctx, interviewer, sess.ID, domain.Notes{KeyInsights: []string{"Direct sales are growing"}})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if syn.Version != "v2" {
		t.Fatalf("synthesis version: want=v2 got=%s", syn.Version)
	}
	if got := h.status(t, sess.ID); got.Status != domain.StatusCompleted || got.Stage != domain.StagePostInterview {
		t.Fatalf("after synthesis: got=%+v", got)
	}
	insights, ok, err := h.store.GetCompanyInsights(ctx, "Acme Co")
	if err != nil || !ok || insights.SourceSessionID != sess.ID {
		t.Fatalf("insights: got=%+v ok=%v err=%v", insights, ok, err)
	}
	if len(h.graph.sessions) != 1 {
		t.Fatalf("graph mirror: got=%v", h.graph.sessions)
	}

	acts := h.actions(t, sess.ID)
	for _, a := range []string{
		domain.AuditCreateSession, domain.AuditIngestSources, domain.AuditGenerateBrief, domain.AuditQualityCheck,
		domain.AuditSendPacket, domain.AuditUpdateBrief, domain.AuditPostCallSynthesis,
	} {
		if acts[a] != 1 {
			t.Fatalf("audit %s: want=1 got=%d (%v)", a, acts[a], acts)
		}
	}
	if acts[domain.AuditSubmitCorrections] != 2 {
		t.Fatalf("audit submissions: want=2 got=%d", acts[domain.AuditSubmitCorrections])
	}
}

func (h *harness) readyAndSent(t *testing.T) *domain.Session {
	t.Helper()
	sess := h.create(t)
	if _, err := h.pipeline.Run(context.Background(), sess.ID, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := h.svc.SendPacket(context.Background(), interviewer, sess.ID, SendPacketRequest{}); err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	return sess
}

func TestOptOutTerminatesSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.Default(), testConfig())
	sess := h.readyAndSent(t)

	res, err := h.svc.SubmitCorrections(ctx, sess.ID, Submission{
		OptOut:      true,
		Corrections: []CorrectionInput{{OriginalAssertion: "a", Correction: "b"}},
	})
	if err != nil {
		t.Fatalf("opt out: %v", err)
	}
	if res.Message != OptOutMessage || res.Status != domain.StatusOptedOut {
		t.Fatalf("opt out result: got=%+v", res)
	}
	if cs, _ := h.store.ListCorrections(ctx, sess.ID); len(cs) != 0 {
		t.Fatalf("opt out stored corrections: %+v", cs)
	}
	events, _ := h.store.ListAudit(ctx, sess.ID)
	var optOut *domain.AuditEvent
	for _, ev := range events {
		if ev.Action == domain.AuditOptOut {
			optOut = ev
		}
	}
	if optOut == nil || optOut.ActorID != domain.ActorInterviewee {
		t.Fatalf("opt out audit: got=%+v", optOut)
	}

	if _, err := h.svc.SubmitCorrections(ctx, sess.ID, Submission{}); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("submit after opt out: want state_conflict got=%v", err)
	}
	if _, err := h.svc.UpdateBrief(ctx, interviewer, sess.ID); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("update after opt out: want state_conflict got=%v", err)
	}
	if _, err := h.pipeline.Generate(ctx, sess.ID, nil); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("generate after opt out: want state_conflict got=%v", err)
	}
	if err := h.svc.Abort(ctx, interviewer, sess.ID); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("abort terminal: want state_conflict got=%v", err)
	}
}

func TestSubmitCorrectionsGuards(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.Default(), testConfig())
	if _, err := h.svc.SubmitCorrections(ctx, "missing", Submission{}); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("unknown session: want not_found got=%v", err)
	}
	sess := h.create(t)
	if _, err := h.svc.SubmitCorrections(ctx, sess.ID, Submission{}); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("before packet: want state_conflict got=%v", err)
	}
}

func TestCreateSessionValidationAndQuota(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.MaxBriefsPerDay = 2
	h := newHarness(t, llmtest.Default(), cfg)

	if _, err := h.svc.CreateSession(ctx, interviewer, CreateSessionRequest{CompanyName: "  "}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("blank company: want validation got=%v", err)
	}
	if _, err := h.svc.CreateSession(ctx, interviewer, CreateSessionRequest{CompanyName: "Acme", URLs: []string{"ftp://acme"}}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("bad url: want validation got=%v", err)
	}
	h.create(t)
	h.create(t)
	if _, err := h.svc.CreateSession(ctx, interviewer, CreateSessionRequest{CompanyName: "Acme"}); !domain.IsCode(err, domain.CodeQuotaExceeded) {
		t.Fatalf("third session: want quota_exceeded got=%v", err)
	}
	other := Actor{ID: "int-2", Email: "other@example.com"}
	if _, err := h.svc.CreateSession(ctx, other, CreateSessionRequest{CompanyName: "Acme"}); err != nil {
		t.Fatalf("quota is per interviewer: %v", err)
	}
}

func TestCreateSessionWithUploadIssuesKey(t *testing.T) {
	h := newHarness(t, llmtest.Default(), testConfig())
	res, err := h.svc.CreateSession(context.Background(), interviewer, CreateSessionRequest{CompanyName: "Acme", HasUpload: true})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if res.Session.UploadKey != domain.UploadKey(interviewer.ID, res.Session.ID) {
		t.Fatalf("upload key: got=%q", res.Session.UploadKey)
	}
}

func TestOwnerOnlyOperations(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.Default(), testConfig())
	sess := h.create(t)
	intruder := Actor{ID: "int-9", Email: "x@example.com"}

	if _, err := h.svc.GetSession(ctx, intruder, sess.ID); !domain.IsCode(err, domain.CodeAuthorization) {
		t.Fatalf("get: want authorization got=%v", err)
	}
	if err := h.svc.StartPipeline(ctx, intruder, sess.ID); !domain.IsCode(err, domain.CodeAuthorization) {
		t.Fatalf("start: want authorization got=%v", err)
	}
	if _, err := h.svc.SendPacket(ctx, intruder, sess.ID, SendPacketRequest{}); !domain.IsCode(err, domain.CodeAuthorization) {
		t.Fatalf("send: want authorization got=%v", err)
	}
	if err := h.svc.Abort(ctx, intruder, sess.ID); !domain.IsCode(err, domain.CodeAuthorization) {
		t.Fatalf("abort: want authorization got=%v", err)
	}
	list, err := h.svc.ListSessions(ctx, intruder)
	if err != nil || len(list) != 0 {
		t.Fatalf("list: want none got=%d err=%v", len(list), err)
	}
}

func TestSendPacketRequiresBrief(t *testing.T) {
	h := newHarness(t, llmtest.Default(), testConfig())
	sess := h.create(t)
	if _, err := h.svc.SendPacket(context.Background(), interviewer, sess.ID, SendPacketRequest{}); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("send before generation: want state_conflict got=%v", err)
	}
}

func TestSendPacketMailFailureIsNotAnError(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.Default(), testConfig())
	h.notifier.err = errors.New("smtp down")
	sess := h.create(t)
	if _, err := h.pipeline.Run(ctx, sess.ID, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	res, err := h.svc.SendPacket(ctx, interviewer, sess.ID, SendPacketRequest{DeliveryMethod: "email"})
	if err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	if res.EmailSent {
		t.Fatalf("EmailSent: want false")
	}
	if got := h.status(t, sess.ID); got.Status != domain.StatusPacketSent {
		t.Fatalf("status: want packet_sent got=%s", got.Status)
	}
}

func TestRunRegeneratesWithFeedback(t *testing.T) {
	ctx := context.Background()
	backend := llmtest.Default().Queue(llmtest.QuestionsMarker, llmtest.LeadingQuestionsJSON())
	h := newHarness(t, backend, testConfig())
	sess := h.create(t)

	res, err := h.pipeline.Run(ctx, sess.ID, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Passed || res.Attempts != 2 || res.Version != 2 || res.Status != domain.StatusReady {
		t.Fatalf("result: got=%+v", res)
	}
	profileCalls := backend.Calls(llmtest.ProfileMarker)
	if len(profileCalls) != 2 {
		t.Fatalf("profile calls: want=2 got=%d", len(profileCalls))
	}
	if strings.Contains(profileCalls[0].User, "QUALITY FEEDBACK") || !strings.Contains(profileCalls[1].User, "QUALITY FEEDBACK FROM PRIOR GENERATION") {
		t.Fatalf("feedback only on regeneration")
	}
	if acts := h.actions(t, sess.ID); acts[domain.AuditGenerateBrief] != 2 || acts[domain.AuditQualityCheck] != 2 {
		t.Fatalf("audit: got=%v", acts)
	}
}

func TestRunExhaustedAttemptsIsNotAnError(t *testing.T) {
	ctx := context.Background()
	leading := llmtest.LeadingQuestionsJSON()
	backend := llmtest.Default().Reply(llmtest.QuestionsMarker, leading)
	h := newHarness(t, backend, testConfig())
	sess := h.create(t)

	res, err := h.pipeline.Run(ctx, sess.ID, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Passed || res.Attempts != 2 || res.Status != domain.StatusQualityFailed || res.Score != 0 {
		t.Fatalf("result: got=%+v", res)
	}
	if len(res.Issues) == 0 || len(res.Issues) > 10 {
		t.Fatalf("issues: got=%d", len(res.Issues))
	}
	stored := h.status(t, sess.ID).LastQualityIssues()
	if strings.Join(stored, "|") != strings.Join(res.Issues, "|") {
		t.Fatalf("stored issues: want=%v got=%v", res.Issues, stored)
	}
	// A later run resumes from quality_failed without re-ingesting, and its
	// first regeneration carries the last gate's issues.
	backend.Reply(llmtest.QuestionsMarker, llmtest.QuestionsJSON(8))
	before := len(backend.Calls(llmtest.ProfileMarker))
	again, err := h.pipeline.Run(ctx, sess.ID, 1)
	if err != nil || !again.Passed || again.Version != 3 {
		t.Fatalf("rerun: got=%+v err=%v", again, err)
	}
	profileCalls := backend.Calls(llmtest.ProfileMarker)
	if len(profileCalls) != before+1 {
		t.Fatalf("profile calls on rerun: want=%d got=%d", before+1, len(profileCalls))
	}
	rerun := profileCalls[before].User
	if !strings.Contains(rerun, "QUALITY FEEDBACK FROM PRIOR GENERATION") || !strings.Contains(rerun, res.Issues[0]) {
		t.Fatalf("rerun prompt should carry the stored quality issues")
	}
	if got := h.status(t, sess.ID).LastQualityIssues(); len(got) != 0 {
		t.Fatalf("issues after passing gate: want=[] got=%v", got)
	}
	if acts := h.actions(t, sess.ID); acts[domain.AuditIngestSources] != 1 {
		t.Fatalf("ingest audits: want=1 got=%d", acts[domain.AuditIngestSources])
	}
}

func TestGenerateDiscardedAfterAbort(t *testing.T) {
	ctx := context.Background()
	hook := &hookBackend{Backend: llmtest.Default()}
	h := newHarness(t, hook, testConfig())
	sess := h.create(t)
	if _, err := h.pipeline.Ingest(ctx, sess.ID); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	hook.onBrief = func() {
		if err := h.svc.Abort(ctx, interviewer, sess.ID); err != nil {
			t.Errorf("Abort: %v", err)
		}
	}
	if _, err := h.pipeline.Generate(ctx, sess.ID, nil); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("Generate: want state_conflict got=%v", err)
	}
	if _, ok, _ := h.store.GetLatestVersion(ctx, sess.ID, domain.VersionKindBrief); ok {
		t.Fatalf("version recorded after abort")
	}
	if got := h.status(t, sess.ID); got.Status != domain.StatusAborted || got.BriefVersion != 0 {
		t.Fatalf("session: got=%+v", got)
	}
	if acts := h.actions(t, sess.ID); acts[domain.AuditAbortSession] != 1 || acts[domain.AuditGenerateBrief] != 0 {
		t.Fatalf("audit: got=%v", acts)
	}
}

func TestStageOrderingGuards(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.Default(), testConfig())
	sess := h.create(t)
	if _, err := h.pipeline.Generate(ctx, sess.ID, nil); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("generate before ingest: want state_conflict got=%v", err)
	}
	if _, err := h.pipeline.QualityCheck(ctx, sess.ID); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("quality before generate: want state_conflict got=%v", err)
	}
	if _, err := h.svc.Synthesize(ctx, interviewer, sess.ID, domain.Notes{RawNotes: "x"}); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("synthesize from created: want state_conflict got=%v", err)
	}
	if _, err := h.svc.Synthesize(ctx, interviewer, sess.ID, domain.Notes{}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("empty notes: want validation got=%v", err)
	}
}

func TestStartPipelineRunsInBackground(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.Default(), testConfig())
	sess := h.create(t)
	if err := h.svc.StartPipeline(ctx, interviewer, sess.ID); err != nil {
		t.Fatalf("StartPipeline: %v", err)
	}
	h.runner.Wait()
	if got := h.status(t, sess.ID); got.Status != domain.StatusReady {
		t.Fatalf("status: want ready got=%s", got.Status)
	}
	if err := h.svc.StartPipeline(ctx, interviewer, sess.ID); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("start from ready: want state_conflict got=%v", err)
	}
}

func TestStartPipelineResumesAfterTransientFailure(t *testing.T) {
	ctx := context.Background()
	backend := llmtest.Default().Fail(llmtest.ProfileMarker, errors.New("503 service unavailable"))
	h := newHarness(t, backend, testConfig())
	sess := h.create(t)

	if _, err := h.pipeline.Run(ctx, sess.ID, 3); !domain.IsCode(err, domain.CodeUpstreamDependency) {
		t.Fatalf("Run: want=%s got=%v", domain.CodeUpstreamDependency, err)
	}
	if got := h.status(t, sess.ID); got.Status != domain.StatusIngested {
		t.Fatalf("status after failure: want=%s got=%s", domain.StatusIngested, got.Status)
	}

	backend.Reply(llmtest.ProfileMarker, llmtest.ProfileJSON)
	if err := h.svc.StartPipeline(ctx, interviewer, sess.ID); err != nil {
		t.Fatalf("StartPipeline: %v", err)
	}
	h.runner.Wait()
	got := h.status(t, sess.ID)
	if got.Status != domain.StatusReady || got.BriefVersion != 1 {
		t.Fatalf("after resume: want=ready/v1 got=%s/v%d", got.Status, got.BriefVersion)
	}
	if acts := h.actions(t, sess.ID); acts[domain.AuditIngestSources] != 1 || acts[domain.AuditGenerateBrief] != 1 {
		t.Fatalf("audit: got=%v", acts)
	}
}

func TestStartPipelineResumesFromGenerated(t *testing.T) {
	ctx := context.Background()
	backend := llmtest.Default()
	h := newHarness(t, backend, testConfig())
	sess := h.create(t)
	if _, err := h.pipeline.Ingest(ctx, sess.ID); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := h.pipeline.Generate(ctx, sess.ID, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if err := h.svc.StartPipeline(ctx, interviewer, sess.ID); err != nil {
		t.Fatalf("StartPipeline: %v", err)
	}
	h.runner.Wait()
	got := h.status(t, sess.ID)
	if got.Status != domain.StatusReady || got.BriefVersion != 1 {
		t.Fatalf("after resume: want=ready/v1 got=%s/v%d", got.Status, got.BriefVersion)
	}
	if n := len(backend.Calls(llmtest.ProfileMarker)); n != 1 {
		t.Fatalf("profile calls: want=1 got=%d", n)
	}
	if acts := h.actions(t, sess.ID); acts[domain.AuditGenerateBrief] != 1 || acts[domain.AuditQualityCheck] != 1 {
		t.Fatalf("audit: got=%v", acts)
	}
}

func TestQualityCheckReplaysSettledGate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.Default(), testConfig())
	sess := h.create(t)
	if _, err := h.pipeline.Ingest(ctx, sess.ID); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := h.pipeline.Generate(ctx, sess.ID, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	first, err := h.pipeline.QualityCheck(ctx, sess.ID)
	if err != nil {
		t.Fatalf("QualityCheck: %v", err)
	}
	second, err := h.pipeline.QualityCheck(ctx, sess.ID)
	if err != nil {
		t.Fatalf("QualityCheck replay: %v", err)
	}
	if second.Score != first.Score || second.Passed != first.Passed {
		t.Fatalf("replay verdict: want=%d/%v got=%d/%v", first.Score, first.Passed, second.Score, second.Passed)
	}
	if got := h.status(t, sess.ID); got.Status != domain.StatusReady {
		t.Fatalf("status: want=%s got=%s", domain.StatusReady, got.Status)
	}
	if acts := h.actions(t, sess.ID); acts[domain.AuditQualityCheck] != 1 {
		t.Fatalf("quality audits: want=1 got=%d", acts[domain.AuditQualityCheck])
	}
}

type blockingPipeline struct {
	BriefPipeline
	release chan struct{}
}

func (b *blockingPipeline) Run(ctx context.Context, sessionID string, maxAttempts int) (*PipelineResult, error) {
	<-b.release
	return &PipelineResult{SessionID: sessionID}, nil
}

func TestLocalRunnerRejectsDuplicateStart(t *testing.T) {
	p := &blockingPipeline{release: make(chan struct{})}
	r := NewLocalRunner(p, logger.Nop())
	if err := r.Start(context.Background(), "s1", 1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(context.Background(), "s1", 1); !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("duplicate: want state_conflict got=%v", err)
	}
	if err := r.Start(context.Background(), "s2", 1); err != nil {
		t.Fatalf("other session: %v", err)
	}
	close(p.release)
	r.Wait()
	if err := r.Start(context.Background(), "s1", 1); err != nil {
		t.Fatalf("restart after finish: %v", err)
	}
	r.Wait()
}

func TestMergeFeedbackDedupesInOrder(t *testing.T) {
	got := MergeFeedback([]string{"a", "b"}, []string{"b", "", "c", "a", "c"})
	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("MergeFeedback: want=a,b,c got=%v", got)
	}
}

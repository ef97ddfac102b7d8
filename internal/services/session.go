package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/interview-brief-backend/internal/data/blob"
	"github.com/yungbote/interview-brief-backend/internal/data/graph"
	"github.com/yungbote/interview-brief-backend/internal/data/repos"
	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/generation"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/synthesis"
	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

const (
	DeliveryEmail  = "email"
	DeliveryManual = "manual"

	OptOutMessage     = "You have opted out. Your data will be removed."
	CorrectionMessage = "Thank you! Your feedback has been recorded and will enhance the conversation."
	UpdateMessage     = "Brief updated with corrections"
)

type SessionConfig struct {
	// MaxBriefsPerDay caps sessions per interviewer per UTC day; 0 disables.
	MaxBriefsPerDay int
	MaxAttempts     int
	AutoStart       bool
	FrontendBaseURL string
	UploadURLTTL    time.Duration
	SenderName      string
}

func SessionConfigFromEnv() SessionConfig {
	return SessionConfig{
		MaxBriefsPerDay: envutil.Int("MAX_BRIEFS_PER_DAY", 5),
		MaxAttempts:     envutil.Int("BRIEF_MAX_ATTEMPTS", DefaultMaxAttempts),
		AutoStart:       envutil.Bool("AUTO_START_PIPELINE", false),
		FrontendBaseURL: envutil.String("FRONTEND_BASE_URL", "http://localhost:3000"),
		UploadURLTTL:    envutil.Seconds("UPLOAD_URL_TTL_SECONDS", 15*time.Minute),
		SenderName:      envutil.String("PACKET_SENDER_NAME", "The Interview Team"),
	}
}

type CreateSessionRequest struct {
	CompanyName      string   `json:"companyName"`
	LeaderName       string   `json:"leaderName"`
	IntervieweeEmail string   `json:"intervieweeEmail"`
	URLs             []string `json:"urls"`
	HasUpload        bool     `json:"hasUpload"`
}

type CreateSessionResult struct {
	Session   *domain.Session `json:"session"`
	UploadURL string          `json:"uploadUrl,omitempty"`
}

// BriefMeta describes the latest brief version.
type BriefMeta struct {
	Version         string    `json:"version"`
	ContentKey      string    `json:"contentKey"`
	Sources         []string  `json:"sources"`
	CorrectionCount int       `json:"correctionCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SessionView aggregates a session with whichever artifacts exist.
type SessionView struct {
	Session     *domain.Session      `json:"session"`
	BriefMeta   *BriefMeta           `json:"briefMeta,omitempty"`
	Brief       *domain.Brief        `json:"brief,omitempty"`
	Packet      *domain.Packet       `json:"packet,omitempty"`
	Profile     *domain.Profile      `json:"profile,omitempty"`
	Questions   []domain.Question    `json:"questions,omitempty"`
	Corrections []*domain.Correction `json:"corrections"`
}

type SendPacketRequest struct {
	DeliveryMethod string `json:"deliveryMethod"`
}

type SendPacketResult struct {
	Message        string `json:"message"`
	FeedbackLink   string `json:"feedbackLink"`
	DeliveryMethod string `json:"deliveryMethod"`
	EmailSent      bool   `json:"emailSent"`
}

type CorrectionInput struct {
	OriginalAssertion string `json:"originalAssertion"`
	Correction        string `json:"correction"`
	CorrectionType    string `json:"correctionType"`
	Note              string `json:"note"`
}

type Submission struct {
	Corrections       []CorrectionInput `json:"corrections"`
	SelectedQuestions []string          `json:"selectedQuestions"`
	OptOut            bool              `json:"optOut"`
}

type SubmissionResult struct {
	Message          string               `json:"message"`
	Status           domain.SessionStatus `json:"status"`
	StoredCount      int                  `json:"storedCount"`
	TotalCorrections int                  `json:"totalCorrections"`
}

type UpdateBriefResult struct {
	Message string        `json:"message"`
	Version string        `json:"version"`
	Brief   *domain.Brief `json:"brief"`
}

type SynthesisResult struct {
	Version   string            `json:"version"`
	Synthesis *domain.Synthesis `json:"synthesis"`
}

type SessionService interface {
	CreateSession(ctx context.Context, actor Actor, req CreateSessionRequest) (*CreateSessionResult, error)
	GetSession(ctx context.Context, actor Actor, sessionID string) (*SessionView, error)
	ListSessions(ctx context.Context, actor Actor) ([]*domain.Session, error)
	StartPipeline(ctx context.Context, actor Actor, sessionID string) error
	SendPacket(ctx context.Context, actor Actor, sessionID string, req SendPacketRequest) (*SendPacketResult, error)
	// SubmitCorrections is the public intake path; the session id is the only
	// credential.
	SubmitCorrections(ctx context.Context, sessionID string, sub Submission) (*SubmissionResult, error)
	UpdateBrief(ctx context.Context, actor Actor, sessionID string) (*UpdateBriefResult, error)
	Synthesize(ctx context.Context, actor Actor, sessionID string, notes domain.Notes) (*SynthesisResult, error)
	Abort(ctx context.Context, actor Actor, sessionID string) error
}

type SessionServiceDeps struct {
	Store      repos.RecordStore
	Blob       blob.Store
	Generation *generation.Stage
	Synthesis  *synthesis.Stage
	// Graph may be nil when no knowledge graph is configured.
	Graph    graph.InsightsGraph
	Notifier Notifier
	Runner   PipelineRunner
	Locker   SessionLocker
	Audit    AuditTrail
	Log      *logger.Logger
	Config   SessionConfig
}

type sessionService struct {
	store    repos.RecordStore
	blob     blob.Store
	gen      *generation.Stage
	synth    *synthesis.Stage
	graph    graph.InsightsGraph
	notifier Notifier
	runner   PipelineRunner
	locker   SessionLocker
	audit    AuditTrail
	log      *logger.Logger
	cfg      SessionConfig
	now      func() time.Time
}

func NewSessionService(deps SessionServiceDeps) SessionService {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(deps.Log)
	}
	cfg := deps.Config
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &sessionService{
		store:    deps.Store,
		blob:     deps.Blob,
		gen:      deps.Generation,
		synth:    deps.Synthesis,
		graph:    deps.Graph,
		notifier: notifier,
		runner:   deps.Runner,
		locker:   deps.Locker,
		audit:    deps.Audit,
		log:      deps.Log.With("service", "SessionService"),
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, actor Actor, req CreateSessionRequest) (*CreateSessionResult, error) {
	const op = "create_session"
	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		return nil, domain.ValidationError(op, "companyName is required")
	}
	urls, err := cleanSourceURLs(op, req.URLs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if s.cfg.MaxBriefsPerDay > 0 {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		n, err := s.store.CountCreatedSince(ctx, actor.ID, dayStart)
		if err != nil {
			return nil, err
		}
		if n >= int64(s.cfg.MaxBriefsPerDay) {
			return nil, domain.NewError(domain.CodeQuotaExceeded, op,
				fmt.Sprintf("daily limit of %d briefs reached", s.cfg.MaxBriefsPerDay), nil)
		}
	}

	sess := &domain.Session{
		ID:                domain.NewSessionID(),
		CompanyName:       company,
		LeaderName:        strings.TrimSpace(req.LeaderName),
		InterviewerID:     actor.ID,
		InterviewerEmail:  actor.Email,
		IntervieweeEmail:  strings.TrimSpace(req.IntervieweeEmail),
		SourceURLs:        domain.JSONStrings(urls),
		HasUpload:         req.HasUpload,
		Status:            domain.StatusCreated,
		Stage:             domain.StagePreInterview,
		SelectedQuestions: domain.JSONStrings(nil),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.HasUpload {
		sess.UploadKey = domain.UploadKey(actor.ID, sess.ID)
	}

	err = s.store.InTx(ctx, func(tx repos.RecordStore) error {
		if err := tx.PutSession(ctx, sess); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			ActorID:    actor.ID,
			Action:     domain.AuditCreateSession,
			ResourceID: sess.ID,
			Sources:    urls,
			Metadata: map[string]any{
				"companyName": company,
				"hasUpload":   req.HasUpload,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Session created", "session_id", sess.ID, "interviewer_id", actor.ID, "urls", len(urls), "has_upload", req.HasUpload)

	out := &CreateSessionResult{Session: sess}
	if req.HasUpload {
		signed, err := s.blob.SignedUploadURL(ctx, sess.UploadKey, "application/pdf", s.cfg.UploadURLTTL)
		if err != nil {
			s.log.Warn("Upload URL signing failed", "session_id", sess.ID, "error", err)
		}
		out.UploadURL = signed
	}
	if s.cfg.AutoStart && s.runner != nil {
		if err := s.runner.Start(ctx, sess.ID, s.cfg.MaxAttempts); err != nil {
			s.log.Warn("Pipeline auto-start failed", "session_id", sess.ID, "error", err)
		}
	}
	return out, nil
}

func cleanSourceURLs(op string, in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, raw := range in {
		u := strings.TrimSpace(raw)
		if u == "" || seen[u] {
			continue
		}
		parsed, err := url.Parse(u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, domain.ValidationError(op, "invalid source url: "+u)
		}
		seen[u] = true
		out = append(out, u)
	}
	return out, nil
}

// owned loads the session and checks that actor owns it.
func (s *sessionService) owned(ctx context.Context, op string, actor Actor, sessionID string) (*domain.Session, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorize(op, sess, actor); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) GetSession(ctx context.Context, actor Actor, sessionID string) (*SessionView, error) {
	sess, err := s.owned(ctx, "get_session", actor, sessionID)
	if err != nil {
		return nil, err
	}
	view := &SessionView{Session: sess}

	latest, ok, err := s.store.GetLatestVersion(ctx, sessionID, domain.VersionKindBrief)
	if err != nil {
		return nil, err
	}
	if ok {
		view.BriefMeta = &BriefMeta{
			Version:         latest.Label(),
			ContentKey:      latest.ContentKey,
			Sources:         latest.SourceList(),
			CorrectionCount: latest.CorrectionCount,
			CreatedAt:       latest.CreatedAt,
		}
		var brief domain.Brief
		if found, err := s.blob.GetJSON(ctx, latest.ContentKey, &brief); err != nil {
			return nil, err
		} else if found {
			view.Brief = &brief
		}
	}
	if sess.PacketKey != "" {
		var packet domain.Packet
		if found, err := s.blob.GetJSON(ctx, sess.PacketKey, &packet); err != nil {
			return nil, err
		} else if found {
			view.Packet = &packet
		}
	}
	if sess.ProfileKey != "" {
		profile, err := s.loadProfile(ctx, sess)
		if err != nil {
			return nil, err
		}
		view.Profile = profile
	}
	if sess.QuestionsKey != "" {
		questions, err := s.loadQuestions(ctx, sess)
		if err != nil {
			return nil, err
		}
		view.Questions = questions
	}
	view.Corrections, err = s.store.ListCorrections(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *sessionService) loadProfile(ctx context.Context, sess *domain.Session) (*domain.Profile, error) {
	if sess.ProfileKey == "" {
		return nil, nil
	}
	var p domain.Profile
	ok, err := s.blob.GetJSON(ctx, sess.ProfileKey, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *sessionService) loadQuestions(ctx context.Context, sess *domain.Session) ([]domain.Question, error) {
	if sess.QuestionsKey == "" {
		return nil, nil
	}
	var qs domain.QuestionSet
	ok, err := s.blob.GetJSON(ctx, sess.QuestionsKey, &qs)
	if err != nil || !ok {
		return nil, err
	}
	return qs.Questions, nil
}

func (s *sessionService) ListSessions(ctx context.Context, actor Actor) ([]*domain.Session, error) {
	return s.store.ListByOwner(ctx, actor.ID)
}

func (s *sessionService) StartPipeline(ctx context.Context, actor Actor, sessionID string) error {
	const op, action = "start_pipeline", "start the pipeline"
	sess, err := s.owned(ctx, op, actor, sessionID)
	if err != nil {
		return err
	}
	if err := requireStatus(op, action, sess, domain.PipelineStartStatuses...); err != nil {
		return err
	}
	if s.runner == nil {
		return domain.NewError(domain.CodeInternal, op, "no pipeline runner configured", nil)
	}
	if err := s.runner.Start(ctx, sessionID, s.cfg.MaxAttempts); err != nil {
		return err
	}
	s.log.Info("Pipeline started", "session_id", sessionID, "max_attempts", s.cfg.MaxAttempts)
	return nil
}

func (s *sessionService) SendPacket(ctx context.Context, actor Actor, sessionID string, req SendPacketRequest) (*SendPacketResult, error) {
	const op, action = "send_packet", "send the packet"
	sess, err := s.owned(ctx, op, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureActive(op, action, sess); err != nil {
		return nil, err
	}
	if err := requireStatus(op, action, sess, domain.DeliverableStatuses...); err != nil {
		return nil, err
	}
	if sess.BriefVersion < 1 || sess.PacketKey == "" {
		return nil, domain.NewError(domain.CodeStateConflict, op, "no brief has been generated", nil)
	}

	method := strings.ToLower(strings.TrimSpace(req.DeliveryMethod))
	if method == "" {
		method = DeliveryEmail
	}
	if method != DeliveryEmail && method != DeliveryManual {
		return nil, domain.ValidationError(op, "deliveryMethod must be email or manual")
	}
	email := sess.IntervieweeEmail
	consentEmail := email
	if consentEmail == "" {
		consentEmail = domain.ManualDeliveryEmail
		method = DeliveryManual
	}
	link := strings.TrimRight(s.cfg.FrontendBaseURL, "/") + "/feedback/" + sessionID

	err = s.store.InTx(ctx, func(tx repos.RecordStore) error {
		fresh, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := requireStatus(op, action, fresh, domain.DeliverableStatuses...); err != nil {
			return err
		}
		if err := tx.PutConsent(ctx, &domain.ConsentRecord{
			Email:          consentEmail,
			SessionID:      sessionID,
			ConsentType:    domain.ConsentTypePrePacket,
			Scope:          domain.ConsentScopeInterview,
			DeliveryMethod: method,
			RecordedAt:     s.now().UTC(),
		}); err != nil {
			return err
		}
		if err := transition(ctx, tx, op, action, fresh, domain.StatusPacketSent, map[string]any{
			"delivery_method": method,
		}); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			ActorID:    actor.ID,
			Action:     domain.AuditSendPacket,
			ResourceID: sessionID,
			ConsentRef: domain.ConsentRef(consentEmail),
			Metadata: map[string]any{
				"deliveryMethod": method,
				"version":        domain.VersionLabel(fresh.BriefVersion),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	out := &SendPacketResult{Message: "Packet sent", FeedbackLink: link, DeliveryMethod: method}
	if method == DeliveryEmail {
		subject, body := PacketEmail(sess.LeaderName, sess.CompanyName, link, s.cfg.SenderName)
		if err := s.notifier.Send(ctx, email, subject, body); err != nil {
			s.log.Warn("Packet e-mail failed", "session_id", sessionID, "error", err)
		} else {
			out.EmailSent = true
		}
	}
	return out, nil
}

func (s *sessionService) SubmitCorrections(ctx context.Context, sessionID string, sub Submission) (*SubmissionResult, error) {
	const op, action = "submit_corrections", "submit corrections"
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(op, action, sess, domain.CorrectionStatuses...); err != nil {
		return nil, err
	}

	if sub.OptOut {
		err := s.store.InTx(ctx, func(tx repos.RecordStore) error {
			fresh, err := tx.GetSession(ctx, sessionID)
			if err != nil {
				return err
			}
			if err := requireStatus(op, action, fresh, domain.CorrectionStatuses...); err != nil {
				return err
			}
			if err := transition(ctx, tx, op, action, fresh, domain.StatusOptedOut, nil); err != nil {
				return err
			}
			return s.audit.Record(ctx, tx, AuditEntry{
				ActorID:    domain.ActorInterviewee,
				Action:     domain.AuditOptOut,
				ResourceID: sessionID,
			})
		})
		if err != nil {
			return nil, err
		}
		s.log.Info("Interviewee opted out", "session_id", sessionID)
		return &SubmissionResult{Message: OptOutMessage, Status: domain.StatusOptedOut, TotalCorrections: sess.CorrectionCount}, nil
	}

	valid := make([]CorrectionInput, 0, len(sub.Corrections))
	for _, c := range sub.Corrections {
		c.OriginalAssertion = strings.TrimSpace(c.OriginalAssertion)
		c.Correction = strings.TrimSpace(c.Correction)
		if c.OriginalAssertion == "" || c.Correction == "" {
			continue
		}
		valid = append(valid, c)
	}
	selected := cleanSelected(sub.SelectedQuestions)

	var total int
	err = s.store.InTx(ctx, func(tx repos.RecordStore) error {
		fresh, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := requireStatus(op, action, fresh, domain.CorrectionStatuses...); err != nil {
			return err
		}
		existing, err := tx.ListCorrections(ctx, sessionID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		rows := make([]*domain.Correction, 0, len(valid))
		for i, c := range valid {
			typ := strings.TrimSpace(c.CorrectionType)
			if typ == "" {
				typ = domain.DefaultCorrectionType
			}
			rows = append(rows, &domain.Correction{
				SessionID:         sessionID,
				Index:             len(existing) + i,
				OriginalAssertion: c.OriginalAssertion,
				Correction:        c.Correction,
				CorrectionType:    typ,
				Note:              strings.TrimSpace(c.Note),
				CreatedAt:         now,
			})
		}
		if len(rows) > 0 {
			if err := tx.PutCorrection(ctx, rows); err != nil {
				return err
			}
		}
		total = len(existing) + len(rows)
		fields := map[string]any{"correction_count": total}
		if len(selected) > 0 {
			fields["selected_questions"] = domain.JSONStrings(selected)
		}
		if err := transition(ctx, tx, op, action, fresh, domain.StatusFeedbackReceived, fields); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			ActorID:    domain.ActorInterviewee,
			Action:     domain.AuditSubmitCorrections,
			ResourceID: sessionID,
			Metadata: map[string]any{
				"correctionCount":   len(rows),
				"totalCorrections":  total,
				"selectedQuestions": len(selected),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Corrections recorded", "session_id", sessionID, "stored", len(valid), "dropped", len(sub.Corrections)-len(valid), "total", total)
	return &SubmissionResult{
		Message:          CorrectionMessage,
		Status:           domain.StatusFeedbackReceived,
		StoredCount:      len(valid),
		TotalCorrections: total,
	}, nil
}

func cleanSelected(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, id := range in {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *sessionService) UpdateBrief(ctx context.Context, actor Actor, sessionID string) (*UpdateBriefResult, error) {
	const op, action = "update_brief", "update the brief"
	sess, err := s.owned(ctx, op, actor, sessionID)
	if err != nil {
		return nil, err
	}
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err = s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureActive(op, action, sess); err != nil {
		return nil, err
	}
	if err := requireStatus(op, action, sess, domain.BriefUpdateStatuses...); err != nil {
		return nil, err
	}
	if sess.ProfileKey == "" || sess.QuestionsKey == "" {
		return nil, domain.NewError(domain.CodeStateConflict, op, "session has no generated profile and questions", nil)
	}
	profile, err := s.loadProfile(ctx, sess)
	if err != nil {
		return nil, err
	}
	questions, err := s.loadQuestions(ctx, sess)
	if err != nil {
		return nil, err
	}
	if profile == nil || len(questions) == 0 {
		return nil, domain.NewError(domain.CodeStateConflict, op, "session has no generated profile and questions", nil)
	}
	stored, err := s.store.ListCorrections(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	corrections := make([]domain.Correction, 0, len(stored))
	for _, c := range stored {
		corrections = append(corrections, *c)
	}

	latest, _, err := s.store.GetLatestVersion(ctx, sessionID, domain.VersionKindBrief)
	if err != nil {
		return nil, err
	}
	next := domain.NextVersionNumber(latest)

	out, err := s.gen.UpdateBrief(ctx, generation.UpdateInput{
		SessionID:    sessionID,
		CompanyName:  sess.CompanyName,
		Version:      next,
		Profile:      profile,
		Questions:    questions,
		Corrections:  corrections,
		Selected:     sess.Selected(),
		PriorSources: latest.SourceList(),
	})
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(tx repos.RecordStore) error {
		fresh, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := requireStatus(op, action, fresh, domain.BriefUpdateStatuses...); err != nil {
			return err
		}
		if _, err := checkVersionSlot(ctx, tx, op, sessionID, domain.VersionKindBrief, next); err != nil {
			return err
		}
		if err := tx.PutVersion(ctx, &domain.Version{
			SessionID:       sessionID,
			Kind:            domain.VersionKindBrief,
			Number:          next,
			ContentKey:      out.BriefKey,
			ProfileKey:      fresh.ProfileKey,
			QuestionsKey:    fresh.QuestionsKey,
			PacketKey:       fresh.PacketKey,
			Sources:         domain.JSONStrings(out.Sources),
			CorrectionCount: len(corrections),
		}); err != nil {
			return err
		}
		if err := transition(ctx, tx, op, action, fresh, domain.StatusUpdated, map[string]any{
			"brief_version":         next,
			"correction_integrated": true,
		}); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			ActorID:    actor.ID,
			Action:     domain.AuditUpdateBrief,
			ResourceID: sessionID,
			Sources:    out.Sources,
			Metadata: map[string]any{
				"version":         domain.VersionLabel(next),
				"correctionCount": len(corrections),
				"selectedCount":   len(sess.Selected()),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &UpdateBriefResult{Message: UpdateMessage, Version: domain.VersionLabel(next), Brief: out.Brief}, nil
}

func (s *sessionService) Synthesize(ctx context.Context, actor Actor, sessionID string, notes domain.Notes) (*SynthesisResult, error) {
	const op, action = "post_call_synthesis", "synthesize notes"
	if notes.IsEmpty() {
		return nil, domain.ValidationError(op, "interview notes are required")
	}
	if _, err := s.owned(ctx, op, actor, sessionID); err != nil {
		return nil, err
	}
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(op, action, sess, domain.SynthesisStatuses...); err != nil {
		return nil, err
	}
	version := sess.BriefVersion
	if version < 1 {
		version = 1
	}
	profile, err := s.loadProfile(ctx, sess)
	if err != nil {
		return nil, err
	}

	out, err := s.synth.Run(ctx, synthesis.Input{
		SessionID:   sessionID,
		CompanyName: sess.CompanyName,
		Version:     version,
		Notes:       notes,
		Profile:     profile,
	})
	if err != nil {
		return nil, err
	}
	syn := out.Synthesis

	err = s.store.InTx(ctx, func(tx repos.RecordStore) error {
		fresh, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := requireStatus(op, action, fresh, domain.SynthesisStatuses...); err != nil {
			return err
		}
		if err := tx.PutVersion(ctx, &domain.Version{
			SessionID:     sessionID,
			Kind:          domain.VersionKindSynthesis,
			Number:        version,
			ContentKey:    out.Key,
			Sources:       domain.JSONStrings(out.Sources),
			InsightTags:   domain.JSONStrings(syn.KnowledgeGraphTags.GrowthSignals),
			ConstraintMap: domain.JSONValue(syn.ConstraintMap),
		}); err != nil {
			return err
		}
		if err := tx.UpsertCompanyInsights(ctx, &domain.CompanyInsights{
			CompanyName:        fresh.CompanyName,
			CompanyProfile:     domain.JSONValue(syn.CompanyProfile),
			ConstraintMap:      domain.JSONValue(syn.ConstraintMap),
			MarketStructure:    domain.JSONValue(syn.MarketStructure),
			StrategicTensions:  domain.JSONValue(syn.StrategicTensions),
			AIOpportunities:    domain.JSONValue(syn.AIOpportunities),
			KnowledgeGraphTags: domain.JSONValue(syn.KnowledgeGraphTags),
			SourceSessionID:    sessionID,
			UpdatedAt:          s.now().UTC(),
		}); err != nil {
			return err
		}
		if err := transition(ctx, tx, op, action, fresh, domain.StatusCompleted, map[string]any{
			"stage": domain.StagePostInterview,
		}); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			ActorID:    actor.ID,
			Action:     domain.AuditPostCallSynthesis,
			ResourceID: sessionID,
			Sources:    out.Sources,
			Metadata: map[string]any{
				"version":       domain.VersionLabel(version),
				"constraints":   len(syn.ConstraintMap.Top3Constraints),
				"growthSignals": len(syn.KnowledgeGraphTags.GrowthSignals),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.graph != nil {
		if err := s.graph.UpsertCompanyInsights(ctx, sessionID, syn); err != nil {
			s.log.Warn("Knowledge graph mirror failed", "session_id", sessionID, "error", err)
		}
	}
	return &SynthesisResult{Version: domain.VersionLabel(version), Synthesis: syn}, nil
}

func (s *sessionService) Abort(ctx context.Context, actor Actor, sessionID string) error {
	const op, action = "abort_session", "abort"
	sess, err := s.owned(ctx, op, actor, sessionID)
	if err != nil {
		return err
	}
	if sess.Status.IsTerminal() {
		return domain.StateConflictError(op, sess.Status, action)
	}
	return s.store.InTx(ctx, func(tx repos.RecordStore) error {
		fresh, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		from := fresh.Status
		if err := transition(ctx, tx, op, action, fresh, domain.StatusAborted, nil); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			ActorID:    actor.ID,
			Action:     domain.AuditAbortSession,
			ResourceID: sessionID,
			Metadata:   map[string]any{"from": string(from)},
		})
	})
}

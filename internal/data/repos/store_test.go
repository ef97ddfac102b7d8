package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/interview-brief-backend/internal/data/repos/testutil"
	"github.com/yungbote/interview-brief-backend/internal/domain"
)

func newStore(t *testing.T) RecordStore {
	t.Helper()
	return NewRecordStore(testutil.DB(t), testutil.Logger(t))
}

func seedSession(t *testing.T, st RecordStore, owner string, status domain.SessionStatus) *domain.Session {
	t.Helper()
	s := &domain.Session{
		ID:            domain.NewSessionID(),
		CompanyName:   "Acme",
		InterviewerID: owner,
		SourceURLs:    domain.JSONStrings([]string{"https://acme.test"}),
		Status:        status,
		Stage:         domain.StagePreInterview,
	}
	if err := st.PutSession(context.Background(), s); err != nil {
		t.Fatalf("PutSession: %v", err)
	}
	return s
}

func TestGetSessionNotFound(t *testing.T) {
	st := newStore(t)
	_, err := st.GetSession(context.Background(), "nope")
	if !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("GetSession: want=not_found got=%v", err)
	}
}

func TestUpdateStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := seedSession(t, st, "u1", domain.StatusCreated)

	if err := st.UpdateStatus(ctx, s.ID, domain.StatusCreated, domain.StatusIngested, map[string]any{"chunk_count": 3}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, err := st.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != domain.StatusIngested || got.ChunkCount != 3 {
		t.Fatalf("session: want=ingested/3 got=%s/%d", got.Status, got.ChunkCount)
	}

	err = st.UpdateStatus(ctx, s.ID, domain.StatusCreated, domain.StatusIngested, nil)
	if !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("stale UpdateStatus: want=state_conflict got=%v", err)
	}
}

func TestVersionAllocation(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := seedSession(t, st, "u1", domain.StatusCreated)

	_, ok, err := st.GetLatestVersion(ctx, s.ID, domain.VersionKindBrief)
	if err != nil || ok {
		t.Fatalf("GetLatestVersion on empty: want=absent got ok=%v err=%v", ok, err)
	}
	for n := 1; n <= 3; n++ {
		if err := st.PutVersion(ctx, &domain.Version{SessionID: s.ID, Kind: domain.VersionKindBrief, Number: n, ContentKey: domain.BriefKey(s.ID, n)}); err != nil {
			t.Fatalf("PutVersion v%d: %v", n, err)
		}
	}
	latest, ok, err := st.GetLatestVersion(ctx, s.ID, domain.VersionKindBrief)
	if err != nil || !ok {
		t.Fatalf("GetLatestVersion: ok=%v err=%v", ok, err)
	}
	if next := domain.NextVersionNumber(latest); next != 4 {
		t.Fatalf("next version: want=4 got=%d", next)
	}

	err = st.PutVersion(ctx, &domain.Version{SessionID: s.ID, Kind: domain.VersionKindBrief, Number: 3, ContentKey: "dup"})
	if !domain.IsCode(err, domain.CodeStateConflict) {
		t.Fatalf("duplicate version: want=state_conflict got=%v", err)
	}

	// Synthesis versions share numbers with briefs without colliding.
	if err := st.PutVersion(ctx, &domain.Version{SessionID: s.ID, Kind: domain.VersionKindSynthesis, Number: 3, ContentKey: domain.SynthesisKey(s.ID, 3)}); err != nil {
		t.Fatalf("PutVersion synthesis: %v", err)
	}
}

func TestCorrectionsOrderedByIndex(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := seedSession(t, st, "u1", domain.StatusPacketSent)

	err := st.PutCorrection(ctx, []*domain.Correction{
		{SessionID: s.ID, Index: 1, OriginalAssertion: "b", Correction: "B"},
		{SessionID: s.ID, Index: 0, OriginalAssertion: "a", Correction: "A"},
	})
	if err != nil {
		t.Fatalf("PutCorrection: %v", err)
	}
	got, err := st.ListCorrections(ctx, s.ID)
	if err != nil {
		t.Fatalf("ListCorrections: %v", err)
	}
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 1 {
		t.Fatalf("ListCorrections: unexpected order %+v", got)
	}
	if got[0].CorrectionType != domain.DefaultCorrectionType {
		t.Fatalf("correction type: want=%s got=%s", domain.DefaultCorrectionType, got[0].CorrectionType)
	}
}

func TestConsentUpsertRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := &domain.ConsentRecord{Email: "x@acme.test", SessionID: "abc", ConsentType: domain.ConsentTypePrePacket, Scope: domain.ConsentScopeInterview, RecordedAt: first}
	if err := st.PutConsent(ctx, rec); err != nil {
		t.Fatalf("PutConsent: %v", err)
	}
	second := first.Add(time.Hour)
	if err := st.PutConsent(ctx, &domain.ConsentRecord{Email: "x@acme.test", SessionID: "abc", ConsentType: domain.ConsentTypePrePacket, Scope: domain.ConsentScopeInterview, DeliveryMethod: "email", RecordedAt: second}); err != nil {
		t.Fatalf("PutConsent again: %v", err)
	}
	got, ok, err := st.GetConsent(ctx, "x@acme.test", "abc")
	if err != nil || !ok {
		t.Fatalf("GetConsent: ok=%v err=%v", ok, err)
	}
	if !got.RecordedAt.Equal(second) || got.DeliveryMethod != "email" {
		t.Fatalf("consent: want refreshed row got=%+v", got)
	}
}

func TestListByOwnerNewestFirstAndQuotaCount(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	older := &domain.Session{ID: domain.NewSessionID(), CompanyName: "Old", InterviewerID: "u1", Status: domain.StatusCreated, Stage: domain.StagePreInterview, CreatedAt: time.Now().UTC().Add(-48 * time.Hour)}
	if err := st.PutSession(ctx, older); err != nil {
		t.Fatalf("PutSession: %v", err)
	}
	newer := seedSession(t, st, "u1", domain.StatusCreated)
	seedSession(t, st, "u2", domain.StatusCreated)

	list, err := st.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("ListByOwner: want newest first, got %d rows", len(list))
	}
	n, err := st.CountCreatedSince(ctx, "u1", time.Now().UTC().Add(-time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("CountCreatedSince: want=1 got=%d err=%v", n, err)
	}
}

func TestAuditPurgeRemovesExpiredOnly(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	now := time.Now().UTC()
	old := domain.NewAuditEvent(now.Add(-800*24*time.Hour), "u1", domain.AuditCreateSession, "s1")
	fresh := domain.NewAuditEvent(now, "u1", domain.AuditIngestSources, "s1")
	for _, ev := range []*domain.AuditEvent{old, fresh} {
		if err := st.AppendAudit(ctx, ev); err != nil {
			t.Fatalf("AppendAudit: %v", err)
		}
	}
	n, err := st.PurgeAuditBefore(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("PurgeAuditBefore: want=1 got=%d err=%v", n, err)
	}
	left, err := st.ListAudit(ctx, "s1")
	if err != nil || len(left) != 1 || left[0].Action != domain.AuditIngestSources {
		t.Fatalf("ListAudit after purge: %+v err=%v", left, err)
	}
}

func TestCompanyInsightsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	if err := st.UpsertCompanyInsights(ctx, &domain.CompanyInsights{CompanyName: "Acme", SourceSessionID: "s1"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := st.UpsertCompanyInsights(ctx, &domain.CompanyInsights{CompanyName: "Acme", SourceSessionID: "s2"}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	got, ok, err := st.GetCompanyInsights(ctx, "Acme")
	if err != nil || !ok || got.SourceSessionID != "s2" {
		t.Fatalf("GetCompanyInsights: want source s2 got=%+v ok=%v err=%v", got, ok, err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := seedSession(t, st, "u1", domain.StatusCreated)
	boom := errors.New("boom")

	err := st.InTx(ctx, func(tx RecordStore) error {
		if err := tx.UpdateStatus(ctx, s.ID, domain.StatusCreated, domain.StatusIngested, nil); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx: want=boom got=%v", err)
	}
	got, err := st.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != domain.StatusCreated {
		t.Fatalf("status after rollback: want=created got=%s", got.Status)
	}
}

func TestMapErrorPassesThroughDomainErrors(t *testing.T) {
	base := domain.ValidationError("x", "bad")
	if MapError("op", base) != base {
		t.Fatalf("MapError should not rewrap domain errors")
	}
	if !domain.IsCode(MapError("op", errors.New("UNIQUE constraint failed: t.k")), domain.CodeStateConflict) {
		t.Fatalf("sqlite unique violation should map to state_conflict")
	}
}

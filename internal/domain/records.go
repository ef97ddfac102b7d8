package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const DefaultCorrectionType = "factual_error"

type Correction struct {
	SessionID         string    `gorm:"column:session_id;primaryKey;size:32" json:"sessionId"`
	Index             int       `gorm:"column:idx;primaryKey;autoIncrement:false" json:"index"`
	OriginalAssertion string    `gorm:"column:original_assertion;not null" json:"originalAssertion"`
	Correction        string    `gorm:"column:correction;not null" json:"correction"`
	CorrectionType    string    `gorm:"column:correction_type;not null" json:"correctionType"`
	Note              string    `gorm:"column:note" json:"note,omitempty"`
	CreatedAt         time.Time `gorm:"column:created_at;not null" json:"timestamp"`
}

func (Correction) TableName() string { return "corrections" }

const (
	ConsentTypePrePacket  = "pre-packet-sent"
	ConsentScopeInterview = "interview"
	ManualDeliveryEmail   = "manual_delivery"
)

type ConsentRecord struct {
	Email          string    `gorm:"column:email;primaryKey" json:"email"`
	SessionID      string    `gorm:"column:session_id;primaryKey;size:32" json:"sessionId"`
	ConsentType    string    `gorm:"column:consent_type;not null" json:"consentType"`
	Scope          string    `gorm:"column:scope;not null" json:"scope"`
	DeliveryMethod string    `gorm:"column:delivery_method" json:"deliveryMethod,omitempty"`
	RecordedAt     time.Time `gorm:"column:recorded_at;not null" json:"timestamp"`
}

func (ConsentRecord) TableName() string { return "consent_records" }

// AuditRetention is how long an audit event is kept before the purge job removes it.
const AuditRetention = 730 * 24 * time.Hour

const (
	AuditCreateSession     = "CREATE_SESSION"
	AuditIngestSources     = "INGEST_SOURCES"
	AuditGenerateBrief     = "GENERATE_BRIEF"
	AuditQualityCheck      = "QUALITY_CHECK"
	AuditSendPacket        = "SEND_PACKET"
	AuditSubmitCorrections = "SUBMIT_CORRECTIONS"
	AuditOptOut            = "OPT_OUT"
	AuditUpdateBrief       = "UPDATE_BRIEF"
	AuditPostCallSynthesis = "POST_CALL_SYNTHESIS"
	AuditAbortSession      = "ABORT_SESSION"
)

const ActorInterviewee = "interviewee"

type AuditEvent struct {
	Date       string         `gorm:"column:date;primaryKey;size:10" json:"date"`
	EventID    string         `gorm:"column:event_id;primaryKey" json:"eventId"`
	ActorID    string         `gorm:"column:actor_id;not null;index" json:"userId"`
	Action     string         `gorm:"column:action;not null;index" json:"action"`
	ResourceID string         `gorm:"column:resource_id;index" json:"resourceId"`
	Sources    datatypes.JSON `gorm:"column:sources;type:jsonb" json:"sources"`
	ConsentRef string         `gorm:"column:consent_ref" json:"consentRef,omitempty"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	Timestamp  time.Time      `gorm:"column:timestamp;not null" json:"timestamp"`
	ExpiresAt  time.Time      `gorm:"column:expires_at;not null;index" json:"ttl"`
}

func (AuditEvent) TableName() string { return "audit_events" }

// NewAuditEvent stamps a fresh event for now. The event id embeds the timestamp
// and a random suffix so ids sort chronologically within a date partition.
func NewAuditEvent(now time.Time, actorID, action, resourceID string) *AuditEvent {
	now = now.UTC()
	return &AuditEvent{
		Date:       now.Format("2006-01-02"),
		EventID:    fmt.Sprintf("EVENT#%s#%s", now.Format(time.RFC3339Nano), randomHex(4)),
		ActorID:    strings.TrimSpace(actorID),
		Action:     action,
		ResourceID: resourceID,
		Sources:    JSONStrings(nil),
		Timestamp:  now,
		ExpiresAt:  now.Add(AuditRetention),
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:2*n]
	}
	return hex.EncodeToString(b)
}

type CompanyInsights struct {
	CompanyName        string         `gorm:"column:company_name;primaryKey" json:"companyName"`
	CompanyProfile     datatypes.JSON `gorm:"column:company_profile;type:jsonb" json:"companyProfile"`
	ConstraintMap      datatypes.JSON `gorm:"column:constraint_map;type:jsonb" json:"constraintMap"`
	MarketStructure    datatypes.JSON `gorm:"column:market_structure;type:jsonb" json:"marketStructure"`
	StrategicTensions  datatypes.JSON `gorm:"column:strategic_tensions;type:jsonb" json:"strategicTensions"`
	AIOpportunities    datatypes.JSON `gorm:"column:ai_opportunities;type:jsonb" json:"aiOpportunities"`
	KnowledgeGraphTags datatypes.JSON `gorm:"column:knowledge_graph_tags;type:jsonb" json:"knowledgeGraphTags"`
	SourceSessionID    string         `gorm:"column:source_session_id" json:"sourceSessionId"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;not null" json:"lastUpdated"`
}

func (CompanyInsights) TableName() string { return "company_insights" }

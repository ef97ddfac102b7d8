package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Session struct {
	ID                   string         `gorm:"column:id;primaryKey;size:32" json:"sessionId"`
	CompanyName          string         `gorm:"column:company_name;not null;index" json:"companyName"`
	LeaderName           string         `gorm:"column:leader_name" json:"leaderName,omitempty"`
	InterviewerID        string         `gorm:"column:interviewer_id;not null;index" json:"interviewerId"`
	InterviewerEmail     string         `gorm:"column:interviewer_email" json:"interviewerEmail,omitempty"`
	IntervieweeEmail     string         `gorm:"column:interviewee_email" json:"intervieweeEmail,omitempty"`
	SourceURLs           datatypes.JSON `gorm:"column:source_urls;type:jsonb" json:"urls"`
	HasUpload            bool           `gorm:"column:has_upload;not null" json:"hasUpload"`
	UploadKey            string         `gorm:"column:upload_key" json:"uploadKey,omitempty"`
	Status               SessionStatus  `gorm:"column:status;not null;index" json:"status"`
	Stage                string         `gorm:"column:stage;not null" json:"stage"`
	ProfileKey           string         `gorm:"column:profile_key" json:"profileKey,omitempty"`
	QuestionsKey         string         `gorm:"column:questions_key" json:"questionsKey,omitempty"`
	PacketKey            string         `gorm:"column:packet_key" json:"packetKey,omitempty"`
	BriefVersion         int            `gorm:"column:brief_version;not null" json:"briefVersion"`
	SelectedQuestions    datatypes.JSON `gorm:"column:selected_questions;type:jsonb" json:"selectedQuestions"`
	QualityScore         *int           `gorm:"column:quality_score" json:"qualityScore,omitempty"`
	QualityIssueCount    *int           `gorm:"column:quality_issue_count" json:"qualityIssueCount,omitempty"`
	QualityIssues        datatypes.JSON `gorm:"column:quality_issues;type:jsonb" json:"qualityIssues,omitempty"`
	SourceCount          int            `gorm:"column:source_count;not null" json:"sourceCount"`
	ChunkCount           int            `gorm:"column:chunk_count;not null" json:"chunkCount"`
	EntityCount          int            `gorm:"column:entity_count;not null" json:"entityCount"`
	QuestionCount        int            `gorm:"column:question_count;not null" json:"questionCount"`
	CorrectionCount      int            `gorm:"column:correction_count;not null" json:"correctionCount"`
	CorrectionIntegrated bool           `gorm:"column:correction_integrated;not null" json:"correctionIntegrated"`
	DeliveryMethod       string         `gorm:"column:delivery_method" json:"deliveryMethod,omitempty"`
	CreatedAt            time.Time      `gorm:"column:created_at;not null;index" json:"createdAt"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (Session) TableName() string { return "sessions" }

// NewSessionID returns a short opaque id: the first 12 hex characters of a random UUID.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// URLs returns the decoded source URL list.
func (s *Session) URLs() []string {
	if s == nil {
		return []string{}
	}
	return StringsFromJSON(s.SourceURLs)
}

// Selected returns the decoded interviewee question selection.
func (s *Session) Selected() []string {
	if s == nil {
		return []string{}
	}
	return StringsFromJSON(s.SelectedQuestions)
}

// LastQualityIssues returns the issues recorded by the most recent quality
// gate, empty when the gate has not run or passed cleanly.
func (s *Session) LastQualityIssues() []string {
	if s == nil {
		return []string{}
	}
	return StringsFromJSON(s.QualityIssues)
}

// OwnedBy reports whether interviewerID owns the session.
func (s *Session) OwnedBy(interviewerID string) bool {
	if s == nil {
		return false
	}
	id := strings.TrimSpace(interviewerID)
	return id != "" && id == s.InterviewerID
}

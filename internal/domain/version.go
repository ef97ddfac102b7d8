package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VersionKind string

const (
	VersionKindBrief     VersionKind = "brief"
	VersionKindSynthesis VersionKind = "synthesis"
)

// Version is an immutable snapshot keyed by (session, kind, number).
type Version struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID       string         `gorm:"column:session_id;not null;uniqueIndex:idx_session_version,priority:1" json:"sessionId"`
	Kind            VersionKind    `gorm:"column:kind;not null;uniqueIndex:idx_session_version,priority:2" json:"kind"`
	Number          int            `gorm:"column:number;not null;uniqueIndex:idx_session_version,priority:3" json:"-"`
	ContentKey      string         `gorm:"column:content_key;not null" json:"contentKey"`
	ProfileKey      string         `gorm:"column:profile_key" json:"profileKey,omitempty"`
	QuestionsKey    string         `gorm:"column:questions_key" json:"questionsKey,omitempty"`
	PacketKey       string         `gorm:"column:packet_key" json:"packetKey,omitempty"`
	Sources         datatypes.JSON `gorm:"column:sources;type:jsonb" json:"sources"`
	InsightTags     datatypes.JSON `gorm:"column:insight_tags;type:jsonb" json:"insightTags,omitempty"`
	ConstraintMap   datatypes.JSON `gorm:"column:constraint_map;type:jsonb" json:"constraintMap,omitempty"`
	CorrectionCount int            `gorm:"column:correction_count;not null" json:"correctionCount"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null" json:"createdAt"`
}

func (Version) TableName() string { return "session_versions" }

// Label renders the version number as "v<N>".
func (v *Version) Label() string {
	if v == nil {
		return ""
	}
	return VersionLabel(v.Number)
}

func (v *Version) SourceList() []string {
	if v == nil {
		return []string{}
	}
	return StringsFromJSON(v.Sources)
}

func VersionLabel(n int) string {
	return fmt.Sprintf("v%d", n)
}

// ParseVersionLabel accepts "v<N>" or "<N>" and returns N.
func ParseVersionLabel(label string) (int, bool) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(label)), "v")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// NextVersionNumber returns latest+1, or 1 when there is no prior version.
func NextVersionNumber(latest *Version) int {
	if latest == nil || latest.Number < 1 {
		return 1
	}
	return latest.Number + 1
}

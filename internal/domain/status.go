package domain

import "strings"

// SessionStatus is the lifecycle position of a session.
type SessionStatus string

const (
	StatusCreated          SessionStatus = "created"
	StatusIngested         SessionStatus = "ingested"
	StatusGenerated        SessionStatus = "generated"
	StatusReady            SessionStatus = "ready"
	StatusQualityFailed    SessionStatus = "quality_failed"
	StatusPacketSent       SessionStatus = "packet_sent"
	StatusFeedbackReceived SessionStatus = "feedback_received"
	StatusOptedOut         SessionStatus = "opted_out"
	StatusUpdated          SessionStatus = "updated"
	StatusCompleted        SessionStatus = "completed"
	StatusAborted          SessionStatus = "aborted"
)

const (
	StagePreInterview  = "pre-interview"
	StagePostInterview = "post-interview"
)

// transitions lists, per status, every status it may move to. A status listed
// in its own row may be re-applied; the write is idempotent.
var transitions = map[SessionStatus][]SessionStatus{
	StatusCreated:          {StatusIngested, StatusAborted},
	StatusIngested:         {StatusIngested, StatusGenerated, StatusAborted},
	StatusGenerated:        {StatusGenerated, StatusReady, StatusQualityFailed, StatusPacketSent, StatusAborted},
	StatusQualityFailed:    {StatusQualityFailed, StatusGenerated, StatusAborted},
	StatusReady:            {StatusReady, StatusPacketSent, StatusCompleted, StatusAborted},
	StatusPacketSent:       {StatusPacketSent, StatusFeedbackReceived, StatusOptedOut, StatusCompleted, StatusAborted},
	StatusFeedbackReceived: {StatusFeedbackReceived, StatusOptedOut, StatusUpdated, StatusCompleted, StatusAborted},
	StatusUpdated:          {StatusUpdated, StatusPacketSent, StatusCompleted, StatusAborted},
	StatusOptedOut:         nil,
	StatusCompleted:        nil,
	StatusAborted:          nil,
}

// ParseStatus normalizes s and reports whether it names a known status.
func ParseStatus(s string) (SessionStatus, bool) {
	st := SessionStatus(strings.ToLower(strings.TrimSpace(s)))
	_, ok := transitions[st]
	return st, ok
}

func (s SessionStatus) String() string { return string(s) }

// IsTerminal reports whether no further transition is possible.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case StatusOptedOut, StatusCompleted, StatusAborted:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to SessionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusIn reports whether s is one of allowed.
func StatusIn(s SessionStatus, allowed ...SessionStatus) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// Statuses a caller may act on per operation. A pipeline start also resumes
// ingested and generated sessions where a failed run stopped.
var (
	CorrectionStatuses    = []SessionStatus{StatusPacketSent, StatusFeedbackReceived}
	DeliverableStatuses   = []SessionStatus{StatusGenerated, StatusReady, StatusUpdated}
	BriefUpdateStatuses   = []SessionStatus{StatusFeedbackReceived, StatusUpdated}
	SynthesisStatuses     = []SessionStatus{StatusReady, StatusPacketSent, StatusFeedbackReceived, StatusUpdated}
	PipelineStartStatuses = []SessionStatus{StatusCreated, StatusIngested, StatusGenerated, StatusQualityFailed}
)

package briefrun

const (
	WorkflowName         = "brief_run"
	ActivityStatus       = "brief_run_status"
	ActivityIngest       = "brief_run_ingest"
	ActivityGenerate     = "brief_run_generate"
	ActivityQualityCheck = "brief_run_quality_check"
)

// WorkflowID is the per-session workflow id; Temporal rejects a second start
// while one is running.
func WorkflowID(sessionID string) string {
	return "brief-" + sessionID
}

type Input struct {
	SessionID   string `json:"session_id"`
	MaxAttempts int    `json:"max_attempts"`
}

// SessionState is what a run needs to know to resume a session.
type SessionState struct {
	Status  string `json:"status"`
	Version int    `json:"version"`
	// Issues are the findings of the last quality gate.
	Issues []string `json:"issues,omitempty"`
}

type GenerateInput struct {
	SessionID string   `json:"session_id"`
	Feedback  []string `json:"feedback,omitempty"`
}

type QualityResult struct {
	Passed bool     `json:"passed"`
	Score  int      `json:"score"`
	Issues []string `json:"issues,omitempty"`
}

type Result struct {
	SessionID string   `json:"session_id"`
	Version   int      `json:"version"`
	Attempts  int      `json:"attempts"`
	Passed    bool     `json:"passed"`
	Score     int      `json:"score"`
	Issues    []string `json:"issues,omitempty"`
}

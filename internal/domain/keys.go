package domain

import "fmt"

// Blob key builders. Every artifact lives under a session-scoped prefix.

func ProfileKey(sessionID string, version int) string {
	return fmt.Sprintf("briefs/%s/%s/company_profile.json", sessionID, VersionLabel(version))
}

func QuestionsKey(sessionID string, version int) string {
	return fmt.Sprintf("briefs/%s/%s/questions.json", sessionID, VersionLabel(version))
}

func BriefKey(sessionID string, version int) string {
	return fmt.Sprintf("briefs/%s/%s/interviewer_brief.json", sessionID, VersionLabel(version))
}

func PacketKey(sessionID string) string {
	return fmt.Sprintf("packets/%s/interviewee_packet.json", sessionID)
}

func ChunksKey(sessionID string) string {
	return fmt.Sprintf("extracted/%s/chunks.json", sessionID)
}

func DocumentTextKey(sessionID string) string {
	return fmt.Sprintf("extracted/%s/document_text.txt", sessionID)
}

func NotesKey(sessionID string) string {
	return fmt.Sprintf("notes/%s/interview_notes.json", sessionID)
}

func SynthesisKey(sessionID string, version int) string {
	return fmt.Sprintf("synthesis/%s/%s/synthesis.json", sessionID, VersionLabel(version))
}

func UploadKey(interviewerID, sessionID string) string {
	return fmt.Sprintf("uploads/%s/%s/document.pdf", interviewerID, sessionID)
}

// ConsentRef is the audit reference for a consent record.
func ConsentRef(email string) string {
	return "CONSENT#" + email
}

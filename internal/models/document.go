package models

import "time"

// Document status values. A document stays pending until its approval
// workflow finalizes it; approved/rejected are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Decision values carried by reviewer signals and final results.
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// AI suggestion values.
const (
	SuggestionApprove = "approve"
	SuggestionReject  = "reject"
)

// ReviewedBySystemTimeout is the reviewer identity recorded when the
// 24-hour review window expires and the AI suggestion is applied.
const ReviewedBySystemTimeout = "system_timeout"

// Document represents an uploaded document and its approval metadata
type Document struct {
	ID            string     `json:"id"`
	Filename      string     `json:"filename"`
	ContentType   string     `json:"content_type"`
	FileSize      int64      `json:"file_size"`
	FilePath      string     `json:"file_path"`
	Status        string     `json:"status"`
	AISuggestion  string     `json:"ai_suggestion,omitempty"`
	AIConfidence  float64    `json:"ai_confidence,omitempty"`
	AIReasoning   string     `json:"ai_reasoning,omitempty"`
	ReviewerNotes string     `json:"reviewer_notes,omitempty"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	WorkflowID    string     `json:"workflow_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsFinalized reports whether the document has reached a terminal status
func (d *Document) IsFinalized() bool {
	return d.Status == StatusApproved || d.Status == StatusRejected
}

// AIAnalysisResult is the classifier output for a single document.
// Immutable once produced; recorded on the document before the review
// window opens.
type AIAnalysisResult struct {
	Suggestion string  `json:"suggestion"` // "approve" or "reject"
	Confidence float64 `json:"confidence"` // 0-1
	Reasoning  string  `json:"reasoning"`
}

// DecisionToStatus maps a decision value onto a terminal document
// status. Reviewer signals carry "approved"/"rejected" while the timeout
// path carries the raw AI suggestion ("approve"/"reject"); both map to
// the same statuses.
func DecisionToStatus(decision string) (string, bool) {
	switch decision {
	case DecisionApproved, SuggestionApprove:
		return StatusApproved, true
	case DecisionRejected, SuggestionReject:
		return StatusRejected, true
	default:
		return "", false
	}
}

// ApprovalResult is the terminal outcome of one approval workflow. It is
// produced either from the first reviewer decision signal or synthesized
// from the AI suggestion on timeout, never both.
type ApprovalResult struct {
	Decision      string `json:"decision"` // "approved" or "rejected"
	ReviewerNotes string `json:"reviewer_notes"`
	ReviewedBy    string `json:"reviewed_by"`
}

// ApprovalStatus is the query view of a running (or completed) approval
// workflow. Decision is nil until a decision has been latched.
type ApprovalStatus struct {
	HasDecision bool    `json:"has_decision"`
	Decision    *string `json:"decision"`
}

// ValidDecision reports whether v is an accepted decision value
func ValidDecision(v string) bool {
	return v == DecisionApproved || v == DecisionRejected
}

// ValidSuggestion reports whether v is an accepted AI suggestion value
func ValidSuggestion(v string) bool {
	return v == SuggestionApprove || v == SuggestionReject
}

// ValidStatus reports whether v is a known document status
func ValidStatus(v string) bool {
	return v == StatusPending || v == StatusApproved || v == StatusRejected
}

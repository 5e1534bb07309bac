// Package workflow implements the durable document approval process as a
// Temporal workflow: classify, wait for a reviewer decision or a timeout,
// finalize. One workflow instance runs per uploaded document.
package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/docflow/docflow/internal/models"
)

// Signal and query names addressable on a running approval workflow.
const (
	SignalDecision = "approval-decision"
	QueryStatus    = "approval-status"
	QueryState     = "approval-state"
)

// DecisionTimeout is how long the workflow waits for a reviewer before
// applying the AI suggestion automatically.
const DecisionTimeout = 24 * time.Hour

// ErrTypeDocumentNotFound marks activity errors that retrying cannot fix
const ErrTypeDocumentNotFound = "DocumentNotFound"

// workflowIDPrefix binds workflow IDs deterministically to document IDs
// so signals and queries can address an instance by document ID alone.
const workflowIDPrefix = "document-approval-"

// WorkflowID returns the workflow ID bound to the given document
func WorkflowID(documentID string) string {
	return workflowIDPrefix + documentID
}

// State identifies the phase an approval workflow is in
type State string

// Workflow states, in order of progression.
const (
	StateClassifying      State = "CLASSIFYING"
	StateAwaitingDecision State = "AWAITING_DECISION"
	StateFinalizing       State = "FINALIZING"
	StateDone             State = "DONE"
)

// DecisionSignal is the payload of an approval-decision signal
type DecisionSignal struct {
	Decision      string `json:"decision"` // "approved" or "rejected"
	ReviewerNotes string `json:"reviewer_notes"`
	ReviewedBy    string `json:"reviewed_by"`
}

// DocumentApproval runs the approval process for a single document.
//
// The reviewer decision is a one-shot latch: a drain goroutine receives
// decision signals for the entire workflow lifetime and only the first
// valid signal is kept. Signals arriving before classification completes
// are latched but have no effect until the wait point; invalid or
// duplicate signals are logged and dropped. If no decision arrives
// within DecisionTimeout the AI suggestion is applied with the
// system_timeout reviewer identity.
func DocumentApproval(ctx workflow.Context, documentID string) (*models.ApprovalResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting document approval workflow", "document_id", documentID)

	state := StateClassifying
	var decision *models.ApprovalResult

	err := workflow.SetQueryHandler(ctx, QueryStatus, func() (models.ApprovalStatus, error) {
		status := models.ApprovalStatus{HasDecision: decision != nil}
		if decision != nil {
			d := decision.Decision
			status.Decision = &d
		}
		return status, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register status query handler: %w", err)
	}

	err = workflow.SetQueryHandler(ctx, QueryState, func() (string, error) {
		return string(state), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register state query handler: %w", err)
	}

	signalCh := workflow.GetSignalChannel(ctx, SignalDecision)
	workflow.Go(ctx, func(gctx workflow.Context) {
		for {
			var sig DecisionSignal
			if more := signalCh.Receive(gctx, &sig); !more {
				return
			}
			if !models.ValidDecision(sig.Decision) {
				logger.Warn("Rejecting invalid decision signal",
					"document_id", documentID,
					"decision", sig.Decision,
					"reviewed_by", sig.ReviewedBy)
				continue
			}
			if decision != nil {
				logger.Info("Ignoring decision signal, decision already latched",
					"document_id", documentID,
					"decision", sig.Decision,
					"reviewed_by", sig.ReviewedBy)
				continue
			}
			decision = &models.ApprovalResult{
				Decision:      sig.Decision,
				ReviewerNotes: sig.ReviewerNotes,
				ReviewedBy:    sig.ReviewedBy,
			}
			logger.Info("Reviewer decision latched",
				"document_id", documentID,
				"decision", sig.Decision,
				"reviewed_by", sig.ReviewedBy)
		}
	})

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{ErrTypeDocumentNotFound},
		},
	})

	var a *Activities

	var aiResult models.AIAnalysisResult
	if err := workflow.ExecuteActivity(ctx, a.AnalyzeDocument, documentID).Get(ctx, &aiResult); err != nil {
		return nil, fmt.Errorf("document analysis failed: %w", err)
	}

	logger.Info("AI analysis complete",
		"document_id", documentID,
		"suggestion", aiResult.Suggestion,
		"confidence", aiResult.Confidence)

	// The suggestion must be durably persisted before the review window
	// opens, so status queries never observe a reviewable document
	// without its AI suggestion.
	if err := workflow.ExecuteActivity(ctx, a.PersistSuggestion, documentID, aiResult).Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to persist AI suggestion: %w", err)
	}

	state = StateAwaitingDecision
	logger.Info("Waiting for reviewer decision",
		"document_id", documentID,
		"timeout", DecisionTimeout.String())

	decided, err := workflow.AwaitWithTimeout(ctx, DecisionTimeout, func() bool {
		return decision != nil
	})
	if err != nil {
		return nil, fmt.Errorf("decision wait interrupted: %w", err)
	}

	if !decided {
		logger.Warn("Review window expired, applying AI suggestion",
			"document_id", documentID,
			"suggestion", aiResult.Suggestion)
		decision = &models.ApprovalResult{
			Decision: aiResult.Suggestion,
			ReviewerNotes: fmt.Sprintf(
				"Auto-decided based on AI suggestion (confidence: %v). %s",
				aiResult.Confidence, aiResult.Reasoning),
			ReviewedBy: models.ReviewedBySystemTimeout,
		}
	}

	state = StateFinalizing
	if err := workflow.ExecuteActivity(ctx, a.FinalizeDecision, documentID, *decision).Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to finalize decision: %w", err)
	}

	state = StateDone
	logger.Info("Approval workflow complete",
		"document_id", documentID,
		"decision", decision.Decision,
		"reviewed_by", decision.ReviewedBy)

	return decision, nil
}

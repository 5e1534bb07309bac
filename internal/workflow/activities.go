package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/ai"
	"github.com/docflow/docflow/internal/models"
	"github.com/docflow/docflow/internal/repository"
)

// Activities are the side-effecting steps of the approval workflow. The
// Temporal worker retries them per the workflow's retry policy, so each
// is idempotent with respect to its final effect on the document.
type Activities struct {
	repo      *repository.DocumentRepository
	analyzer  ai.Analyzer
	extractor *ai.PDFTextExtractor
	logger    *zap.Logger
}

// NewActivities creates the activity set used by DocumentApproval
func NewActivities(repo *repository.DocumentRepository, analyzer ai.Analyzer, extractor *ai.PDFTextExtractor, logger *zap.Logger) *Activities {
	return &Activities{
		repo:      repo,
		analyzer:  analyzer,
		extractor: extractor,
		logger:    logger,
	}
}

// AnalyzeDocument runs the AI classifier over the document. Pure with
// respect to the document record; nothing is written.
func (a *Activities) AnalyzeDocument(ctx context.Context, documentID string) (*models.AIAnalysisResult, error) {
	a.logger.Info("Analyzing document", zap.String("document_id", documentID))

	doc, err := a.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, a.mapRepoError(err, documentID)
	}

	text, err := a.extractor.ExtractText(doc.FilePath)
	if err != nil {
		// Metadata-only analysis still produces a usable suggestion.
		a.logger.Warn("Text extraction failed, analyzing metadata only",
			zap.String("document_id", documentID),
			zap.Error(err))
		text = ""
	}

	result, err := a.analyzer.Analyze(ctx, doc, text)
	if err != nil {
		return nil, fmt.Errorf("document analysis failed: %w", err)
	}

	a.logger.Info("Document analyzed",
		zap.String("document_id", documentID),
		zap.String("suggestion", result.Suggestion),
		zap.Float64("confidence", result.Confidence))

	return result, nil
}

// PersistSuggestion records the AI suggestion on the document. Never
// touches the document status.
func (a *Activities) PersistSuggestion(ctx context.Context, documentID string, result models.AIAnalysisResult) error {
	a.logger.Info("Persisting AI suggestion",
		zap.String("document_id", documentID),
		zap.String("suggestion", result.Suggestion))

	if err := a.repo.UpdateAISuggestion(ctx, documentID, &result); err != nil {
		return a.mapRepoError(err, documentID)
	}
	return nil
}

// FinalizeDecision writes the final decision fields and transitions the
// document to its terminal status in one atomic update.
func (a *Activities) FinalizeDecision(ctx context.Context, documentID string, result models.ApprovalResult) error {
	a.logger.Info("Finalizing document decision",
		zap.String("document_id", documentID),
		zap.String("decision", result.Decision),
		zap.String("reviewed_by", result.ReviewedBy))

	status, ok := models.DecisionToStatus(result.Decision)
	if !ok {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("invalid decision value: %s", result.Decision),
			"InvalidDecision", nil)
	}

	if err := a.repo.Finalize(ctx, documentID, status, result.ReviewerNotes, result.ReviewedBy, time.Now().UTC()); err != nil {
		return a.mapRepoError(err, documentID)
	}

	a.logger.Info("Document finalized",
		zap.String("document_id", documentID),
		zap.String("status", status))
	return nil
}

// mapRepoError converts a missing-document error into a non-retryable
// activity failure; everything else stays retryable.
func (a *Activities) mapRepoError(err error, documentID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("document not found: %s", documentID),
			ErrTypeDocumentNotFound, err)
	}
	return err
}

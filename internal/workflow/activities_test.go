package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/ai"
	"github.com/docflow/docflow/internal/models"
	"github.com/docflow/docflow/internal/repository"
	"github.com/docflow/docflow/pkg/database"
)

func newTestActivities(t *testing.T) (*Activities, *repository.DocumentRepository) {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations("../../migrations"))

	repo := repository.NewDocumentRepository(db.DB, logger)
	a := NewActivities(repo, ai.NewHeuristicAnalyzer(logger), ai.NewPDFTextExtractor(logger), logger)
	return a, repo
}

func createDocument(t *testing.T, repo *repository.DocumentRepository, id, filename string) *models.Document {
	t.Helper()

	path := filepath.Join(t.TempDir(), id+"_"+filename)
	require.NoError(t, os.WriteFile(path, []byte("document body"), 0644))

	doc := &models.Document{
		ID:          id,
		Filename:    filename,
		ContentType: "application/octet-stream",
		FileSize:    13,
		FilePath:    path,
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	return doc
}

func TestAnalyzeDocument(t *testing.T) {
	a, repo := newTestActivities(t)
	createDocument(t, repo, "doc-1", "contract.txt")

	result, err := a.AnalyzeDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.SuggestionApprove, result.Suggestion)
	require.NotEmpty(t, result.Reasoning)

	// Analysis is read-only.
	doc, err := repo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, doc.Status)
	require.Empty(t, doc.AISuggestion)
}

func TestAnalyzeDocumentNotFound(t *testing.T) {
	a, _ := newTestActivities(t)

	_, err := a.AnalyzeDocument(context.Background(), "missing")
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, ErrTypeDocumentNotFound, appErr.Type())
	require.True(t, appErr.NonRetryable())
}

func TestPersistSuggestion(t *testing.T) {
	a, repo := newTestActivities(t)
	createDocument(t, repo, "doc-1", "contract.txt")

	err := a.PersistSuggestion(context.Background(), "doc-1", models.AIAnalysisResult{
		Suggestion: models.SuggestionReject,
		Confidence: 0.95,
		Reasoning:  "flagged pattern",
	})
	require.NoError(t, err)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.SuggestionReject, doc.AISuggestion)
	require.InDelta(t, 0.95, doc.AIConfidence, 1e-9)
	require.Equal(t, models.StatusPending, doc.Status)
}

func TestFinalizeDecisionFromReviewerSignal(t *testing.T) {
	a, repo := newTestActivities(t)
	createDocument(t, repo, "doc-1", "contract.txt")

	err := a.FinalizeDecision(context.Background(), "doc-1", models.ApprovalResult{
		Decision:      models.DecisionApproved,
		ReviewerNotes: "looks fine",
		ReviewedBy:    "alice",
	})
	require.NoError(t, err)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, doc.Status)
	require.Equal(t, "alice", doc.ReviewedBy)
	require.NotNil(t, doc.ReviewedAt)
}

func TestFinalizeDecisionFromTimeoutSuggestion(t *testing.T) {
	a, repo := newTestActivities(t)
	createDocument(t, repo, "doc-1", "contract.txt")

	// The timeout path carries the raw AI suggestion vocabulary.
	err := a.FinalizeDecision(context.Background(), "doc-1", models.ApprovalResult{
		Decision:      models.SuggestionApprove,
		ReviewerNotes: "Auto-decided based on AI suggestion (confidence: 0.9).",
		ReviewedBy:    models.ReviewedBySystemTimeout,
	})
	require.NoError(t, err)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, doc.Status)
	require.Equal(t, models.ReviewedBySystemTimeout, doc.ReviewedBy)
}

func TestFinalizeDecisionInvalidValue(t *testing.T) {
	a, repo := newTestActivities(t)
	createDocument(t, repo, "doc-1", "contract.txt")

	err := a.FinalizeDecision(context.Background(), "doc-1", models.ApprovalResult{
		Decision:   "maybe",
		ReviewedBy: "alice",
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "InvalidDecision", appErr.Type())
	require.True(t, appErr.NonRetryable())

	// The document is untouched.
	doc, err := repo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, doc.Status)
}

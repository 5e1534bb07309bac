package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/models"
	"github.com/docflow/docflow/pkg/database"
)

func newTestRepo(t *testing.T) *DocumentRepository {
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

	return NewDocumentRepository(db.DB, logger)
}

func newTestDocument(id string) *models.Document {
	return &models.Document{
		ID:          id,
		Filename:    "contract.pdf",
		ContentType: "application/pdf",
		FileSize:    1024,
		FilePath:    "/tmp/uploads/" + id + "_contract.pdf",
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := newTestDocument("doc-1")
	require.NoError(t, repo.Create(ctx, doc))

	require.Equal(t, models.StatusPending, doc.Status)
	require.False(t, doc.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, "doc-1", got.ID)
	require.Equal(t, "contract.pdf", got.Filename)
	require.Equal(t, models.StatusPending, got.Status)
	require.Empty(t, got.AISuggestion)
	require.Nil(t, got.ReviewedAt)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetWorkflowID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := newTestDocument("doc-1")
	require.NoError(t, repo.Create(ctx, doc))
	require.NoError(t, repo.SetWorkflowID(ctx, "doc-1", "document-approval-doc-1"))

	got, err := repo.GetByID(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, "document-approval-doc-1", got.WorkflowID)

	require.ErrorIs(t, repo.SetWorkflowID(ctx, "missing", "wf"), ErrNotFound)
}

func TestUpdateAISuggestionLeavesStatusPending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := newTestDocument("doc-1")
	require.NoError(t, repo.Create(ctx, doc))

	err := repo.UpdateAISuggestion(ctx, "doc-1", &models.AIAnalysisResult{
		Suggestion: models.SuggestionApprove,
		Confidence: 0.9,
		Reasoning:  "standard contract",
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, got.Status)
	require.Equal(t, models.SuggestionApprove, got.AISuggestion)
	require.InDelta(t, 0.9, got.AIConfidence, 1e-9)
	require.Equal(t, "standard contract", got.AIReasoning)

	err = repo.UpdateAISuggestion(ctx, "missing", &models.AIAnalysisResult{Suggestion: models.SuggestionReject})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFinalize(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := newTestDocument("doc-1")
	require.NoError(t, repo.Create(ctx, doc))

	reviewedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Finalize(ctx, "doc-1", models.StatusApproved, "looks fine", "alice", reviewedAt))

	got, err := repo.GetByID(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, got.Status)
	require.Equal(t, "looks fine", got.ReviewerNotes)
	require.Equal(t, "alice", got.ReviewedBy)
	require.NotNil(t, got.ReviewedAt)
	require.True(t, got.ReviewedAt.Equal(reviewedAt))
	require.True(t, got.IsFinalized())
}

func TestFinalizeIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := newTestDocument("doc-1")
	require.NoError(t, repo.Create(ctx, doc))

	reviewedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Finalize(ctx, "doc-1", models.StatusRejected, "flagged", "system_timeout", reviewedAt))
	require.NoError(t, repo.Finalize(ctx, "doc-1", models.StatusRejected, "flagged", "system_timeout", reviewedAt))

	got, err := repo.GetByID(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, got.Status)
	require.Equal(t, "system_timeout", got.ReviewedBy)
}

func TestFinalizeRejectsNonTerminalStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := newTestDocument("doc-1")
	require.NoError(t, repo.Create(ctx, doc))

	err := repo.Finalize(ctx, "doc-1", models.StatusPending, "", "alice", time.Now().UTC())
	require.Error(t, err)

	err = repo.Finalize(ctx, "missing", models.StatusApproved, "", "alice", time.Now().UTC())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	older := newTestDocument("doc-old")
	require.NoError(t, repo.Create(ctx, older))
	// Distinct created_at so the ordering is deterministic.
	time.Sleep(5 * time.Millisecond)
	newer := newTestDocument("doc-new")
	require.NoError(t, repo.Create(ctx, newer))

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "doc-new", docs[0].ID)
	require.Equal(t, "doc-old", docs[1].ID)
}

func TestListByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestDocument("doc-1")))
	require.NoError(t, repo.Create(ctx, newTestDocument("doc-2")))
	require.NoError(t, repo.Finalize(ctx, "doc-2", models.StatusApproved, "", "alice", time.Now().UTC()))

	pending, err := repo.ListByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "doc-1", pending[0].ID)

	approved, err := repo.ListByStatus(ctx, models.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, "doc-2", approved[0].ID)

	rejected, err := repo.ListByStatus(ctx, models.StatusRejected)
	require.NoError(t, err)
	require.Empty(t, rejected)
}

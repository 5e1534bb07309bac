package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/models"
)

// ErrNotFound is returned when no document exists for the given ID
var ErrNotFound = errors.New("document not found")

// DocumentRepository handles document database operations
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

const documentColumns = `
	id, filename, content_type, file_size, file_path, status,
	ai_suggestion, ai_confidence, ai_reasoning,
	reviewer_notes, reviewed_by, reviewed_at, workflow_id,
	created_at, updated_at`

// Create inserts a new document record with pending status
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	doc.Status = models.StatusPending
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, content_type, file_size, file_path, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.ContentType, doc.FileSize, doc.FilePath, doc.Status, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create document", zap.String("id", doc.ID), zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetByID retrieves a document by its ID. Returns ErrNotFound when no
// row exists.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT"+documentColumns+" FROM documents WHERE id = ?", id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// List retrieves all documents, newest first
func (r *DocumentRepository) List(ctx context.Context) ([]*models.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT"+documentColumns+" FROM documents ORDER BY created_at DESC")
	if err != nil {
		r.logger.Error("Failed to list documents", zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListByStatus retrieves documents with the given status, newest first
func (r *DocumentRepository) ListByStatus(ctx context.Context, status string) ([]*models.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT"+documentColumns+" FROM documents WHERE status = ? ORDER BY created_at DESC", status)
	if err != nil {
		r.logger.Error("Failed to list documents by status",
			zap.String("status", status), zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// SetWorkflowID records the approval workflow bound to the document
func (r *DocumentRepository) SetWorkflowID(ctx context.Context, id, workflowID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE documents SET workflow_id = ?, updated_at = ? WHERE id = ?
	`, workflowID, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to set workflow ID", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to set workflow ID: %w", err)
	}
	return r.requireRow(result, id)
}

// UpdateAISuggestion records the classifier output on the document.
// Status is deliberately untouched; only Finalize transitions it.
func (r *DocumentRepository) UpdateAISuggestion(ctx context.Context, id string, ai *models.AIAnalysisResult) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE documents
		SET ai_suggestion = ?, ai_confidence = ?, ai_reasoning = ?, updated_at = ?
		WHERE id = ?
	`, ai.Suggestion, ai.Confidence, ai.Reasoning, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update AI suggestion", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update AI suggestion: %w", err)
	}
	return r.requireRow(result, id)
}

// Finalize writes the final decision fields and transitions the document
// status in a single atomic update. Safe to re-execute with the same
// arguments.
func (r *DocumentRepository) Finalize(ctx context.Context, id, status, notes, reviewedBy string, reviewedAt time.Time) error {
	if status != models.StatusApproved && status != models.StatusRejected {
		return fmt.Errorf("invalid final status: %s", status)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, reviewer_notes = ?, reviewed_by = ?, reviewed_at = ?, updated_at = ?
		WHERE id = ?
	`, status, notes, reviewedBy, reviewedAt, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to finalize document", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to finalize document: %w", err)
	}
	return r.requireRow(result, id)
}

func (r *DocumentRepository) requireRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var aiSuggestion, aiReasoning, reviewerNotes, reviewedBy, workflowID sql.NullString
	var aiConfidence sql.NullFloat64
	var reviewedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.ContentType,
		&doc.FileSize,
		&doc.FilePath,
		&doc.Status,
		&aiSuggestion,
		&aiConfidence,
		&aiReasoning,
		&reviewerNotes,
		&reviewedBy,
		&reviewedAt,
		&workflowID,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.AISuggestion = aiSuggestion.String
	doc.AIConfidence = aiConfidence.Float64
	doc.AIReasoning = aiReasoning.String
	doc.ReviewerNotes = reviewerNotes.String
	doc.ReviewedBy = reviewedBy.String
	doc.WorkflowID = workflowID.String
	if reviewedAt.Valid {
		doc.ReviewedAt = &reviewedAt.Time
	}

	return &doc, nil
}

func collectDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

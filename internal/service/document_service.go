// Package service coordinates the document store, file storage and the
// Temporal client behind the HTTP surface.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/models"
	"github.com/docflow/docflow/internal/notify"
	"github.com/docflow/docflow/internal/repository"
	"github.com/docflow/docflow/internal/storage"
	"github.com/docflow/docflow/internal/workflow"
)

// Service-level errors surfaced to the HTTP layer.
var (
	ErrInvalidDecision = errors.New("decision must be approved or rejected")
	ErrInvalidStatus   = errors.New("unknown document status")
	ErrNoWorkflow      = errors.New("document has no associated workflow")
)

// WorkflowClient is the slice of client.Client the service needs.
// Narrowed so tests can substitute a fake.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	SignalWorkflow(ctx context.Context, workflowID string, runID string, signalName string, arg interface{}) error
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

// Config holds service configuration
type Config struct {
	TaskQueue        string
	ExecutionTimeout time.Duration
}

// DocumentService owns document lifecycle operations: upload, decision
// signaling and status queries.
type DocumentService struct {
	repo     *repository.DocumentRepository
	storage  storage.FileStorage
	temporal WorkflowClient
	notifier notify.ReviewNotifier
	cfg      Config
	logger   *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	repo *repository.DocumentRepository,
	fileStorage storage.FileStorage,
	temporalClient WorkflowClient,
	notifier notify.ReviewNotifier,
	cfg Config,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		repo:     repo,
		storage:  fileStorage,
		temporal: temporalClient,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Upload stores the file, records the document and starts its approval
// workflow. The workflow ID is derived from the document ID so later
// signals and queries can address the instance without extra lookups.
func (s *DocumentService) Upload(ctx context.Context, filename, contentType string, content []byte) (*models.Document, error) {
	id := uuid.NewString()

	path, err := s.storage.SaveUpload(id, filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	doc := &models.Document{
		ID:          id,
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		FileSize:    int64(len(content)),
		FilePath:    path,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(path); delErr != nil {
			s.logger.Warn("Failed to clean up orphaned upload",
				zap.String("path", path), zap.Error(delErr))
		}
		return nil, err
	}

	workflowID := workflow.WorkflowID(id)
	run, err := s.temporal.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                s.cfg.TaskQueue,
		WorkflowExecutionTimeout: s.cfg.ExecutionTimeout,
	}, workflow.DocumentApproval, id)
	if err != nil {
		// The row stays pending without a workflow; that is an
		// operational alert condition, not a silent success.
		s.logger.Error("Failed to start approval workflow",
			zap.String("document_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to start approval workflow: %w", err)
	}

	if err := s.repo.SetWorkflowID(ctx, id, run.GetID()); err != nil {
		return nil, err
	}
	doc.WorkflowID = run.GetID()

	s.logger.Info("Document uploaded",
		zap.String("document_id", id),
		zap.String("workflow_id", doc.WorkflowID),
		zap.String("filename", doc.Filename))

	go s.notifyReviewers(doc)

	return doc, nil
}

// Decide signals the reviewer's decision to the document's workflow.
// Fire-and-forget with respect to workflow completion: the call returns
// once the signal is delivered.
func (s *DocumentService) Decide(ctx context.Context, id, decision, notes, reviewedBy string) (*models.Document, error) {
	if !models.ValidDecision(decision) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDecision, decision)
	}

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.WorkflowID == "" {
		return nil, ErrNoWorkflow
	}

	err = s.temporal.SignalWorkflow(ctx, doc.WorkflowID, "", workflow.SignalDecision, workflow.DecisionSignal{
		Decision:      decision,
		ReviewerNotes: notes,
		ReviewedBy:    reviewedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to signal workflow: %w", err)
	}

	s.logger.Info("Decision signal sent",
		zap.String("document_id", id),
		zap.String("decision", decision),
		zap.String("reviewed_by", reviewedBy))

	return doc, nil
}

// WorkflowStatus queries the document's workflow for its decision state
func (s *DocumentService) WorkflowStatus(ctx context.Context, id string) (*models.ApprovalStatus, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.WorkflowID == "" {
		return nil, ErrNoWorkflow
	}

	value, err := s.temporal.QueryWorkflow(ctx, doc.WorkflowID, "", workflow.QueryStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow: %w", err)
	}

	var status models.ApprovalStatus
	if err := value.Get(&status); err != nil {
		return nil, fmt.Errorf("failed to decode workflow status: %w", err)
	}
	return &status, nil
}

// Get returns a document by ID
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all documents, newest first
func (s *DocumentService) List(ctx context.Context) ([]*models.Document, error) {
	return s.repo.List(ctx)
}

// ListByStatus returns documents filtered by status
func (s *DocumentService) ListByStatus(ctx context.Context, status string) ([]*models.Document, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *DocumentService) notifyReviewers(doc *models.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.notifier.NotifyDocumentUploaded(ctx, doc); err != nil {
		s.logger.Warn("Reviewer notification failed",
			zap.String("document_id", doc.ID),
			zap.Error(err))
	}
}

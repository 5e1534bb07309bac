package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/models"
	"github.com/docflow/docflow/internal/report"
	"github.com/docflow/docflow/internal/repository"
	"github.com/docflow/docflow/internal/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	documents      *service.DocumentService
	exporter       *report.Exporter
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(documents *service.DocumentService, exporter *report.Exporter, maxUploadBytes int64, logger *zap.Logger) *Handlers {
	return &Handlers{
		documents:      documents,
		exporter:       exporter,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Response is the standard JSON envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// DecisionRequest is the body of approve/reject requests
type DecisionRequest struct {
	ReviewerNotes string `json:"reviewer_notes"`
	ReviewedBy    string `json:"reviewed_by" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"service":   "docflow",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// UploadDocument handles POST /api/documents/upload
func (h *Handlers) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing file field"})
		return
	}

	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Error:   fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxUploadBytes),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to read upload"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to read upload"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.documents.Upload(c.Request.Context(), fileHeader.Filename, contentType, content)
	if err != nil {
		h.logger.Error("Upload failed", zap.String("filename", fileHeader.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to upload document"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// ListDocuments handles GET /api/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve documents"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: docs})
}

// ListDocumentsByStatus handles GET /api/documents/status/:status
func (h *Handlers) ListDocumentsByStatus(c *gin.Context) {
	docs, err := h.documents.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
		h.logger.Error("Failed to list documents by status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve documents"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: docs})
}

// GetDocument handles GET /api/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to retrieve document")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// ApproveDocument handles POST /api/documents/:id/approve
func (h *Handlers) ApproveDocument(c *gin.Context) {
	h.decide(c, models.DecisionApproved)
}

// RejectDocument handles POST /api/documents/:id/reject
func (h *Handlers) RejectDocument(c *gin.Context) {
	h.decide(c, models.DecisionRejected)
}

func (h *Handlers) decide(c *gin.Context, decision string) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "reviewed_by is required"})
		return
	}

	doc, err := h.documents.Decide(c.Request.Context(), c.Param("id"), decision, req.ReviewerNotes, req.ReviewedBy)
	if err != nil {
		h.respondError(c, err, "failed to record decision")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// GetWorkflowStatus handles GET /api/documents/:id/workflow-status
func (h *Handlers) GetWorkflowStatus(c *gin.Context) {
	status, err := h.documents.WorkflowStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to query workflow status")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: status})
}

// DownloadReport handles GET /api/documents/report
func (h *Handlers) DownloadReport(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list documents for report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to build report"})
		return
	}

	f, err := h.exporter.BuildDecisionReport(docs)
	if err != nil {
		h.logger.Error("Failed to build decision report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to build report"})
		return
	}

	filename := fmt.Sprintf("decision-report-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("Failed to stream report", zap.Error(err))
	}
}

func (h *Handlers) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "document not found"})
	case errors.Is(err, service.ErrInvalidDecision), errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNoWorkflow):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: fallback})
	}
}

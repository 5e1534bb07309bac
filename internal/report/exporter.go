package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/models"
)

const sheetName = "Decisions"

var headers = []string{
	"Document ID", "Filename", "Status",
	"AI Suggestion", "AI Confidence", "AI Reasoning",
	"Reviewed By", "Reviewer Notes", "Reviewed At",
	"Uploaded At",
}

// Exporter builds Excel decision-audit reports
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new report exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// BuildDecisionReport renders the documents into an xlsx workbook
func (e *Exporter) BuildDecisionReport(docs []*models.Document) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		e.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell: %w", err)
		}
	}

	for i, doc := range docs {
		row := i + 2
		values := []interface{}{
			doc.ID,
			doc.Filename,
			doc.Status,
			doc.AISuggestion,
			doc.AIConfidence,
			doc.AIReasoning,
			doc.ReviewedBy,
			doc.ReviewerNotes,
			formatTime(doc.ReviewedAt),
			doc.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set cell value: %w", err)
			}
		}
	}

	e.logger.Info("Decision report built", zap.Int("documents", len(docs)))
	return f, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// PDFTextExtractor pulls plain text out of PDF documents so the analyzer
// can see content, not just metadata.
type PDFTextExtractor struct {
	logger *zap.Logger
}

// NewPDFTextExtractor creates a new PDF text extractor
func NewPDFTextExtractor(logger *zap.Logger) *PDFTextExtractor {
	return &PDFTextExtractor{logger: logger}
}

// ExtractText returns the concatenated text of all PDF pages. Non-PDF
// files yield an empty string without error; the analyzer falls back to
// metadata in that case.
func (e *PDFTextExtractor) ExtractText(path string) (string, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return "", nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("file not found: %s", path)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	pageCount := doc.NumPage()

	for page := 0; page < pageCount; page++ {
		text, err := doc.Text(page)
		if err != nil {
			e.logger.Warn("Failed to extract page text",
				zap.String("path", path),
				zap.Int("page", page),
				zap.Error(err))
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	e.logger.Debug("Extracted PDF text",
		zap.String("path", path),
		zap.Int("pages", pageCount),
		zap.Int("chars", b.Len()))

	return b.String(), nil
}

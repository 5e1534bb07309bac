package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/models"
)

func analyze(t *testing.T, filename string) *models.AIAnalysisResult {
	t.Helper()

	a := NewHeuristicAnalyzer(zap.NewNop())
	result, err := a.Analyze(context.Background(), &models.Document{
		ID:       "doc-1",
		Filename: filename,
	}, "")
	require.NoError(t, err)
	return result
}

func TestHeuristicAnalyzerApprovePatterns(t *testing.T) {
	for _, filename := range []string{
		"contract.pdf",
		"Service_Agreement.docx",
		"INVOICE-2024.pdf",
		"project proposal.pdf",
	} {
		result := analyze(t, filename)
		require.Equal(t, models.SuggestionApprove, result.Suggestion, filename)
		require.GreaterOrEqual(t, result.Confidence, 0.85, filename)
		require.LessOrEqual(t, result.Confidence, 0.95, filename)
		require.NotEmpty(t, result.Reasoning)
	}
}

func TestHeuristicAnalyzerRejectPatterns(t *testing.T) {
	for _, filename := range []string{
		"suspicious-doc.pdf",
		"fraud_report.pdf",
		"malware.exe",
		"virus-scan.pdf",
	} {
		result := analyze(t, filename)
		require.Equal(t, models.SuggestionReject, result.Suggestion, filename)
		require.GreaterOrEqual(t, result.Confidence, 0.90, filename)
		require.LessOrEqual(t, result.Confidence, 0.98, filename)
	}
}

func TestHeuristicAnalyzerUnknownFilename(t *testing.T) {
	result := analyze(t, "notes.txt")
	require.True(t, models.ValidSuggestion(result.Suggestion))
	require.GreaterOrEqual(t, result.Confidence, 0.60)
	require.LessOrEqual(t, result.Confidence, 0.75)
}

func TestHeuristicAnalyzerApprovePatternsTakePrecedence(t *testing.T) {
	// Approve patterns are matched first, so an approve keyword wins
	// even when a reject keyword is also present.
	result := analyze(t, "contract-suspicious.pdf")
	require.Equal(t, models.SuggestionApprove, result.Suggestion)
}

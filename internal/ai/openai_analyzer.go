package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/models"
)

// maxExcerptLen bounds how much extracted text is sent to the model
const maxExcerptLen = 6000

// OpenAIAnalyzer implements Analyzer using the OpenAI chat API
type OpenAIAnalyzer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewOpenAIAnalyzer creates a new OpenAI-backed analyzer
func NewOpenAIAnalyzer(apiKey, model string, temperature float32, maxTokens int, timeout time.Duration, logger *zap.Logger) *OpenAIAnalyzer {
	clientConfig := openai.DefaultConfig(apiKey)
	if timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &OpenAIAnalyzer{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

type analysisResponse struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Analyze asks the model for an approve/reject suggestion
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, doc *models.Document, text string) (*models.AIAnalysisResult, error) {
	a.logger.Debug("Analyzing document with OpenAI",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are a document compliance reviewer. Decide whether an uploaded " +
					"business document should be approved or rejected. Always respond with valid JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: a.buildPrompt(doc, text),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		a.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		a.logger.Error("Failed to parse OpenAI response",
			zap.Error(err),
			zap.String("content", content))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	parsed.Suggestion = strings.ToLower(strings.TrimSpace(parsed.Suggestion))
	if !models.ValidSuggestion(parsed.Suggestion) {
		return nil, fmt.Errorf("invalid suggestion from model: %q", parsed.Suggestion)
	}
	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}

	a.logger.Info("AI analysis complete",
		zap.String("document_id", doc.ID),
		zap.String("suggestion", parsed.Suggestion),
		zap.Float64("confidence", parsed.Confidence))

	return &models.AIAnalysisResult{
		Suggestion: parsed.Suggestion,
		Confidence: parsed.Confidence,
		Reasoning:  parsed.Reasoning,
	}, nil
}

func (a *OpenAIAnalyzer) buildPrompt(doc *models.Document, text string) string {
	excerpt := text
	if len(excerpt) > maxExcerptLen {
		excerpt = excerpt[:maxExcerptLen]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Review the following document and decide whether to approve or reject it.\n\n")
	fmt.Fprintf(&b, "Filename: %s\n", doc.Filename)
	fmt.Fprintf(&b, "Content type: %s\n", doc.ContentType)
	fmt.Fprintf(&b, "Size: %d bytes\n", doc.FileSize)
	if excerpt != "" {
		fmt.Fprintf(&b, "\nExtracted content (may be truncated):\n%s\n", excerpt)
	} else {
		b.WriteString("\nNo text content could be extracted; judge by metadata only.\n")
	}
	b.WriteString(`
Return a JSON object with this exact structure:
{
  "suggestion": "approve" or "reject",
  "confidence": number between 0 and 1,
  "reasoning": "one or two sentences explaining the suggestion"
}`)
	return b.String()
}

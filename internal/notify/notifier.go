package notify

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/models"
)

// ReviewNotifier tells reviewers about documents entering the approval
// process. Notification failures never fail an upload.
type ReviewNotifier interface {
	NotifyDocumentUploaded(ctx context.Context, doc *models.Document) error
}

// NoopNotifier is used when no messaging backend is configured
type NoopNotifier struct{}

// NotifyDocumentUploaded does nothing
func (NoopNotifier) NotifyDocumentUploaded(ctx context.Context, doc *models.Document) error {
	return nil
}

// LarkNotifier sends review notifications to a Lark group chat
type LarkNotifier struct {
	client *lark.Client
	chatID string
	logger *zap.Logger
}

// NewLarkNotifier creates a notifier posting to the given chat
func NewLarkNotifier(appID, appSecret, chatID string, logger *zap.Logger) *LarkNotifier {
	return &LarkNotifier{
		client: lark.NewClient(appID, appSecret, lark.WithEnableTokenCache(true)),
		chatID: chatID,
		logger: logger,
	}
}

// NotifyDocumentUploaded posts a text message announcing the document
func (n *LarkNotifier) NotifyDocumentUploaded(ctx context.Context, doc *models.Document) error {
	text := fmt.Sprintf("Document %q (%s) uploaded and awaiting review. It will be auto-decided if nobody acts within 24 hours.",
		doc.Filename, doc.ID)

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send review notification",
			zap.String("document_id", doc.ID),
			zap.Error(err))
		return fmt.Errorf("failed to send notification: %w", err)
	}

	if !resp.Success() {
		n.logger.Error("Lark API returned failure",
			zap.String("document_id", doc.ID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("lark API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	n.logger.Info("Review notification sent",
		zap.String("document_id", doc.ID),
		zap.String("chat_id", n.chatID))
	return nil
}

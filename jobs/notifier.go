package jobs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// QueueNotifier implements shared.Notifier by enqueueing notification tasks.
// Enqueue failures are logged and swallowed so a transition is never blocked
// on the queue.
type QueueNotifier struct {
	client *Client
	logger *slog.Logger
}

func NewQueueNotifier(client *Client, logger *slog.Logger) *QueueNotifier {
	return &QueueNotifier{client: client, logger: logger}
}

func (n *QueueNotifier) OnStateReached(ctx context.Context, doc shared.DocumentType, docID int64, newState string) {
	payload := NotifyStatePayload{
		EventID:    uuid.NewString(),
		Document:   string(doc),
		DocumentID: docID,
		State:      newState,
	}
	if _, err := n.client.EnqueueNotifyState(ctx, payload); err != nil {
		n.logger.Warn("enqueue state notification",
			slog.String("document", payload.Document),
			slog.Int64("document_id", docID),
			slog.Any("error", err))
	}
}

// QueueRenderer implements shared.Renderer by enqueueing render tasks. The
// returned handle identifies the queued task.
type QueueRenderer struct {
	client *Client
	logger *slog.Logger
}

func NewQueueRenderer(client *Client, logger *slog.Logger) *QueueRenderer {
	return &QueueRenderer{client: client, logger: logger}
}

func (r *QueueRenderer) RequestDocument(ctx context.Context, doc shared.DocumentType, docID int64) (string, error) {
	payload := RenderDocumentPayload{
		EventID:    uuid.NewString(),
		Document:   string(doc),
		DocumentID: docID,
	}
	info, err := r.client.EnqueueRenderDocument(ctx, payload)
	if err != nil {
		return "", err
	}
	return "task://" + info.ID, nil
}

package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/queenscorner/queenscorner-erp/internal/jobs"
)

// MessageSender delivers client notifications through an external gateway
// (SMS, WhatsApp). Implementations decide the channel per document state.
type MessageSender interface {
	Send(ctx context.Context, document string, documentID int64, state string) error
}

// DocumentComposer builds printable HTML for a document.
type DocumentComposer interface {
	Compose(ctx context.Context, document string, documentID int64) (string, error)
}

// PDFRenderer turns HTML into a PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PDFStore persists a rendered document.
type PDFStore interface {
	Save(ctx context.Context, document string, documentID int64, pdf []byte) (string, error)
}

// Processor owns the task handlers run by the worker.
type Processor struct {
	logger   *slog.Logger
	sender   MessageSender
	composer DocumentComposer
	renderer PDFRenderer
	store    PDFStore
	metrics  *jobmetrics.Metrics
}

func NewProcessor(logger *slog.Logger, sender MessageSender, composer DocumentComposer, renderer PDFRenderer, store PDFStore) *Processor {
	return &Processor{
		logger:   logger,
		sender:   sender,
		composer: composer,
		renderer: renderer,
		store:    store,
		metrics:  jobmetrics.NewMetrics(nil),
	}
}

// Handlers returns the task registrations for the worker mux.
func (p *Processor) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskTypeNotifyState, Handler: p.handleNotifyState},
		{Type: TaskTypeRenderDocument, Handler: p.handleRenderDocument},
	}
}

func (p *Processor) handleNotifyState(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track("notify_state")
	var payload NotifyStatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	if err := p.sender.Send(ctx, payload.Document, payload.DocumentID, payload.State); err != nil {
		p.logger.Warn("send state notification",
			slog.String("event_id", payload.EventID),
			slog.String("document", payload.Document),
			slog.Any("error", err))
		return tracker.End(err)
	}
	p.logger.Info("state notification sent",
		slog.String("event_id", payload.EventID),
		slog.String("document", payload.Document),
		slog.Int64("document_id", payload.DocumentID),
		slog.String("state", payload.State))
	return tracker.End(nil)
}

func (p *Processor) handleRenderDocument(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track("render_document")
	var payload RenderDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	html, err := p.composer.Compose(ctx, payload.Document, payload.DocumentID)
	if err != nil {
		return tracker.End(err)
	}
	pdf, err := p.renderer.RenderHTML(ctx, html)
	if err != nil {
		return tracker.End(err)
	}
	location, err := p.store.Save(ctx, payload.Document, payload.DocumentID, pdf)
	if err != nil {
		return tracker.End(err)
	}
	p.logger.Info("document rendered",
		slog.String("event_id", payload.EventID),
		slog.String("document", payload.Document),
		slog.Int64("document_id", payload.DocumentID),
		slog.String("location", location))
	return tracker.End(nil)
}

// LogSender is a MessageSender that only records the delivery. Used until a
// messaging gateway is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, document string, documentID int64, state string) error {
	s.logger.Info("client notification",
		slog.String("document", document),
		slog.Int64("document_id", documentID),
		slog.String("state", state))
	return nil
}

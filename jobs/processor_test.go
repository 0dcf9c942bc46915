package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, document string, documentID int64, state string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, document+"/"+state)
	return nil
}

type fakeComposer struct{}

func (fakeComposer) Compose(_ context.Context, document string, _ int64) (string, error) {
	return "<html><body>" + document + "</body></html>", nil
}

type fakeRenderer struct{ rendered int }

func (f *fakeRenderer) RenderHTML(_ context.Context, _ string) ([]byte, error) {
	f.rendered++
	return []byte("%PDF-1.7"), nil
}

type fakeStore struct{ saved []string }

func (f *fakeStore) Save(_ context.Context, document string, _ int64, _ []byte) (string, error) {
	f.saved = append(f.saved, document)
	return "file:///tmp/doc.pdf", nil
}

func newProcessor(sender *fakeSender, renderer *fakeRenderer, store *fakeStore) *Processor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProcessor(logger, sender, fakeComposer{}, renderer, store)
}

func handlerFor(t *testing.T, p *Processor, taskType string) asynq.HandlerFunc {
	t.Helper()
	for _, h := range p.Handlers() {
		if h.Type == taskType {
			return h.Handler
		}
	}
	t.Fatalf("no handler for %s", taskType)
	return nil
}

func TestHandleNotifyState(t *testing.T) {
	sender := &fakeSender{}
	p := newProcessor(sender, &fakeRenderer{}, &fakeStore{})
	handle := handlerFor(t, p, TaskTypeNotifyState)

	task, err := NewNotifyStateTask(NotifyStatePayload{
		EventID:    "evt-1",
		Document:   "FACTURA",
		DocumentID: 9,
		State:      "ENVIADA",
	})
	require.NoError(t, err)

	require.NoError(t, handle(context.Background(), task))
	assert.Equal(t, []string{"FACTURA/ENVIADA"}, sender.sent)
}

func TestHandleNotifyStateSkipsMalformedPayload(t *testing.T) {
	p := newProcessor(&fakeSender{}, &fakeRenderer{}, &fakeStore{})
	handle := handlerFor(t, p, TaskTypeNotifyState)

	err := handle(context.Background(), asynq.NewTask(TaskTypeNotifyState, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleNotifyStateRetriesOnSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("gateway down")}
	p := newProcessor(sender, &fakeRenderer{}, &fakeStore{})
	handle := handlerFor(t, p, TaskTypeNotifyState)

	task, err := NewNotifyStateTask(NotifyStatePayload{EventID: "evt-2", Document: "COTIZACION", DocumentID: 1, State: "ENVIADA"})
	require.NoError(t, err)

	err = handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRenderDocument(t *testing.T) {
	renderer := &fakeRenderer{}
	store := &fakeStore{}
	p := newProcessor(&fakeSender{}, renderer, store)
	handle := handlerFor(t, p, TaskTypeRenderDocument)

	task, err := NewRenderDocumentTask(RenderDocumentPayload{EventID: "evt-3", Document: "COTIZACION", DocumentID: 5})
	require.NoError(t, err)

	require.NoError(t, handle(context.Background(), task))
	assert.Equal(t, 1, renderer.rendered)
	assert.Equal(t, []string{"COTIZACION"}, store.saved)
}

func TestTaskPayloads(t *testing.T) {
	task, err := NewRenderDocumentTask(RenderDocumentPayload{EventID: "evt-4", Document: "FACTURA", DocumentID: 7})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeRenderDocument, task.Type())

	var payload RenderDocumentPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(7), payload.DocumentID)
}

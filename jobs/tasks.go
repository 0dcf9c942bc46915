package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifyState carries a client notification for a document that
	// reached a new lifecycle state.
	TaskTypeNotifyState = "notify:state"
	// TaskTypeRenderDocument asks the worker to produce a PDF for a document.
	TaskTypeRenderDocument = "render:document"
)

// NotifyStatePayload describes a state-reached notification.
type NotifyStatePayload struct {
	EventID    string `json:"event_id"`
	Document   string `json:"document"`
	DocumentID int64  `json:"document_id"`
	State      string `json:"state"`
}

// NewNotifyStateTask constructs an Asynq task.
func NewNotifyStateTask(payload NotifyStatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyState, data), nil
}

// RenderDocumentPayload describes a PDF generation request.
type RenderDocumentPayload struct {
	EventID    string `json:"event_id"`
	Document   string `json:"document"`
	DocumentID int64  `json:"document_id"`
}

// NewRenderDocumentTask constructs an Asynq task.
func NewRenderDocumentTask(payload RenderDocumentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRenderDocument, data), nil
}

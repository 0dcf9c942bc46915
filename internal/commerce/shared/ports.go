package shared

import "context"

// DocumentType identifies the commercial document kind in collaborator calls.
type DocumentType string

const (
	DocQuotation DocumentType = "COTIZACION"
	DocDeal      DocumentType = "NEGOCIO"
	DocWorkOrder DocumentType = "ORDEN_TRABAJO"
	DocInvoice   DocumentType = "FACTURA"
)

// Code prefixes per document type, formatted as <PREFIX>-<sequence>.
const (
	PrefixQuotation = "COT"
	PrefixDeal      = "NEG"
	PrefixWorkOrder = "OT"
	PrefixInvoice   = "FAC"
)

// Notifier receives state-reached events. Implementations are fire-and-forget;
// services log delivery failures and never fail the transition.
type Notifier interface {
	OnStateReached(ctx context.Context, doc DocumentType, docID int64, newState string)
}

// Renderer is asked to produce a printable document. The returned handle is an
// opaque URI; services do not block transitions on its completion.
type Renderer interface {
	RequestDocument(ctx context.Context, doc DocumentType, docID int64) (string, error)
}

// CodeGenerator assigns human codes like COT-000017.
type CodeGenerator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

// NopNotifier discards events. Used where a notifier is not wired.
type NopNotifier struct{}

func (NopNotifier) OnStateReached(context.Context, DocumentType, int64, string) {}

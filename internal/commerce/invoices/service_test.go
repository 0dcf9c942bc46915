package invoices

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/deals"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

type mockRepo struct {
	seq   int64
	store map[int64]Invoice
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[int64]Invoice)}
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := m.store[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	inv.Lines = cloneLines(inv.Lines)
	return &inv, nil
}

func (m *mockRepo) List(_ context.Context, _ ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.store {
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(_ context.Context, inv Invoice) (int64, error) {
	m.seq++
	inv.ID = m.seq
	m.store[inv.ID] = inv
	return inv.ID, nil
}

func (m *mockRepo) Update(_ context.Context, inv Invoice) error {
	current, ok := m.store[inv.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Version != inv.Version {
		return shared.ErrVersionConflict
	}
	inv.Version++
	m.store[inv.ID] = inv
	return nil
}

type mockDeals struct{ byID map[int64]deals.Deal }

func (m *mockDeals) Get(_ context.Context, id int64) (*deals.Deal, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &d, nil
}

type mockQuotations struct {
	byID map[int64]quotations.Quotation
}

func (m *mockQuotations) Get(_ context.Context, id int64) (*quotations.Quotation, error) {
	q, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &q, nil
}

type mockCodes struct{ n int }

func (m *mockCodes) Next(_ context.Context, prefix string) (string, error) {
	m.n++
	return fmt.Sprintf("%s-%06d", prefix, m.n), nil
}

type stubClock struct{}

func (stubClock) Now() time.Time { return testNow }

type recordingNotifier struct{ events []string }

func (n *recordingNotifier) OnStateReached(_ context.Context, doc shared.DocumentType, docID int64, state string) {
	n.events = append(n.events, fmt.Sprintf("%s/%d/%s", doc, docID, state))
}

type recordingRenderer struct{ requests []string }

func (r *recordingRenderer) RequestDocument(_ context.Context, doc shared.DocumentType, docID int64) (string, error) {
	r.requests = append(r.requests, fmt.Sprintf("%s/%d", doc, docID))
	return "render://doc", nil
}

func newTestService() (*Service, *recordingNotifier, *recordingRenderer) {
	repo := newMockRepo()
	dealStore := &mockDeals{byID: map[int64]deals.Deal{3: sampleDeal()}}
	quotStore := &mockQuotations{byID: map[int64]quotations.Quotation{11: sampleQuotation()}}
	notifier := &recordingNotifier{}
	renderer := &recordingRenderer{}
	svc := NewService(repo, dealStore, quotStore, &mockCodes{}, stubClock{}, notifier, renderer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, notifier, renderer
}

func TestServiceDeriveWithSeed(t *testing.T) {
	svc, _, _ := newTestService()

	qID := int64(11)
	inv, err := svc.Derive(context.Background(), DeriveInvoiceRequest{
		DealID:        3,
		QuotationID:   &qID,
		DueDate:       testNow.AddDate(0, 1, 0),
		PaymentMethod: "TRANSFERENCIA",
	})
	require.NoError(t, err)

	assert.Equal(t, "FAC-000001", inv.Code)
	assert.Equal(t, StatusInReview, inv.Status)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, 238.0, inv.Total)
}

func TestServiceDeriveRejectsForeignQuotation(t *testing.T) {
	svc, _, _ := newTestService()

	// The deal points at quotation 11; asking to seed from another one fails.
	foreign := int64(12)
	q := sampleQuotation()
	q.ID = 12
	svc.quotations.(*mockQuotations).byID[12] = q

	_, err := svc.Derive(context.Background(), DeriveInvoiceRequest{
		DealID:        3,
		QuotationID:   &foreign,
		DueDate:       testNow.AddDate(0, 1, 0),
		PaymentMethod: "TRANSFERENCIA",
	})
	assert.True(t, shared.IsValidation(err), "got %v", err)
}

func TestServiceSentFiresNotifierAndRenderer(t *testing.T) {
	svc, notifier, renderer := newTestService()

	inv, err := svc.Derive(context.Background(), DeriveInvoiceRequest{
		DealID:        3,
		DueDate:       testNow.AddDate(0, 1, 0),
		PaymentMethod: "EFECTIVO",
		Lines:         []LineInput{{Description: "Servicio", Quantity: 1, UnitPrice: 500}},
	})
	require.NoError(t, err)

	sent, err := svc.Transition(context.Background(), inv.ID, TransitionInvoiceRequest{Status: string(StatusSent), Version: inv.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, fmt.Sprintf("FACTURA/%d/ENVIADA", inv.ID), notifier.events[0])
	assert.Len(t, renderer.requests, 1)

	paid, err := svc.Transition(context.Background(), inv.ID, TransitionInvoiceRequest{Status: string(StatusPaid), Version: sent.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	// Paying does not re-notify.
	assert.Len(t, notifier.events, 1)
}

func TestServiceTransitionVersionConflict(t *testing.T) {
	svc, _, _ := newTestService()

	inv, err := svc.Derive(context.Background(), DeriveInvoiceRequest{
		DealID:        3,
		DueDate:       testNow.AddDate(0, 1, 0),
		PaymentMethod: "EFECTIVO",
		Lines:         []LineInput{{Description: "Servicio", Quantity: 1, UnitPrice: 500}},
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), inv.ID, TransitionInvoiceRequest{Status: string(StatusSent), Version: inv.Version + 1})
	assert.ErrorIs(t, err, shared.ErrVersionConflict)
}

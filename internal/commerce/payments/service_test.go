package payments

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/deals"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type mockRepo struct {
	seq   int64
	store map[int64]Payment
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[int64]Payment)}
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Payment, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (m *mockRepo) List(_ context.Context, _ ListPaymentsRequest) ([]Payment, int, error) {
	var out []Payment
	for _, p := range m.store {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepo) SumByDeal(_ context.Context, dealID int64) (float64, error) {
	var sum float64
	for _, p := range m.store {
		if p.DealID == dealID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (m *mockRepo) Create(_ context.Context, p Payment) (int64, error) {
	m.seq++
	p.ID = m.seq
	m.store[p.ID] = p
	return p.ID, nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.store[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

type mockLedger struct {
	deal deals.Deal
}

func (m *mockLedger) Get(_ context.Context, id int64) (*deals.Deal, error) {
	if id != m.deal.ID {
		return nil, shared.ErrNotFound
	}
	d := m.deal
	return &d, nil
}

func (m *mockLedger) SetAdvance(_ context.Context, id int64, advance float64) (*deals.Deal, error) {
	if id != m.deal.ID {
		return nil, shared.ErrNotFound
	}
	m.deal.Advance = advance
	d := m.deal
	return &d, nil
}

type stubClock struct{}

func (stubClock) Now() time.Time { return testNow }

func newTestService() (*Service, *mockLedger) {
	repo := newMockRepo()
	ledger := &mockLedger{deal: deals.Deal{
		ID:             3,
		Code:           "NEG-000003",
		QuotationTotal: 238,
		Status:         deals.StatusFinalized,
	}}
	svc := NewService(repo, ledger, stubClock{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, ledger
}

func TestRegisterUpdatesAdvance(t *testing.T) {
	svc, ledger := newTestService()

	p, err := svc.Register(context.Background(), RegisterPaymentRequest{DealID: 3, Amount: 100, Method: "EFECTIVO"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.Amount)
	assert.Equal(t, testNow, p.PaidAt)
	assert.Equal(t, 100.0, ledger.deal.Advance)

	_, err = svc.Register(context.Background(), RegisterPaymentRequest{DealID: 3, Amount: 50, Method: "TRANSFERENCIA"})
	require.NoError(t, err)
	assert.Equal(t, 150.0, ledger.deal.Advance)
}

func TestRegisterRejectsOverpayment(t *testing.T) {
	svc, ledger := newTestService()

	_, err := svc.Register(context.Background(), RegisterPaymentRequest{DealID: 3, Amount: 200, Method: "EFECTIVO"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterPaymentRequest{DealID: 3, Amount: 38.01, Method: "EFECTIVO"})
	assert.True(t, shared.IsValidation(err), "got %v", err)
	assert.Equal(t, 200.0, ledger.deal.Advance)

	// Exactly reaching the quotation total is fine.
	_, err = svc.Register(context.Background(), RegisterPaymentRequest{DealID: 3, Amount: 38, Method: "EFECTIVO"})
	require.NoError(t, err)
	assert.Equal(t, 238.0, ledger.deal.Advance)
}

func TestRegisterRejectsCancelledDeal(t *testing.T) {
	svc, ledger := newTestService()
	ledger.deal.Status = deals.StatusCancelled

	_, err := svc.Register(context.Background(), RegisterPaymentRequest{DealID: 3, Amount: 10, Method: "EFECTIVO"})
	assert.True(t, shared.IsInvalidState(err), "got %v", err)
}

func TestRemoveRecomputesAdvance(t *testing.T) {
	svc, ledger := newTestService()

	p1, err := svc.Register(context.Background(), RegisterPaymentRequest{DealID: 3, Amount: 100, Method: "EFECTIVO"})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), RegisterPaymentRequest{DealID: 3, Amount: 50, Method: "EFECTIVO"})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), p1.ID))
	assert.Equal(t, 50.0, ledger.deal.Advance)

	assert.ErrorIs(t, svc.Remove(context.Background(), p1.ID), shared.ErrNotFound)
}

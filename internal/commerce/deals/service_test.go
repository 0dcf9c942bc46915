package deals

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/clients"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

type mockRepo struct {
	seq   int64
	store map[int64]Deal
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[int64]Deal)}
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Deal, error) {
	d, ok := m.store[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &d, nil
}

func (m *mockRepo) List(_ context.Context, _ ListDealsRequest) ([]Deal, int, error) {
	var out []Deal
	for _, d := range m.store {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(_ context.Context, d Deal) (int64, error) {
	m.seq++
	d.ID = m.seq
	m.store[d.ID] = d
	return d.ID, nil
}

func (m *mockRepo) Update(_ context.Context, d Deal) error {
	current, ok := m.store[d.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Version != d.Version {
		return shared.ErrVersionConflict
	}
	d.Version++
	m.store[d.ID] = d
	return nil
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

type mockDirectory struct{}

func (mockDirectory) Get(_ context.Context, id int64) (*clients.Client, error) {
	return &clients.Client{ID: id, Name: "Comercial Andina", IsActive: true}, nil
}

type mockCodes struct{ n int }

func (m *mockCodes) Next(_ context.Context, prefix string) (string, error) {
	m.n++
	return fmt.Sprintf("%s-%06d", prefix, m.n), nil
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	quots := &mockQuotations{byID: map[int64]quotations.Quotation{
		11: approvedQuotation(),
	}}
	svc := NewService(repo, quots, mockDirectory{}, &mockCodes{}, fixedClock{}, shared.NopNotifier{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo
}

func TestServiceDeriveAssignsCodeAndSnapshot(t *testing.T) {
	svc, _ := newTestService()

	d, err := svc.Derive(context.Background(), DeriveDealRequest{
		QuotationID:  11,
		Description:  "Obra fase 1",
		StartDate:    testNow,
		EstimatedEnd: testNow.AddDate(0, 2, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, "NEG-000001", d.Code)
	assert.Equal(t, StatusInReview, d.Status)
	assert.Equal(t, "COT-000011", d.QuotationCode)
	assert.Equal(t, 238.0, d.QuotationTotal)
	assert.Equal(t, "Comercial Andina", d.ClientName)
}

func TestServiceDeriveUnknownQuotation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Derive(context.Background(), DeriveDealRequest{
		QuotationID:  404,
		Description:  "x",
		StartDate:    testNow,
		EstimatedEnd: testNow.AddDate(0, 1, 0),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestServiceDeriveBudgetOverCap(t *testing.T) {
	svc, _ := newTestService()

	over := 178.6
	_, err := svc.Derive(context.Background(), DeriveDealRequest{
		QuotationID:    11,
		Description:    "x",
		StartDate:      testNow,
		EstimatedEnd:   testNow.AddDate(0, 1, 0),
		AssignedBudget: &over,
	})
	assert.True(t, shared.IsValidation(err), "got %v", err)
}

func TestServiceTransitionAndSetAdvance(t *testing.T) {
	svc, _ := newTestService()

	d, err := svc.Derive(context.Background(), DeriveDealRequest{
		QuotationID:  11,
		Description:  "Obra fase 1",
		StartDate:    testNow,
		EstimatedEnd: testNow.AddDate(0, 2, 0),
	})
	require.NoError(t, err)

	withAdvance, err := svc.SetAdvance(context.Background(), d.ID, 120)
	require.NoError(t, err)
	assert.Equal(t, 120.0, withAdvance.Advance)

	finalized, err := svc.Transition(context.Background(), d.ID, TransitionDealRequest{
		Status:  string(StatusFinalized),
		Version: withAdvance.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, finalized.Status)

	_, err = svc.Transition(context.Background(), d.ID, TransitionDealRequest{
		Status:  string(StatusCancelled),
		Version: finalized.Version,
	})
	assert.True(t, shared.IsInvalidTransition(err), "got %v", err)
}

func TestServiceUpdateVersionConflict(t *testing.T) {
	svc, _ := newTestService()

	d, err := svc.Derive(context.Background(), DeriveDealRequest{
		QuotationID:  11,
		Description:  "Obra fase 1",
		StartDate:    testNow,
		EstimatedEnd: testNow.AddDate(0, 2, 0),
	})
	require.NoError(t, err)

	desc := "otro"
	_, err = svc.Update(context.Background(), d.ID, UpdateDealRequest{Version: d.Version + 3, Description: &desc})
	assert.ErrorIs(t, err, shared.ErrVersionConflict)
}

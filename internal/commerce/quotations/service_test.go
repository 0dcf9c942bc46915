package quotations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/clients"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
	"github.com/queenscorner/queenscorner-erp/internal/platform/cache"
)

// ============================================================================
// Test doubles
// ============================================================================

type mockRepo struct {
	seq       int64
	listCalls int
	store     map[int64]Quotation
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[int64]Quotation)}
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Quotation, error) {
	q, ok := m.store[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	q.Items = shared.CloneItems(q.Items)
	return &q, nil
}

func (m *mockRepo) List(_ context.Context, _ ListQuotationsRequest) ([]Quotation, int, error) {
	m.listCalls++
	var out []Quotation
	for _, q := range m.store {
		out = append(out, q)
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(_ context.Context, q Quotation) (int64, error) {
	m.seq++
	q.ID = m.seq
	m.store[q.ID] = q
	return q.ID, nil
}

func (m *mockRepo) Update(_ context.Context, q Quotation) error {
	current, ok := m.store[q.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Version != q.Version {
		return shared.ErrVersionConflict
	}
	q.Version++
	m.store[q.ID] = q
	return nil
}

type mockDirectory struct {
	byID map[int64]clients.Client
}

func (m *mockDirectory) Get(_ context.Context, id int64) (*clients.Client, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, clients.ErrNotFound
	}
	return &c, nil
}

type mockCodes struct{ n int }

func (m *mockCodes) Next(_ context.Context, prefix string) (string, error) {
	m.n++
	return fmt.Sprintf("%s-%06d", prefix, m.n), nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) OnStateReached(_ context.Context, doc shared.DocumentType, docID int64, state string) {
	n.events = append(n.events, fmt.Sprintf("%s/%d/%s", doc, docID, state))
}

type recordingRenderer struct {
	requests []string
	err      error
}

func (r *recordingRenderer) RequestDocument(_ context.Context, doc shared.DocumentType, docID int64) (string, error) {
	r.requests = append(r.requests, fmt.Sprintf("%s/%d", doc, docID))
	if r.err != nil {
		return "", r.err
	}
	return "render://doc", nil
}

func newTestService() (*Service, *mockRepo, *recordingNotifier, *recordingRenderer) {
	repo := newMockRepo()
	dir := &mockDirectory{byID: map[int64]clients.Client{
		7: {ID: 7, Name: "Comercial Andina", IsActive: true},
		9: {ID: 9, Name: "Cerrada SAS", IsActive: false},
	}}
	notifier := &recordingNotifier{}
	renderer := &recordingRenderer{}
	svc := NewService(repo, dir, &mockCodes{}, fixedClock{at: testNow}, notifier, renderer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo, notifier, renderer
}

func createReq() CreateQuotationRequest {
	return CreateQuotationRequest{
		ClientID:    7,
		Description: "Mantenimiento general",
		ValidUntil:  testNow.AddDate(0, 1, 0),
		Items: []LineItemInput{
			{Description: "A", Quantity: 2, UnitPrice: 100},
		},
	}
}

// ============================================================================
// Tests
// ============================================================================

func TestServiceCreateAssignsCode(t *testing.T) {
	svc, _, _, _ := newTestService()

	q, err := svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	assert.Equal(t, "COT-000001", q.Code)
	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, int64(1), q.Version)
	assert.Equal(t, 238.0, q.Total)
}

func TestServiceCreateRejectsUnknownAndInactiveClients(t *testing.T) {
	svc, _, _, _ := newTestService()

	req := createReq()
	req.ClientID = 404
	_, err := svc.Create(context.Background(), req)
	assert.True(t, shared.IsValidation(err), "got %v", err)

	req.ClientID = 9
	_, err = svc.Create(context.Background(), req)
	assert.True(t, shared.IsValidation(err), "got %v", err)
}

func TestServiceUpdateVersionConflict(t *testing.T) {
	svc, _, _, _ := newTestService()
	q, err := svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	desc := "otro alcance"
	_, err = svc.Update(context.Background(), q.ID, UpdateQuotationRequest{Version: q.Version + 5, Description: &desc})
	assert.ErrorIs(t, err, shared.ErrVersionConflict)

	updated, err := svc.Update(context.Background(), q.ID, UpdateQuotationRequest{Version: q.Version, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)
	assert.Equal(t, q.Version+1, updated.Version)
}

func TestServiceTransitionFiresNotifier(t *testing.T) {
	svc, _, notifier, renderer := newTestService()
	q, err := svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	sent, err := svc.Transition(context.Background(), q.ID, TransitionQuotationRequest{Status: string(StatusSent), Version: q.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, fmt.Sprintf("COTIZACION/%d/ENVIADA", q.ID), notifier.events[0])
	assert.Empty(t, renderer.requests)

	approved, err := svc.Transition(context.Background(), q.ID, TransitionQuotationRequest{Status: string(StatusApproved), Version: sent.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.Len(t, notifier.events, 2)
	require.Len(t, renderer.requests, 1)
	assert.Equal(t, fmt.Sprintf("COTIZACION/%d", q.ID), renderer.requests[0])
}

func TestServiceTransitionSameStateIsNoOp(t *testing.T) {
	svc, _, notifier, _ := newTestService()
	q, err := svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	sent, err := svc.Transition(context.Background(), q.ID, TransitionQuotationRequest{Status: string(StatusSent), Version: q.Version})
	require.NoError(t, err)

	again, err := svc.Transition(context.Background(), q.ID, TransitionQuotationRequest{Status: string(StatusSent), Version: sent.Version})
	require.NoError(t, err)
	assert.Equal(t, sent.Version, again.Version)
	assert.Len(t, notifier.events, 1)
}

func TestServiceTransitionRendererFailureDoesNotFail(t *testing.T) {
	svc, _, _, renderer := newTestService()
	renderer.err = fmt.Errorf("gotenberg unavailable")

	q, err := svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	approved, err := svc.Transition(context.Background(), q.ID, TransitionQuotationRequest{Status: string(StatusApproved), Version: q.Version})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Len(t, renderer.requests, 1)
}

func TestServiceTransitionOutOfTerminal(t *testing.T) {
	svc, _, _, _ := newTestService()
	q, err := svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	rejected, err := svc.Transition(context.Background(), q.ID, TransitionQuotationRequest{Status: string(StatusRejected), Version: q.Version})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), q.ID, TransitionQuotationRequest{Status: string(StatusApproved), Version: rejected.Version})
	assert.True(t, shared.IsInvalidTransition(err), "got %v", err)
}

func TestServiceListCacheInvalidatedByMutations(t *testing.T) {
	svc, repo, _, _ := newTestService()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc.UseListCache(cache.NewVersioned(client, "commerce:quotations", time.Minute))

	_, err := svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	_, total, err := svc.List(context.Background(), ListQuotationsRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, repo.listCalls)

	// Second read is served from the cache.
	_, _, err = svc.List(context.Background(), ListQuotationsRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	// A mutation bumps the version and the next read goes to the repository.
	_, err = svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	_, total, err = svc.List(context.Background(), ListQuotationsRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, repo.listCalls)
}

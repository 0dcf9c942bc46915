package stats

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	clientCalls  int
	statusCalls  int
	billingCalls int
}

func (m *mockRepo) ClientCounts(_ context.Context) (ClientStats, error) {
	m.clientCalls++
	return ClientStats{Total: 12, Active: 10}, nil
}

func (m *mockRepo) CountByStatus(_ context.Context, table string) (map[string]int64, error) {
	m.statusCalls++
	switch table {
	case "quotations":
		return map[string]int64{"BORRADOR": 2, "APROBADA": 5}, nil
	case "deals":
		return map[string]int64{"EN_REVISION": 1, "FINALIZADO": 4}, nil
	case "work_orders":
		return map[string]int64{"PENDIENTE": 3}, nil
	case "invoices":
		return map[string]int64{"ENVIADA": 2, "PAGADA": 6}, nil
	}
	return nil, nil
}

func (m *mockRepo) BillingTotals(_ context.Context) (BillingStats, error) {
	m.billingCalls++
	return BillingStats{InvoicedTotal: 2000, PaidTotal: 1500, Outstanding: 500, PaymentsTotal: 900}, nil
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := &mockRepo{}
	return NewService(repo, NewCache(client, time.Minute)), repo
}

func TestOverviewAggregates(t *testing.T) {
	svc, _ := newTestService(t)

	out, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(12), out.Clients.Total)
	assert.Equal(t, int64(5), out.Quotations["APROBADA"])
	assert.Equal(t, int64(4), out.Deals["FINALIZADO"])
	assert.Equal(t, int64(3), out.WorkOrders["PENDIENTE"])
	assert.Equal(t, int64(6), out.Invoices["PAGADA"])
	assert.Equal(t, 500.0, out.Billing.Outstanding)
}

func TestOverviewCachesUntilBump(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Overview(context.Background())
	require.NoError(t, err)
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.billingCalls)

	require.NoError(t, svc.Invalidate(context.Background()))

	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.billingCalls)
}

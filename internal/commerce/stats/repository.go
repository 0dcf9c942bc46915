package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// statusTables guards CountByStatus against arbitrary identifiers.
var statusTables = map[string]bool{
	"quotations":  true,
	"deals":       true,
	"work_orders": true,
	"invoices":    true,
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ClientCounts(ctx context.Context) (ClientStats, error) {
	var out ClientStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active)
		FROM clients`).Scan(&out.Total, &out.Active)
	return out, err
}

func (r *repository) CountByStatus(ctx context.Context, table string) (map[string]int64, error) {
	if !statusTables[table] {
		return nil, fmt.Errorf("stats: unknown table %q", table)
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT status, COUNT(*) FROM %s GROUP BY status`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

func (r *repository) BillingTotals(ctx context.Context) (BillingStats, error) {
	var out BillingStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(total) FILTER (WHERE status IN ('ENVIADA', 'PAGADA')), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'PAGADA'), 0),
			COALESCE(SUM(total) FILTER (WHERE status = 'ENVIADA'), 0)
		FROM invoices`).Scan(&out.InvoicedTotal, &out.PaidTotal, &out.Outstanding)
	if err != nil {
		return out, err
	}
	err = r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments`).Scan(&out.PaymentsTotal)
	return out, err
}

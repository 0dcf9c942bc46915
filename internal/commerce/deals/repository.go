package deals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Deal, error)
	List(ctx context.Context, req ListDealsRequest) ([]Deal, int, error)
	Create(ctx context.Context, d Deal) (int64, error)
	// Update is guarded by the version the deal was loaded at. A stale version
	// yields shared.ErrVersionConflict.
	Update(ctx context.Context, d Deal) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const dealColumns = `id, code, quotation_id, quotation_code, quotation_total, client_id, client_name, description, start_date, estimated_end_date, assigned_budget, advance, status, version, created_at, updated_at`

func scanDeal(row pgx.Row) (*Deal, error) {
	var d Deal
	err := row.Scan(&d.ID, &d.Code, &d.QuotationID, &d.QuotationCode, &d.QuotationTotal, &d.ClientID, &d.ClientName, &d.Description, &d.StartDate, &d.EstimatedEnd, &d.AssignedBudget, &d.Advance, &d.Status, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Deal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id)
	return scanDeal(row)
}

func (r *repository) List(ctx context.Context, req ListDealsRequest) ([]Deal, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.QuotationID != nil {
		conditions = append(conditions, fmt.Sprintf("quotation_id = $%d", argPos))
		args = append(args, *req.QuotationID)
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM deals WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM deals WHERE %s ORDER BY id DESC LIMIT $%d OFFSET $%d`, dealColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(&d.ID, &d.Code, &d.QuotationID, &d.QuotationCode, &d.QuotationTotal, &d.ClientID, &d.ClientName, &d.Description, &d.StartDate, &d.EstimatedEnd, &d.AssignedBudget, &d.Advance, &d.Status, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, d Deal) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO deals (code, quotation_id, quotation_code, quotation_total, client_id, client_name, description, start_date, estimated_end_date, assigned_budget, advance, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id`,
		d.Code, d.QuotationID, d.QuotationCode, d.QuotationTotal, d.ClientID, d.ClientName, d.Description, d.StartDate, d.EstimatedEnd, d.AssignedBudget, d.Advance, string(d.Status), d.Version,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, d Deal) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE deals
		SET description = $1, start_date = $2, estimated_end_date = $3, assigned_budget = $4,
		    advance = $5, status = $6, version = version + 1, updated_at = NOW()
		WHERE id = $7 AND version = $8`,
		d.Description, d.StartDate, d.EstimatedEnd, d.AssignedBudget, d.Advance, string(d.Status), d.ID, d.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrVersionConflict
	}
	return nil
}

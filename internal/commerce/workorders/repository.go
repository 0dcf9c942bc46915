package workorders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
	"github.com/queenscorner/queenscorner-erp/internal/platform/db"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*WorkOrder, error)
	List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error)
	Create(ctx context.Context, o WorkOrder) (int64, error)
	// Update replaces the document and its details, guarded by the version the
	// order was loaded at.
	Update(ctx context.Context, o WorkOrder) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orderColumns = `id, code, deal_id, deal_code, description, start_date, estimated_end_date, status, subtotal, tax, total, version, created_at, updated_at`

func scanOrder(row pgx.Row) (*WorkOrder, error) {
	var o WorkOrder
	err := row.Scan(&o.ID, &o.Code, &o.DealID, &o.DealCode, &o.Description, &o.StartDate, &o.EstimatedEnd, &o.Status, &o.Subtotal, &o.Tax, &o.Total, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM work_orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, description, quantity, unit_price, line_total, line_order
		FROM work_order_details WHERE work_order_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it shared.LineItem
		if err := rows.Scan(&it.ID, &it.Description, &it.Quantity, &it.UnitPrice, &it.LineTotal, &it.LineOrder); err != nil {
			return nil, err
		}
		o.Details = append(o.Details, it)
	}
	return o, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.DealID != nil {
		conditions = append(conditions, fmt.Sprintf("deal_id = $%d", argPos))
		args = append(args, *req.DealID)
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM work_orders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM work_orders WHERE %s ORDER BY id DESC LIMIT $%d OFFSET $%d`, orderColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []WorkOrder
	for rows.Next() {
		var o WorkOrder
		if err := rows.Scan(&o.ID, &o.Code, &o.DealID, &o.DealCode, &o.Description, &o.StartDate, &o.EstimatedEnd, &o.Status, &o.Subtotal, &o.Tax, &o.Total, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, o WorkOrder) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO work_orders (code, deal_id, deal_code, description, start_date, estimated_end_date, status, subtotal, tax, total, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
			RETURNING id`,
			o.Code, o.DealID, o.DealCode, o.Description, o.StartDate, o.EstimatedEnd, string(o.Status), o.Subtotal, o.Tax, o.Total, o.Version,
		).Scan(&id)
		if err != nil {
			return err
		}
		return insertDetails(ctx, tx, id, o.Details)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, o WorkOrder) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE work_orders
			SET description = $1, start_date = $2, estimated_end_date = $3, status = $4,
			    subtotal = $5, tax = $6, total = $7, version = version + 1, updated_at = NOW()
			WHERE id = $8 AND version = $9`,
			o.Description, o.StartDate, o.EstimatedEnd, string(o.Status), o.Subtotal, o.Tax, o.Total, o.ID, o.Version,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrVersionConflict
		}
		if _, err := tx.Exec(ctx, `DELETE FROM work_order_details WHERE work_order_id = $1`, o.ID); err != nil {
			return err
		}
		return insertDetails(ctx, tx, o.ID, o.Details)
	})
}

func insertDetails(ctx context.Context, tx pgx.Tx, orderID int64, details []shared.LineItem) error {
	for _, d := range details {
		_, err := tx.Exec(ctx, `
			INSERT INTO work_order_details (work_order_id, description, quantity, unit_price, line_total, line_order)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, d.Description, d.Quantity, d.UnitPrice, d.LineTotal, d.LineOrder,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

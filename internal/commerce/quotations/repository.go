package quotations

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
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)
	Create(ctx context.Context, q Quotation) (int64, error)
	// Update persists the document and its items, guarded by the version the
	// document was loaded at. A stale version yields shared.ErrVersionConflict.
	Update(ctx context.Context, q Quotation) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const quotationColumns = `id, code, client_id, description, valid_until, notes, status, subtotal, tax, total, version, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(&q.ID, &q.Code, &q.ClientID, &q.Description, &q.ValidUntil, &q.Notes, &q.Status, &q.Subtotal, &q.Tax, &q.Total, &q.Version, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	q, err := scanQuotation(row)
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (r *repository) loadItems(ctx context.Context, quotationID int64) ([]shared.LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, description, quantity, unit_price, line_total, line_order
		FROM quotation_items WHERE quotation_id = $1 ORDER BY line_order`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []shared.LineItem
	for rows.Next() {
		var it shared.LineItem
		if err := rows.Scan(&it.ID, &it.Description, &it.Quantity, &it.UnitPrice, &it.LineTotal, &it.LineOrder); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
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

	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotations WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM quotations WHERE %s ORDER BY id DESC LIMIT $%d OFFSET $%d`, quotationColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		var q Quotation
		if err := rows.Scan(&q.ID, &q.Code, &q.ClientID, &q.Description, &q.ValidUntil, &q.Notes, &q.Status, &q.Subtotal, &q.Tax, &q.Total, &q.Version, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO quotations (code, client_id, description, valid_until, notes, status, subtotal, tax, total, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			RETURNING id`,
			q.Code, q.ClientID, q.Description, q.ValidUntil, q.Notes, string(q.Status), q.Subtotal, q.Tax, q.Total, q.Version,
		).Scan(&id)
		if err != nil {
			return err
		}
		return insertItems(ctx, tx, id, q.Items)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, q Quotation) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE quotations
			SET description = $1, valid_until = $2, notes = $3, status = $4,
			    subtotal = $5, tax = $6, total = $7, version = version + 1, updated_at = NOW()
			WHERE id = $8 AND version = $9`,
			q.Description, q.ValidUntil, q.Notes, string(q.Status), q.Subtotal, q.Tax, q.Total, q.ID, q.Version,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrVersionConflict
		}
		if _, err := tx.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id = $1`, q.ID); err != nil {
			return err
		}
		return insertItems(ctx, tx, q.ID, q.Items)
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, quotationID int64, items []shared.LineItem) error {
	for _, it := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO quotation_items (quotation_id, description, quantity, unit_price, line_total, line_order)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			quotationID, it.Description, it.Quantity, it.UnitPrice, it.LineTotal, it.LineOrder,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

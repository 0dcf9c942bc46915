package invoices

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
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	// Update replaces the document and its lines, guarded by the version the
	// invoice was loaded at.
	Update(ctx context.Context, inv Invoice) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, code, deal_id, deal_code, quotation_id, client_id, client_name, due_date, payment_method, payment_reference, notes, status, subtotal, tax, total, advance, version, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Code, &inv.DealID, &inv.DealCode, &inv.QuotationID, &inv.ClientID, &inv.ClientName, &inv.DueDate, &inv.PaymentMethod, &inv.PaymentReference, &inv.Notes, &inv.Status, &inv.Subtotal, &inv.Tax, &inv.Total, &inv.Advance, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, source_item_id, description, quantity, unit_price, line_total, line_order
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.SourceItemID, &l.Description, &l.Quantity, &l.UnitPrice, &l.LineTotal, &l.LineOrder); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
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
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s ORDER BY id DESC LIMIT $%d OFFSET $%d`, invoiceColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Code, &inv.DealID, &inv.DealCode, &inv.QuotationID, &inv.ClientID, &inv.ClientName, &inv.DueDate, &inv.PaymentMethod, &inv.PaymentReference, &inv.Notes, &inv.Status, &inv.Subtotal, &inv.Tax, &inv.Total, &inv.Advance, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO invoices (code, deal_id, deal_code, quotation_id, client_id, client_name, due_date, payment_method, payment_reference, notes, status, subtotal, tax, total, advance, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
			RETURNING id`,
			inv.Code, inv.DealID, inv.DealCode, inv.QuotationID, inv.ClientID, inv.ClientName, inv.DueDate, inv.PaymentMethod, inv.PaymentReference, inv.Notes, string(inv.Status), inv.Subtotal, inv.Tax, inv.Total, inv.Advance, inv.Version,
		).Scan(&id)
		if err != nil {
			return err
		}
		return insertLines(ctx, tx, id, inv.Lines)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, inv Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE invoices
			SET due_date = $1, payment_method = $2, payment_reference = $3, notes = $4,
			    status = $5, subtotal = $6, tax = $7, total = $8,
			    version = version + 1, updated_at = NOW()
			WHERE id = $9 AND version = $10`,
			inv.DueDate, inv.PaymentMethod, inv.PaymentReference, inv.Notes, string(inv.Status), inv.Subtotal, inv.Tax, inv.Total, inv.ID, inv.Version,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrVersionConflict
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, inv.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, inv.ID, inv.Lines)
	})
}

func insertLines(ctx context.Context, tx pgx.Tx, invoiceID int64, lines []Line) error {
	for _, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_lines (invoice_id, source_item_id, description, quantity, unit_price, line_total, line_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			invoiceID, l.SourceItemID, l.Description, l.Quantity, l.UnitPrice, l.LineTotal, l.LineOrder,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

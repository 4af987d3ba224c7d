package invoices

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planwise-crm/planwise-crm/internal/shared"
)

// Repository defines persistence operations for invoices.
type Repository interface {
	Get(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, limit, offset int) ([]Invoice, int, error)
	Create(ctx context.Context, invoice Invoice) (*Invoice, error)
	Delete(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const invoiceColumns = `id, number, customer_name, lead_id, amount, status, due_date, created_at, updated_at`

// Get fetches an invoice by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (*Invoice, error) {
	return scanInvoiceErr(scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)))
}

// List returns invoices ordered by creation time plus the total count.
func (r *PGRepository) List(ctx context.Context, limit, offset int) ([]Invoice, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, *invoice)
	}
	return results, total, rows.Err()
}

// Create inserts a new invoice.
func (r *PGRepository) Create(ctx context.Context, invoice Invoice) (*Invoice, error) {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	if invoice.Status == "" {
		invoice.Status = StatusDraft
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO invoices (id, number, customer_name, lead_id, amount, status, due_date)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
		 RETURNING `+invoiceColumns,
		invoice.ID, invoice.Number, invoice.CustomerName, invoice.LeadID, invoice.Amount, invoice.Status, invoice.DueDate)
	return scanInvoiceErr(scanInvoice(row))
}

// Delete removes an invoice by ID.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var invoice Invoice
	var leadID *string
	err := row.Scan(&invoice.ID, &invoice.Number, &invoice.CustomerName, &leadID, &invoice.Amount, &invoice.Status, &invoice.DueDate, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if leadID != nil {
		invoice.LeadID = *leadID
	}
	return &invoice, nil
}

func scanInvoiceErr(invoice *Invoice, err error) (*Invoice, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return invoice, nil
}

var _ Repository = (*PGRepository)(nil)

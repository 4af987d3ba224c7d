package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planwise-crm/planwise-crm/internal/shared"
)

// Repository defines persistence operations for leads.
type Repository interface {
	Get(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error)
	Create(ctx context.Context, lead Lead) (*Lead, error)
	Update(ctx context.Context, lead Lead) (*Lead, error)
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

const leadColumns = `id, name, company, email, phone, value, status, source, assigned_to, created_at, updated_at`

// Get fetches a lead by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (*Lead, error) {
	return scanLeadErr(scanLead(r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)))
}

// List returns leads matching the filter plus the total count.
func (r *PGRepository) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if req.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", argPos))
		args = append(args, req.AssignedTo)
		argPos++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM leads%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, *lead)
	}
	return results, total, rows.Err()
}

// Create inserts a new lead.
func (r *PGRepository) Create(ctx context.Context, lead Lead) (*Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.Status == "" {
		lead.Status = StatusNew
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO leads (id, name, company, email, phone, value, status, source, assigned_to)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		 RETURNING `+leadColumns,
		lead.ID, lead.Name, lead.Company, lead.Email, lead.Phone, lead.Value, lead.Status, lead.Source, lead.AssignedTo)
	return scanLeadErr(scanLead(row))
}

// Update replaces an existing lead's fields.
func (r *PGRepository) Update(ctx context.Context, lead Lead) (*Lead, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE leads
		 SET name = $2, company = $3, email = $4, phone = $5, value = $6, status = $7,
		     source = $8, assigned_to = NULLIF($9, ''), updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+leadColumns,
		lead.ID, lead.Name, lead.Company, lead.Email, lead.Phone, lead.Value, lead.Status, lead.Source, lead.AssignedTo)
	return scanLeadErr(scanLead(row))
}

// Delete removes a lead by ID.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	var company, email, phone, source, assignedTo *string
	err := row.Scan(&lead.ID, &lead.Name, &company, &email, &phone, &lead.Value, &lead.Status, &source, &assignedTo, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	lead.Company = deref(company)
	lead.Email = deref(email)
	lead.Phone = deref(phone)
	lead.Source = deref(source)
	lead.AssignedTo = deref(assignedTo)
	return &lead, nil
}

func scanLeadErr(lead *Lead, err error) (*Lead, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return lead, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Repository = (*PGRepository)(nil)

package accessrules

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planwise-crm/planwise-crm/internal/authz"
	"github.com/planwise-crm/planwise-crm/internal/shared"
)

// Repository defines persistence operations for access rules.
type Repository interface {
	List(ctx context.Context) ([]AccessRule, error)
	GetByID(ctx context.Context, id string) (*AccessRule, error)
	GetByFeature(ctx context.Context, feature string) (*AccessRule, error)
	Create(ctx context.Context, rule AccessRule) (*AccessRule, error)
	Update(ctx context.Context, rule AccessRule) (*AccessRule, error)
	Delete(ctx context.Context, id string) error
	// EnsureExists inserts the rule only when no rule with its feature name
	// is present. Safe to race across process instances.
	EnsureExists(ctx context.Context, rule AccessRule) error
	DeleteAll(ctx context.Context) error
}

// PGRepository implements Repository using PostgreSQL. Action lists are
// stored as text[] columns.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const ruleColumns = `id, feature_name, module, admin_actions, lead_planner_actions, assistant_actions, available_permissions, created_at, updated_at`

// List returns all access rules ordered by feature name.
func (r *PGRepository) List(ctx context.Context) ([]AccessRule, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ruleColumns+` FROM access_rules ORDER BY feature_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []AccessRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// GetByID fetches a rule by ID.
func (r *PGRepository) GetByID(ctx context.Context, id string) (*AccessRule, error) {
	return scanRuleErr(scanRule(r.pool.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM access_rules WHERE id = $1`, id)))
}

// GetByFeature fetches a rule by its unique feature name.
func (r *PGRepository) GetByFeature(ctx context.Context, feature string) (*AccessRule, error) {
	return scanRuleErr(scanRule(r.pool.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM access_rules WHERE feature_name = $1`, feature)))
}

// Create inserts a new rule.
func (r *PGRepository) Create(ctx context.Context, rule AccessRule) (*AccessRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO access_rules (id, feature_name, module, admin_actions, lead_planner_actions, assistant_actions, available_permissions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+ruleColumns,
		rule.ID, rule.FeatureName, rule.Module,
		actionsToStrings(rule.Admin), actionsToStrings(rule.LeadPlanner),
		actionsToStrings(rule.Assistant), actionsToStrings(rule.AvailablePermissions))
	return scanRuleErr(scanRule(row))
}

// Update replaces an existing rule's fields.
func (r *PGRepository) Update(ctx context.Context, rule AccessRule) (*AccessRule, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE access_rules
		 SET feature_name = $2, module = $3, admin_actions = $4, lead_planner_actions = $5,
		     assistant_actions = $6, available_permissions = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+ruleColumns,
		rule.ID, rule.FeatureName, rule.Module,
		actionsToStrings(rule.Admin), actionsToStrings(rule.LeadPlanner),
		actionsToStrings(rule.Assistant), actionsToStrings(rule.AvailablePermissions))
	return scanRuleErr(scanRule(row))
}

// Delete removes a rule by ID.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM access_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// EnsureExists inserts the rule unless its feature name is already taken.
func (r *PGRepository) EnsureExists(ctx context.Context, rule AccessRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO access_rules (id, feature_name, module, admin_actions, lead_planner_actions, assistant_actions, available_permissions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (feature_name) DO NOTHING`,
		rule.ID, rule.FeatureName, rule.Module,
		actionsToStrings(rule.Admin), actionsToStrings(rule.LeadPlanner),
		actionsToStrings(rule.Assistant), actionsToStrings(rule.AvailablePermissions))
	return err
}

// DeleteAll wipes the table. Used only by the reset operation.
func (r *PGRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM access_rules`)
	return err
}

func scanRule(row pgx.Row) (*AccessRule, error) {
	var rule AccessRule
	var admin, leadPlanner, assistant, available []string
	err := row.Scan(&rule.ID, &rule.FeatureName, &rule.Module, &admin, &leadPlanner, &assistant, &available, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rule.Admin = stringsToActions(admin)
	rule.LeadPlanner = stringsToActions(leadPlanner)
	rule.Assistant = stringsToActions(assistant)
	rule.AvailablePermissions = stringsToActions(available)
	return &rule, nil
}

func scanRuleErr(rule *AccessRule, err error) (*AccessRule, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return rule, nil
}

func actionsToStrings(actions []authz.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}

func stringsToActions(values []string) []authz.Action {
	if len(values) == 0 {
		return nil
	}
	out := make([]authz.Action, len(values))
	for i, v := range values {
		out[i] = authz.Action(v)
	}
	return out
}

var _ Repository = (*PGRepository)(nil)

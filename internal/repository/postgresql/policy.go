package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/policy"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type policyRepository struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) policy.PolicyRepository {
	return &policyRepository{db: db}
}

const policyColumns = `
	id, company_id, name, trigger_event, conditions, actions, status,
	execution_count, total_amount_paid, total_amount_deduct,
	created_by, created_at, updated_at, deleted_at
`

func scanPolicy(row pgx.Row) (policy.Policy, error) {
	var p policy.Policy
	var conditionsJSON, actionsJSON []byte

	err := row.Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.TriggerEvent, &conditionsJSON, &actionsJSON, &p.Status,
		&p.ExecutionCount, &p.TotalAmountPaid, &p.TotalAmountDeduct,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return policy.Policy{}, err
	}

	if err := json.Unmarshal(conditionsJSON, &p.Conditions); err != nil {
		return policy.Policy{}, fmt.Errorf("failed to decode policy conditions: %w", err)
	}
	if err := json.Unmarshal(actionsJSON, &p.Actions); err != nil {
		return policy.Policy{}, fmt.Errorf("failed to decode policy actions: %w", err)
	}

	return p, nil
}

func (r *policyRepository) Create(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	q := GetQuerier(ctx, r.db)

	conditionsJSON, err := json.Marshal(p.Conditions)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("failed to encode policy conditions: %w", err)
	}
	actionsJSON, err := json.Marshal(p.Actions)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("failed to encode policy actions: %w", err)
	}

	query := `
		INSERT INTO smart_policies (
			company_id, name, trigger_event, conditions, actions, status,
			total_amount_paid, total_amount_deduct, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + policyColumns

	created, err := scanPolicy(q.QueryRow(ctx, query,
		p.CompanyID, p.Name, p.TriggerEvent, conditionsJSON, actionsJSON, p.Status,
		p.TotalAmountPaid, p.TotalAmountDeduct, p.CreatedBy,
	))
	if err != nil {
		return policy.Policy{}, fmt.Errorf("failed to create policy: %w", err)
	}

	return created, nil
}

func (r *policyRepository) GetByID(ctx context.Context, id string, companyID string) (policy.Policy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + policyColumns + `
		FROM smart_policies
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`

	p, err := scanPolicy(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return policy.Policy{}, policy.ErrPolicyNotFound
		}
		return policy.Policy{}, fmt.Errorf("failed to get policy: %w", err)
	}

	return p, nil
}

func (r *policyRepository) ListByCompany(ctx context.Context, companyID string, filter policy.PolicyFilter) ([]policy.Policy, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := []string{"company_id = $1", "deleted_at IS NULL"}
	args := []interface{}{companyID}
	argIdx := 2

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argIdx))
			args = append(args, s)
			argIdx++
		}
		where = append(where, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.Trigger != nil {
		where = append(where, fmt.Sprintf("trigger_event = $%d", argIdx))
		args = append(args, *filter.Trigger)
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM smart_policies WHERE " + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count policies: %w", err)
	}

	query := "SELECT " + policyColumns + " FROM smart_policies WHERE " + whereClause + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.Limit
		}
		args = append(args, filter.Limit, offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var policies []policy.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, p)
	}

	return policies, total, nil
}

func (r *policyRepository) ListByStatuses(ctx context.Context, companyID string, statuses []policy.Status) ([]policy.Policy, error) {
	q := GetQuerier(ctx, r.db)

	placeholders := make([]string, 0, len(statuses))
	args := []interface{}{companyID}
	for i, s := range statuses {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, s)
	}

	query := "SELECT " + policyColumns + ` FROM smart_policies
		WHERE company_id = $1 AND deleted_at IS NULL
		AND status IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY created_at`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies by status: %w", err)
	}
	defer rows.Close()

	var policies []policy.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, p)
	}

	return policies, nil
}

func (r *policyRepository) Update(ctx context.Context, companyID string, req policy.UpdatePolicyRequest) (policy.Policy, error) {
	q := GetQuerier(ctx, r.db)

	setParts := []string{"updated_at = NOW()"}
	args := []interface{}{req.ID, companyID}
	argIdx := 3

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *req.Name)
		argIdx++
	}
	if req.TriggerEvent != nil {
		setParts = append(setParts, fmt.Sprintf("trigger_event = $%d", argIdx))
		args = append(args, *req.TriggerEvent)
		argIdx++
	}
	if req.Conditions != nil {
		conditionsJSON, err := json.Marshal(policy.ToConditions(*req.Conditions))
		if err != nil {
			return policy.Policy{}, fmt.Errorf("failed to encode policy conditions: %w", err)
		}
		setParts = append(setParts, fmt.Sprintf("conditions = $%d", argIdx))
		args = append(args, conditionsJSON)
		argIdx++
	}
	if req.Actions != nil {
		actionsJSON, err := json.Marshal(policy.ToActions(*req.Actions))
		if err != nil {
			return policy.Policy{}, fmt.Errorf("failed to encode policy actions: %w", err)
		}
		setParts = append(setParts, fmt.Sprintf("actions = $%d", argIdx))
		args = append(args, actionsJSON)
		argIdx++
	}

	query := fmt.Sprintf(`
		UPDATE smart_policies
		SET %s
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		RETURNING `+policyColumns, strings.Join(setParts, ", "))

	updated, err := scanPolicy(q.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return policy.Policy{}, policy.ErrPolicyNotFound
		}
		return policy.Policy{}, fmt.Errorf("failed to update policy: %w", err)
	}

	return updated, nil
}

func (r *policyRepository) UpdateStatus(ctx context.Context, id string, companyID string, status policy.Status) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE smart_policies
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, companyID, status).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return policy.ErrPolicyNotFound
		}
		return fmt.Errorf("failed to update policy status: %w", err)
	}

	return nil
}

func (r *policyRepository) SoftDelete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE smart_policies
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		RETURNING id
	`

	var deletedID string
	err := q.QueryRow(ctx, query, id, companyID).Scan(&deletedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return policy.ErrPolicyNotFound
		}
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	return nil
}

func (r *policyRepository) IncrementExecutionStats(ctx context.Context, id string, paid, deducted decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE smart_policies
		SET execution_count = execution_count + 1,
			total_amount_paid = total_amount_paid + $2,
			total_amount_deduct = total_amount_deduct + $3,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, paid, deducted).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return policy.ErrPolicyNotFound
		}
		return fmt.Errorf("failed to increment execution stats: %w", err)
	}

	return nil
}

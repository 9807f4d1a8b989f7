package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/database"
)

type payslipLineRepository struct {
	db *database.DB
}

func NewPayslipLineRepository(db *database.DB) payslip.PayslipLineRepository {
	return &payslipLineRepository{db: db}
}

func (r *payslipLineRepository) GetPayslip(ctx context.Context, payslipID string) (payslip.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, employee_id, run_id, base_salary
		FROM payslips
		WHERE id = $1
	`

	var p payslip.Payslip
	err := q.QueryRow(ctx, query, payslipID).Scan(
		&p.ID, &p.CompanyID, &p.EmployeeID, &p.RunID, &p.BaseSalary,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payslip.Payslip{}, payslip.ErrPayslipNotFound
		}
		return payslip.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	return p, nil
}

func (r *payslipLineRepository) ListByPayslip(ctx context.Context, payslipID string) ([]payslip.PayslipLine, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, payslip_id, component_id, component_name, sign, amount,
			   units, rate, source_type, source_ref, description_ar, created_at
		FROM payslip_lines
		WHERE payslip_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, payslipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslip lines: %w", err)
	}
	defer rows.Close()

	var lines []payslip.PayslipLine
	for rows.Next() {
		var l payslip.PayslipLine
		if err := rows.Scan(
			&l.ID, &l.PayslipID, &l.ComponentID, &l.ComponentName, &l.Sign, &l.Amount,
			&l.Units, &l.Rate, &l.SourceType, &l.SourceRef, &l.DescriptionAr, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payslip line: %w", err)
		}
		lines = append(lines, l)
	}

	return lines, nil
}

func (r *payslipLineRepository) DeletePolicyLines(ctx context.Context, payslipID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM payslip_lines WHERE payslip_id = $1 AND source_type = $2`

	tag, err := q.Exec(ctx, query, payslipID, payslip.SourcePolicy)
	if err != nil {
		return 0, fmt.Errorf("failed to delete policy lines: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *payslipLineRepository) BulkInsert(ctx context.Context, lines []payslip.PayslipLine) (int64, error) {
	if len(lines) == 0 {
		return 0, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payslip_lines (
			id, payslip_id, component_id, component_name, sign, amount,
			units, rate, source_type, source_ref, description_ar
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var inserted int64
	for _, l := range lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		tag, err := q.Exec(ctx, query,
			l.ID, l.PayslipID, l.ComponentID, l.ComponentName, l.Sign, l.Amount,
			l.Units, l.Rate, l.SourceType, l.SourceRef, l.DescriptionAr,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert payslip line: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	return inserted, nil
}

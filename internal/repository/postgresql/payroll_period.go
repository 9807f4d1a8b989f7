package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/database"
)

type payrollPeriodRepository struct {
	db *database.DB
}

func NewPayrollPeriodRepository(db *database.DB) payslip.PeriodRepository {
	return &payrollPeriodRepository{db: db}
}

func (r *payrollPeriodRepository) GetByMonth(ctx context.Context, companyID string, year, month int) (payslip.PayrollPeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, year, month, status, locked_at, locked_by, created_at, updated_at
		FROM payroll_periods
		WHERE company_id = $1 AND year = $2 AND month = $3
	`

	var p payslip.PayrollPeriod
	err := q.QueryRow(ctx, query, companyID, year, month).Scan(
		&p.ID, &p.CompanyID, &p.Year, &p.Month, &p.Status, &p.LockedAt, &p.LockedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payslip.PayrollPeriod{}, payslip.ErrPeriodNotFound
		}
		return payslip.PayrollPeriod{}, fmt.Errorf("failed to get payroll period: %w", err)
	}

	return p, nil
}

func (r *payrollPeriodRepository) ListRange(ctx context.Context, companyID string, startYear, startMonth, endYear, endMonth int) ([]payslip.PayrollPeriod, error) {
	q := GetQuerier(ctx, r.db)

	// (year, month) tuple comparison keeps the range inclusive on both ends.
	query := `
		SELECT id, company_id, year, month, status, locked_at, locked_by, created_at, updated_at
		FROM payroll_periods
		WHERE company_id = $1
		  AND (year, month) >= ($2, $3)
		  AND (year, month) <= ($4, $5)
		ORDER BY year, month
	`

	rows, err := q.Query(ctx, query, companyID, startYear, startMonth, endYear, endMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll periods: %w", err)
	}
	defer rows.Close()

	var periods []payslip.PayrollPeriod
	for rows.Next() {
		var p payslip.PayrollPeriod
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.Year, &p.Month, &p.Status, &p.LockedAt, &p.LockedBy, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll period: %w", err)
		}
		periods = append(periods, p)
	}

	return periods, nil
}

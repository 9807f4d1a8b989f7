package postgresql

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/database"
)

type payrollRunRepository struct {
	db *database.DB
}

func NewPayrollRunRepository(db *database.DB) payslip.RunRepository {
	return &payrollRunRepository{db: db}
}

func (r *payrollRunRepository) GetByID(ctx context.Context, runID string) (payslip.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, period_year, period_month, status, locked_at, locked_by, created_at, updated_at
		FROM payroll_runs
		WHERE id = $1
	`

	var run payslip.PayrollRun
	err := q.QueryRow(ctx, query, runID).Scan(
		&run.ID, &run.CompanyID, &run.PeriodYear, &run.PeriodMonth, &run.Status,
		&run.LockedAt, &run.LockedBy, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payslip.PayrollRun{}, payslip.ErrRunNotFound
		}
		return payslip.PayrollRun{}, fmt.Errorf("failed to get payroll run: %w", err)
	}

	return run, nil
}

func (r *payrollRunRepository) HasRunInProgress(ctx context.Context, companyID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM payroll_runs
			WHERE company_id = $1 AND status IN ($2, $3)
		)
	`

	var exists bool
	err := q.QueryRow(ctx, query, companyID, payslip.RunProcessing, payslip.RunCalculating).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check in-progress runs: %w", err)
	}

	return exists, nil
}

// TryAcquireRunLock takes a transaction-scoped advisory lock keyed on
// company+period. Released automatically at commit/rollback, so a crashed
// calculation never leaves the company locked.
func (r *payrollRunRepository) TryAcquireRunLock(ctx context.Context, companyID string, year, month int) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var acquired bool
	err := q.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, runLockKey(companyID, year, month)).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	return acquired, nil
}

// runLockKey folds company+period into the single signed 64-bit key the
// advisory lock API takes.
func runLockKey(companyID string, year, month int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%04d-%02d", companyID, year, month)
	return int64(h.Sum64())
}

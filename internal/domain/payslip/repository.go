package payslip

import "context"

// PayslipLineRepository defines data access for payslip lines.
type PayslipLineRepository interface {
	GetPayslip(ctx context.Context, payslipID string) (Payslip, error)
	ListByPayslip(ctx context.Context, payslipID string) ([]PayslipLine, error)
	// DeletePolicyLines removes every POLICY-sourced line for the payslip and
	// returns how many rows were removed.
	DeletePolicyLines(ctx context.Context, payslipID string) (int64, error)
	BulkInsert(ctx context.Context, lines []PayslipLine) (int64, error)
}

// PeriodRepository reads the payroll period state machine. This engine never
// transitions a period itself.
type PeriodRepository interface {
	GetByMonth(ctx context.Context, companyID string, year, month int) (PayrollPeriod, error)
	// ListRange returns the periods in the inclusive [start, end] month range
	// that have rows; months with no row are simply absent.
	ListRange(ctx context.Context, companyID string, startYear, startMonth, endYear, endMonth int) ([]PayrollPeriod, error)
}

// RunRepository reads payroll run state and provides the company-level
// execution lock.
type RunRepository interface {
	GetByID(ctx context.Context, runID string) (PayrollRun, error)
	HasRunInProgress(ctx context.Context, companyID string) (bool, error)
	// TryAcquireRunLock takes a transaction-scoped advisory lock for the
	// company+period so two calculations cannot interleave. Must be called
	// inside a transaction; returns false when another run holds the lock.
	TryAcquireRunLock(ctx context.Context, companyID string, year, month int) (bool, error)
}

// ComponentRepository is the read-only view of the salary component catalogue.
type ComponentRepository interface {
	ListActiveByCompany(ctx context.Context, companyID string) ([]SalaryComponent, error)
	GetByCode(ctx context.Context, companyID string, code string) (SalaryComponent, error)
}

package payslip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
)

// PeriodLockGuard is the gatekeeper in front of every policy-authored write:
// nothing touches a locked, approved or paid period, and policy definitions
// freeze company-wide while any run is calculating.
//
// Enforcement is advisory - checked at the start of each mutating call, not
// by a database constraint. Payroll locking is a human-triggered, infrequent
// action, so the window between check and write is accepted.
type PeriodLockGuard struct {
	periodRepo payslip.PeriodRepository
	runRepo    payslip.RunRepository
	now        func() time.Time
}

func NewPeriodLockGuard(periodRepo payslip.PeriodRepository, runRepo payslip.RunRepository) *PeriodLockGuard {
	return &PeriodLockGuard{
		periodRepo: periodRepo,
		runRepo:    runRepo,
		now:        time.Now,
	}
}

// IsPayrollPeriodLocked reports the lock state of a period; year/month of
// zero default to the current month. A period with no row was never opened
// and is not locked.
func (g *PeriodLockGuard) IsPayrollPeriodLocked(ctx context.Context, companyID string, year, month int) (payslip.LockStatusResponse, error) {
	if year == 0 || month == 0 {
		now := g.now()
		year, month = now.Year(), int(now.Month())
	}

	period, err := g.periodRepo.GetByMonth(ctx, companyID, year, month)
	if err != nil {
		if errors.Is(err, payslip.ErrPeriodNotFound) {
			return payslip.LockStatusResponse{IsLocked: false}, nil
		}
		return payslip.LockStatusResponse{}, fmt.Errorf("failed to get payroll period: %w", err)
	}

	if !period.Status.Immutable() {
		return payslip.LockStatusResponse{IsLocked: false}, nil
	}

	label := period.Label()
	status := payslip.LockStatusResponse{
		IsLocked:     true,
		LockedPeriod: &label,
		LockedBy:     period.LockedBy,
	}
	if period.LockedAt != nil {
		at := period.LockedAt.Format(time.RFC3339)
		status.LockedAt = &at
	}
	return status, nil
}

// GuardNotLocked fails fast when the run behind runID has been locked.
// An empty runID is a valid no-op: some lines are not run-scoped.
func (g *PeriodLockGuard) GuardNotLocked(ctx context.Context, runID string) error {
	if runID == "" {
		return nil
	}

	run, err := g.runRepo.GetByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get payroll run: %w", err)
	}

	if run.LockedAt != nil {
		return &payslip.LockedPeriodError{
			Periods: []string{payslip.PeriodLabel(run.PeriodYear, run.PeriodMonth)},
		}
	}
	return nil
}

// ValidatePolicyModification rejects policy definition changes when the
// current period is locked or when any run for the company is mid-
// calculation. Editing a definition during a run would make later employees
// inconsistent with the ones already computed.
func (g *PeriodLockGuard) ValidatePolicyModification(ctx context.Context, companyID string) error {
	status, err := g.IsPayrollPeriodLocked(ctx, companyID, 0, 0)
	if err != nil {
		return err
	}
	if status.IsLocked {
		return &payslip.LockedPeriodError{Periods: []string{*status.LockedPeriod}}
	}

	inProgress, err := g.runRepo.HasRunInProgress(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to check in-progress runs: %w", err)
	}
	if inProgress {
		return payslip.ErrRunInProgress
	}

	return nil
}

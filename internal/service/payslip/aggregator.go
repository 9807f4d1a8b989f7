package payslip

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/database"
	"github.com/rawatib-hr/policy-engine-go/internal/repository/postgresql"
	"github.com/shopspring/decimal"
)

// LineAggregator merges raw per-policy payslip lines into one canonical line
// per (component, sign) and owns the replace-not-append persistence of
// POLICY-sourced lines.
type LineAggregator struct {
	db            *database.DB
	lineRepo      payslip.PayslipLineRepository
	componentRepo payslip.ComponentRepository
	lockGuard     *PeriodLockGuard
	logger        *slog.Logger
}

func NewLineAggregator(
	db *database.DB,
	lineRepo payslip.PayslipLineRepository,
	componentRepo payslip.ComponentRepository,
	lockGuard *PeriodLockGuard,
	logger *slog.Logger,
) *LineAggregator {
	return &LineAggregator{
		db:            db,
		lineRepo:      lineRepo,
		componentRepo: componentRepo,
		lockGuard:     lockGuard,
		logger:        logger,
	}
}

// MergeLinesByComponent collapses lines sharing (componentID, sign) into one
// line. Amounts are summed then rounded to 2 decimals, so rounding error
// never compounds per line. Units sum when any member carries them; a rate
// that differs across members is cleared because no single rate can
// represent the merged group. Output keeps the insertion order of each
// group's first occurrence. Merging an already-merged set is a no-op.
func (a *LineAggregator) MergeLinesByComponent(lines []payslip.PayslipLine) []payslip.PayslipLine {
	type group struct {
		index     int
		line      payslip.PayslipLine
		members   int
		rate      *decimal.Decimal
		rateMixed bool
	}

	groups := make(map[string]*group)
	var order []string

	for _, line := range lines {
		key := line.ComponentID + ":" + string(line.Sign)
		g, ok := groups[key]
		if !ok {
			g = &group{index: len(order), line: line, members: 1, rate: line.Rate}
			groups[key] = g
			order = append(order, key)
			continue
		}

		g.members++
		g.line.Amount = g.line.Amount.Add(line.Amount)
		if line.Units != nil {
			if g.line.Units == nil {
				zero := decimal.Zero
				g.line.Units = &zero
			}
			summed := g.line.Units.Add(*line.Units)
			g.line.Units = &summed
		}
		if !ratesEqual(g.rate, line.Rate) {
			g.rateMixed = true
		}
	}

	merged := make([]payslip.PayslipLine, 0, len(order))
	for _, key := range order {
		g := groups[key]
		line := g.line
		line.Amount = line.Amount.Round(2)
		if g.members > 1 {
			line.SourceRef = payslip.SourceRefMerged
			line.DescriptionAr = fmt.Sprintf("%s - مجمّع", line.ComponentName)
			if g.rateMixed {
				line.Rate = nil
			}
		}
		merged = append(merged, line)
	}

	return merged
}

func ratesEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// SavePolicyLines replaces every POLICY-sourced line of the payslip with the
// merged candidate set, atomically. Stray component ids are logged as a
// data-quality warning, not rejected.
func (a *LineAggregator) SavePolicyLines(ctx context.Context, payslipID string, lines []payslip.PayslipLine, companyID string) (payslip.SaveLinesResult, error) {
	slip, err := a.lineRepo.GetPayslip(ctx, payslipID)
	if err != nil {
		return payslip.SaveLinesResult{}, err
	}
	if slip.CompanyID != companyID {
		return payslip.SaveLinesResult{}, payslip.ErrTenantMismatch
	}

	runID := ""
	if slip.RunID != nil {
		runID = *slip.RunID
	}
	if err := a.lockGuard.GuardNotLocked(ctx, runID); err != nil {
		return payslip.SaveLinesResult{}, err
	}

	merged := a.MergeLinesByComponent(lines)
	a.validateComponents(ctx, companyID, payslipID, merged)

	for i := range merged {
		merged[i].PayslipID = payslipID
		merged[i].SourceType = payslip.SourcePolicy
	}

	var result payslip.SaveLinesResult
	err = a.withTx(ctx, func(txCtx context.Context) error {
		deleted, err := a.lineRepo.DeletePolicyLines(txCtx, payslipID)
		if err != nil {
			return fmt.Errorf("failed to delete existing policy lines: %w", err)
		}
		inserted, err := a.lineRepo.BulkInsert(txCtx, merged)
		if err != nil {
			return fmt.Errorf("failed to insert merged lines: %w", err)
		}
		result = payslip.SaveLinesResult{Inserted: inserted, Deleted: deleted}
		return nil
	})
	if err != nil {
		return payslip.SaveLinesResult{}, err
	}

	return result, nil
}

// ListLines returns every line on a payslip, tenant-checked.
func (a *LineAggregator) ListLines(ctx context.Context, payslipID string, companyID string) ([]payslip.LineResponse, error) {
	slip, err := a.lineRepo.GetPayslip(ctx, payslipID)
	if err != nil {
		return nil, err
	}
	if slip.CompanyID != companyID {
		return nil, payslip.ErrTenantMismatch
	}

	lines, err := a.lineRepo.ListByPayslip(ctx, payslipID)
	if err != nil {
		return nil, err
	}

	result := make([]payslip.LineResponse, 0, len(lines))
	for _, l := range lines {
		result = append(result, payslip.LineResponse{
			ID:            l.ID,
			PayslipID:     l.PayslipID,
			ComponentID:   l.ComponentID,
			ComponentName: l.ComponentName,
			Sign:          string(l.Sign),
			Amount:        l.Amount,
			Units:         l.Units,
			Rate:          l.Rate,
			SourceType:    string(l.SourceType),
			SourceRef:     l.SourceRef,
			DescriptionAr: l.DescriptionAr,
		})
	}
	return result, nil
}

// validateComponents checks every referenced component against the company
// catalogue. Unknown ids get a warning log and go through anyway.
func (a *LineAggregator) validateComponents(ctx context.Context, companyID, payslipID string, lines []payslip.PayslipLine) {
	components, err := a.componentRepo.ListActiveByCompany(ctx, companyID)
	if err != nil {
		a.logger.WarnContext(ctx, "could not load component catalogue for validation",
			slog.String("company_id", companyID),
			slog.String("error", err.Error()))
		return
	}

	known := make(map[string]struct{}, len(components))
	for _, c := range components {
		known[c.ID] = struct{}{}
	}

	for _, line := range lines {
		if _, ok := known[line.ComponentID]; !ok {
			a.logger.WarnContext(ctx, "payslip line references component outside company catalogue",
				slog.String("company_id", companyID),
				slog.String("payslip_id", payslipID),
				slog.String("component_id", line.ComponentID))
		}
	}
}

// withTx runs fn inside a database transaction when a pool is wired; tests
// run the repositories directly. When the caller already opened a
// transaction (run execution wraps the whole run in one) it is reused.
func (a *LineAggregator) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value("tx").(pgx.Tx); ok || a.db == nil {
		return fn(ctx)
	}
	return postgresql.WithTransaction(ctx, a.db, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, "tx", tx))
	})
}

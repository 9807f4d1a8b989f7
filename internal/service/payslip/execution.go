package payslip

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/audit"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/policy"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/database"
	"github.com/rawatib-hr/policy-engine-go/internal/repository/postgresql"
	auditService "github.com/rawatib-hr/policy-engine-go/internal/service/audit"
	"github.com/rawatib-hr/policy-engine-go/internal/service/laborlaw"
	"github.com/shopspring/decimal"
)

// ExecutionServiceImpl runs the company's active policies over one payroll
// run: trigger matching, condition evaluation, statutory capping, line
// aggregation and persistence, in that order per employee. Employees are
// processed sequentially; the whole run executes inside one transaction
// guarded by an advisory lock, so two calculations for the same
// company+period cannot interleave.
type ExecutionServiceImpl struct {
	db            *database.DB
	policyRepo    policy.PolicyRepository
	runRepo       payslip.RunRepository
	componentRepo payslip.ComponentRepository
	aggregator    *LineAggregator
	lockGuard     *PeriodLockGuard
	laborLaw      *laborlaw.LaborLawServiceImpl
	recorder      *auditService.RecorderImpl
	evaluator     policy.ConditionEvaluator
	logger        *slog.Logger
}

func NewExecutionService(
	db *database.DB,
	policyRepo policy.PolicyRepository,
	runRepo payslip.RunRepository,
	componentRepo payslip.ComponentRepository,
	aggregator *LineAggregator,
	lockGuard *PeriodLockGuard,
	laborLaw *laborlaw.LaborLawServiceImpl,
	recorder *auditService.RecorderImpl,
	logger *slog.Logger,
) payslip.ExecutionService {
	return &ExecutionServiceImpl{
		db:            db,
		policyRepo:    policyRepo,
		runRepo:       runRepo,
		componentRepo: componentRepo,
		aggregator:    aggregator,
		lockGuard:     lockGuard,
		laborLaw:      laborLaw,
		recorder:      recorder,
		evaluator:     policy.NewConditionEvaluator(),
		logger:        logger,
	}
}

// policyTally accumulates per-policy execution stats across the run.
type policyTally struct {
	fired    int
	paid     decimal.Decimal
	deducted decimal.Decimal
}

func (s *ExecutionServiceImpl) ExecuteRun(ctx context.Context, req payslip.ExecuteRunRequest) (payslip.ExecuteRunResponse, error) {
	if err := req.Validate(); err != nil {
		return payslip.ExecuteRunResponse{}, err
	}

	companyID, _, err := executionClaims(ctx)
	if err != nil {
		return payslip.ExecuteRunResponse{}, err
	}

	run, err := s.runRepo.GetByID(ctx, req.RunID)
	if err != nil {
		return payslip.ExecuteRunResponse{}, err
	}
	if run.CompanyID != companyID {
		return payslip.ExecuteRunResponse{}, payslip.ErrTenantMismatch
	}
	if err := s.lockGuard.GuardNotLocked(ctx, run.ID); err != nil {
		return payslip.ExecuteRunResponse{}, err
	}

	active, err := s.policyRepo.ListByStatuses(ctx, companyID, []policy.Status{policy.StatusActive})
	if err != nil {
		return payslip.ExecuteRunResponse{}, fmt.Errorf("failed to list active policies: %w", err)
	}

	components, err := s.componentCatalogue(ctx, companyID)
	if err != nil {
		return payslip.ExecuteRunResponse{}, err
	}

	response := payslip.ExecuteRunResponse{RunID: run.ID}
	tallies := make(map[string]*policyTally)

	err = s.withTx(ctx, func(txCtx context.Context) error {
		acquired, err := s.runRepo.TryAcquireRunLock(txCtx, companyID, run.PeriodYear, run.PeriodMonth)
		if err != nil {
			return fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if !acquired {
			return payslip.ErrRunInProgress
		}

		for _, employee := range req.Employees {
			result, err := s.processEmployee(txCtx, run, employee, active, components, tallies)
			if err != nil {
				return fmt.Errorf("failed to process employee %s: %w", employee.EmployeeID, err)
			}
			response.Results = append(response.Results, result)
			response.Processed++
		}

		for policyID, tally := range tallies {
			if err := s.policyRepo.IncrementExecutionStats(txCtx, policyID, tally.paid, tally.deducted); err != nil {
				return fmt.Errorf("failed to update execution stats for policy %s: %w", policyID, err)
			}
		}
		return nil
	})
	if err != nil {
		return payslip.ExecuteRunResponse{}, err
	}

	for policyID, tally := range tallies {
		s.recorder.Log(ctx, audit.EventExecutionCompleted, policyID, audit.ActorSystem, map[string]any{
			"run_id":             run.ID,
			"period":             payslip.PeriodLabel(run.PeriodYear, run.PeriodMonth),
			"employees_affected": tally.fired,
			"total_paid":         tally.paid,
			"total_deducted":     tally.deducted,
		}, companyID)
	}

	return response, nil
}

// processEmployee evaluates every active policy for one employee and
// persists the merged, capped result. Capping completes before anything is
// written for the employee.
func (s *ExecutionServiceImpl) processEmployee(
	ctx context.Context,
	run payslip.PayrollRun,
	employee payslip.EmployeeExecutionContext,
	active []policy.Policy,
	components map[string]payslip.SalaryComponent,
	tallies map[string]*policyTally,
) (payslip.EmployeeExecutionResult, error) {
	result := payslip.EmployeeExecutionResult{
		EmployeeID:    employee.EmployeeID,
		PayslipID:     employee.PayslipID,
		TotalAdded:    decimal.Zero,
		TotalDeducted: decimal.Zero,
	}

	events := make(map[string]struct{}, len(employee.Events))
	for _, e := range employee.Events {
		events[e] = struct{}{}
	}

	var additions []payslip.PayslipLine
	var proposed []laborlaw.ProposedDeduction
	deductionRefs := make(map[string]string)
	firedByPolicy := make(map[string]bool)

	for _, p := range active {
		if _, ok := events[string(p.TriggerEvent)]; !ok {
			continue
		}
		if !s.evaluator.Matches(p.Conditions, employee.Facts) {
			continue
		}

		firedByPolicy[p.ID] = true
		result.PoliciesFired = append(result.PoliciesFired, p.ID)

		for i, a := range p.Actions {
			sourceRef := fmt.Sprintf("%s:%d", p.ID, i)
			switch {
			case a.IsAddition():
				line, ok := s.buildLine(ctx, employee.PayslipID, a, components, payslip.SignAdd, sourceRef)
				if !ok {
					continue
				}
				additions = append(additions, line)
			case a.IsDeduction():
				if a.ComponentCode == nil {
					continue
				}
				proposed = append(proposed, laborlaw.ProposedDeduction{
					PolicyID:      p.ID,
					ComponentCode: *a.ComponentCode,
					Amount:        a.Value,
				})
				deductionRefs[*a.ComponentCode] = sourceRef
			default:
				s.logger.InfoContext(ctx, "policy flagged employee for review",
					slog.String("policy_id", p.ID),
					slog.String("employee_id", employee.EmployeeID))
			}
		}
	}

	capResult := s.laborLaw.ApplyLaborLawCaps(employee.BaseSalary, proposed)
	result.DeductionCapped = capResult.WasCapped

	lines := additions
	for _, d := range capResult.Details {
		component, ok := components[d.ComponentCode]
		if !ok {
			s.logger.WarnContext(ctx, "deduction references component outside company catalogue",
				slog.String("component_code", d.ComponentCode),
				slog.String("policy_id", d.PolicyID))
			continue
		}
		lines = append(lines, payslip.PayslipLine{
			PayslipID:     employee.PayslipID,
			ComponentID:   component.ID,
			ComponentName: component.NameAr,
			Sign:          payslip.SignDeduct,
			Amount:        d.Capped,
			SourceType:    payslip.SourcePolicy,
			SourceRef:     deductionRefs[d.ComponentCode],
			DescriptionAr: component.NameAr,
		})
	}

	// Persist even an empty candidate set: the replace step must still clear
	// POLICY lines left behind by an earlier execution of the same run.
	saved, err := s.aggregator.SavePolicyLines(ctx, employee.PayslipID, lines, run.CompanyID)
	if err != nil {
		return payslip.EmployeeExecutionResult{}, err
	}
	result.LinesPersisted = saved.Inserted

	for _, line := range additions {
		result.TotalAdded = result.TotalAdded.Add(line.Amount)
	}
	for _, d := range capResult.Details {
		result.TotalDeducted = result.TotalDeducted.Add(d.Capped)
	}

	// Attribute totals to the policies that fired so their counters and
	// running totals stay honest.
	for policyID := range firedByPolicy {
		tally, ok := tallies[policyID]
		if !ok {
			tally = &policyTally{paid: decimal.Zero, deducted: decimal.Zero}
			tallies[policyID] = tally
		}
		tally.fired++
	}
	for _, line := range additions {
		if t := tallyForRef(tallies, line.SourceRef); t != nil {
			t.paid = t.paid.Add(line.Amount)
		}
	}
	for _, d := range capResult.Details {
		if t, ok := tallies[d.PolicyID]; ok {
			t.deducted = t.deducted.Add(d.Capped)
		}
	}

	return result, nil
}

// buildLine resolves an action's component code against the catalogue.
// Unknown codes are logged and skipped.
func (s *ExecutionServiceImpl) buildLine(
	ctx context.Context,
	payslipID string,
	a policy.Action,
	components map[string]payslip.SalaryComponent,
	sign payslip.LineSign,
	sourceRef string,
) (payslip.PayslipLine, bool) {
	if a.ComponentCode == nil {
		return payslip.PayslipLine{}, false
	}
	component, ok := components[*a.ComponentCode]
	if !ok {
		s.logger.WarnContext(ctx, "action references component outside company catalogue",
			slog.String("component_code", *a.ComponentCode),
			slog.String("source_ref", sourceRef))
		return payslip.PayslipLine{}, false
	}
	return payslip.PayslipLine{
		PayslipID:     payslipID,
		ComponentID:   component.ID,
		ComponentName: component.NameAr,
		Sign:          sign,
		Amount:        a.Value,
		SourceType:    payslip.SourcePolicy,
		SourceRef:     sourceRef,
		DescriptionAr: component.NameAr,
	}, true
}

func (s *ExecutionServiceImpl) componentCatalogue(ctx context.Context, companyID string) (map[string]payslip.SalaryComponent, error) {
	components, err := s.componentRepo.ListActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load component catalogue: %w", err)
	}
	byCode := make(map[string]payslip.SalaryComponent, len(components))
	for _, c := range components {
		byCode[c.Code] = c
	}
	return byCode, nil
}

func tallyForRef(tallies map[string]*policyTally, sourceRef string) *policyTally {
	for policyID, tally := range tallies {
		if len(sourceRef) > len(policyID) && sourceRef[:len(policyID)] == policyID && sourceRef[len(policyID)] == ':' {
			return tally
		}
	}
	return nil
}

func (s *ExecutionServiceImpl) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.db == nil {
		return fn(ctx)
	}
	return postgresql.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, "tx", tx))
	})
}

// executionClaims mirrors the claims helper the policy service uses; run
// execution is authorized with the same tenant claims.
func executionClaims(ctx context.Context) (companyID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return companyID, userID, nil
}

package policy

import (
	"context"
	"fmt"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/audit"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/policy"
	auditService "github.com/rawatib-hr/policy-engine-go/internal/service/audit"
	"github.com/rawatib-hr/policy-engine-go/internal/service/laborlaw"
	payslipService "github.com/rawatib-hr/policy-engine-go/internal/service/payslip"
	"github.com/shopspring/decimal"
)

type PolicyServiceImpl struct {
	policyRepo policy.PolicyRepository
	detector   *ConflictDetector
	evaluator  policy.ConditionEvaluator
	lockGuard  *payslipService.PeriodLockGuard
	laborLaw   *laborlaw.LaborLawServiceImpl
	recorder   *auditService.RecorderImpl
}

func NewPolicyService(
	policyRepo policy.PolicyRepository,
	detector *ConflictDetector,
	lockGuard *payslipService.PeriodLockGuard,
	laborLaw *laborlaw.LaborLawServiceImpl,
	recorder *auditService.RecorderImpl,
) policy.PolicyService {
	return &PolicyServiceImpl{
		policyRepo: policyRepo,
		detector:   detector,
		evaluator:  policy.NewConditionEvaluator(),
		lockGuard:  lockGuard,
		laborLaw:   laborLaw,
		recorder:   recorder,
	}
}

// Helper to get company_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (companyID, userID string, err error) {
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

// ========== LIFECYCLE ==========

func (s *PolicyServiceImpl) Create(ctx context.Context, req policy.CreatePolicyRequest) (policy.PolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return policy.PolicyResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	if err := s.lockGuard.ValidatePolicyModification(ctx, companyID); err != nil {
		return policy.PolicyResponse{}, err
	}

	p := policy.Policy{
		CompanyID:         companyID,
		Name:              req.Name,
		TriggerEvent:      policy.TriggerEvent(req.TriggerEvent),
		Conditions:        policy.ToConditions(req.Conditions),
		Actions:           policy.ToActions(req.Actions),
		Status:            policy.StatusDraft,
		TotalAmountPaid:   decimal.Zero,
		TotalAmountDeduct: decimal.Zero,
		CreatedBy:         userID,
	}

	created, err := s.policyRepo.Create(ctx, p)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	s.recorder.Log(ctx, audit.EventPolicyCreated, created.ID, userID, map[string]any{
		"name":          created.Name,
		"trigger_event": string(created.TriggerEvent),
	}, companyID)

	return mapToPolicyResponse(created, nil), nil
}

func (s *PolicyServiceImpl) Get(ctx context.Context, id string) (policy.PolicyResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	p, err := s.policyRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	return mapToPolicyResponse(p, nil), nil
}

func (s *PolicyServiceImpl) List(ctx context.Context, filter policy.PolicyFilter) (policy.ListPolicyResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return policy.ListPolicyResponse{}, err
	}

	policies, total, err := s.policyRepo.ListByCompany(ctx, companyID, filter)
	if err != nil {
		return policy.ListPolicyResponse{}, err
	}

	data := make([]policy.PolicyResponse, 0, len(policies))
	for _, p := range policies {
		data = append(data, mapToPolicyResponse(p, nil))
	}

	return policy.ListPolicyResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *PolicyServiceImpl) Update(ctx context.Context, req policy.UpdatePolicyRequest) (policy.PolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return policy.PolicyResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	if err := s.lockGuard.ValidatePolicyModification(ctx, companyID); err != nil {
		return policy.PolicyResponse{}, err
	}

	previous, err := s.policyRepo.GetByID(ctx, req.ID, companyID)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	updated, err := s.policyRepo.Update(ctx, companyID, req)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	// Snapshot the previous definition so the trail can reconstruct any
	// version of the rule.
	s.recorder.Log(ctx, audit.EventVersionCreated, updated.ID, userID, map[string]any{
		"previous_name":       previous.Name,
		"previous_trigger":    string(previous.TriggerEvent),
		"previous_conditions": previous.Conditions,
		"previous_actions":    previous.Actions,
	}, companyID)
	s.recorder.Log(ctx, audit.EventPolicyUpdated, updated.ID, userID, map[string]any{
		"name": updated.Name,
	}, companyID)

	return mapToPolicyResponse(updated, nil), nil
}

func (s *PolicyServiceImpl) SubmitForApproval(ctx context.Context, id string) error {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	p, err := s.policyRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if p.Status != policy.StatusDraft {
		return policy.ErrInvalidStatusChange
	}

	if err := s.policyRepo.UpdateStatus(ctx, id, companyID, policy.StatusPending); err != nil {
		return err
	}

	s.recorder.Log(ctx, audit.EventApprovalSubmitted, id, userID, nil, companyID)
	return nil
}

func (s *PolicyServiceImpl) Approve(ctx context.Context, id string) (policy.ActivationCheck, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return policy.ActivationCheck{}, err
	}

	p, err := s.policyRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return policy.ActivationCheck{}, err
	}
	if p.Status != policy.StatusPending {
		return policy.ActivationCheck{}, policy.ErrInvalidStatusChange
	}

	check, err := s.activateGated(ctx, id, companyID, userID)
	if err != nil {
		return check, err
	}

	s.recorder.Log(ctx, audit.EventApprovalApproved, id, userID, nil, companyID)
	return check, nil
}

func (s *PolicyServiceImpl) Reject(ctx context.Context, id string) error {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	p, err := s.policyRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if p.Status != policy.StatusPending {
		return policy.ErrInvalidStatusChange
	}

	if err := s.policyRepo.UpdateStatus(ctx, id, companyID, policy.StatusDraft); err != nil {
		return err
	}

	s.recorder.Log(ctx, audit.EventApprovalRejected, id, userID, nil, companyID)
	return nil
}

func (s *PolicyServiceImpl) Activate(ctx context.Context, req policy.ActivatePolicyRequest) (policy.ActivationCheck, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return policy.ActivationCheck{}, err
	}

	p, err := s.policyRepo.GetByID(ctx, req.ID, companyID)
	if err != nil {
		return policy.ActivationCheck{}, err
	}
	if p.Status == policy.StatusActive {
		return policy.ActivationCheck{}, policy.ErrPolicyAlreadyActive
	}

	return s.activateGated(ctx, req.ID, companyID, userID)
}

// activateGated runs the conflict gate and flips the status. HIGH-severity
// conflicts refuse activation outright.
func (s *PolicyServiceImpl) activateGated(ctx context.Context, id, companyID, userID string) (policy.ActivationCheck, error) {
	check, err := s.detector.ValidateBeforeActivation(ctx, id, companyID)
	if err != nil {
		return policy.ActivationCheck{}, err
	}

	if len(check.BlockingReasons) > 0 || len(check.Warnings) > 0 {
		s.recorder.Log(ctx, audit.EventConflictDetected, id, userID, map[string]any{
			"blocking": check.BlockingReasons,
			"warnings": check.Warnings,
		}, companyID)
	}

	if !check.CanActivate {
		return check, &policy.ConflictError{PolicyID: id, Reasons: check.BlockingReasons}
	}

	if err := s.policyRepo.UpdateStatus(ctx, id, companyID, policy.StatusActive); err != nil {
		return policy.ActivationCheck{}, err
	}

	s.recorder.Log(ctx, audit.EventPolicyActivated, id, userID, map[string]any{
		"warnings": check.Warnings,
	}, companyID)

	return check, nil
}

func (s *PolicyServiceImpl) Deactivate(ctx context.Context, id string) error {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	p, err := s.policyRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if p.Status != policy.StatusActive {
		return policy.ErrPolicyNotActive
	}

	if err := s.policyRepo.UpdateStatus(ctx, id, companyID, policy.StatusInactive); err != nil {
		return err
	}

	s.recorder.Log(ctx, audit.EventPolicyDeactivated, id, userID, nil, companyID)
	return nil
}

func (s *PolicyServiceImpl) Delete(ctx context.Context, id string) error {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	if err := s.lockGuard.ValidatePolicyModification(ctx, companyID); err != nil {
		return err
	}

	p, err := s.policyRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}

	if err := s.policyRepo.SoftDelete(ctx, id, companyID); err != nil {
		return err
	}

	// Soft delete keeps the row; the audit snapshot keeps the meaning.
	s.recorder.Log(ctx, audit.EventPolicyDeleted, id, userID, map[string]any{
		"name":          p.Name,
		"trigger_event": string(p.TriggerEvent),
		"conditions":    p.Conditions,
		"actions":       p.Actions,
		"status":        string(p.Status),
	}, companyID)

	return nil
}

// ========== CONFLICTS ==========

func (s *PolicyServiceImpl) DetectConflicts(ctx context.Context, id string) (policy.ConflictReport, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return policy.ConflictReport{}, err
	}

	report, err := s.detector.DetectConflicts(ctx, id, companyID)
	if err != nil {
		return policy.ConflictReport{}, err
	}

	if report.HasConflicts {
		s.recorder.Log(ctx, audit.EventConflictDetected, id, userID, map[string]any{
			"conflicts": report.Conflicts,
		}, companyID)
	}

	return report, nil
}

func (s *PolicyServiceImpl) ConflictMatrix(ctx context.Context) ([]policy.MatrixEntry, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return s.detector.ConflictMatrix(ctx, companyID)
}

// ========== SIMULATION ==========

// Simulate dry-runs one policy against a hypothetical employee context.
// Nothing is persisted; the statutory cap is applied to the produced
// deductions exactly as execution would.
func (s *PolicyServiceImpl) Simulate(ctx context.Context, req policy.SimulatePolicyRequest) (policy.SimulationResult, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return policy.SimulationResult{}, err
	}

	p, err := s.policyRepo.GetByID(ctx, req.PolicyID, companyID)
	if err != nil {
		return policy.SimulationResult{}, err
	}

	result := policy.SimulationResult{
		TotalAdd:     decimal.Zero,
		TotalDeduct:  decimal.Zero,
		CappedDeduct: decimal.Zero,
	}

	if s.evaluator.Matches(p.Conditions, req.Facts) {
		result.Fired = true

		var proposed []laborlaw.ProposedDeduction
		for _, a := range p.Actions {
			if a.ComponentCode == nil {
				continue
			}
			switch {
			case a.IsAddition():
				result.Lines = append(result.Lines, policy.SimulatedLine{
					ComponentCode: *a.ComponentCode,
					Sign:          "ADD",
					Amount:        a.Value,
				})
				result.TotalAdd = result.TotalAdd.Add(a.Value)
			case a.IsDeduction():
				proposed = append(proposed, laborlaw.ProposedDeduction{
					PolicyID:      p.ID,
					ComponentCode: *a.ComponentCode,
					Amount:        a.Value,
				})
				result.TotalDeduct = result.TotalDeduct.Add(a.Value)
			}
		}

		capResult := s.laborLaw.ApplyLaborLawCaps(req.BaseSalary, proposed)
		result.WasCapped = capResult.WasCapped
		result.CappedDeduct = capResult.Capped
		for _, d := range capResult.Details {
			result.Lines = append(result.Lines, policy.SimulatedLine{
				ComponentCode: d.ComponentCode,
				Sign:          "DEDUCT",
				Amount:        d.Capped,
			})
		}
		if capResult.WasCapped {
			limits := s.laborLaw.ValidateLaborLawLimits(req.BaseSalary, capResult.Original, 0, false)
			for _, v := range limits.Violations {
				result.CapViolations = append(result.CapViolations, v.MessageAr)
			}
		}
	}

	s.recorder.Log(ctx, audit.EventSimulationRun, p.ID, userID, map[string]any{
		"fired":       result.Fired,
		"base_salary": req.BaseSalary,
		"was_capped":  result.WasCapped,
	}, companyID)

	return result, nil
}

// ========== HELPERS ==========

func mapToPolicyResponse(p policy.Policy, warnings []policy.PolicyConflict) policy.PolicyResponse {
	return policy.PolicyResponse{
		ID:                p.ID,
		CompanyID:         p.CompanyID,
		Name:              p.Name,
		TriggerEvent:      string(p.TriggerEvent),
		Conditions:        p.Conditions,
		Actions:           p.Actions,
		Status:            string(p.Status),
		ExecutionCount:    p.ExecutionCount,
		TotalAmountPaid:   p.TotalAmountPaid,
		TotalAmountDeduct: p.TotalAmountDeduct,
		Warnings:          warnings,
	}
}

package policy

import (
	"context"
	"fmt"

	"github.com/rawatib-hr/policy-engine-go/internal/domain/policy"
)

// conflictStatuses are the peer statuses a new or edited policy is screened
// against. Conflicts must always reflect the current set at call time, so
// nothing here is cached.
var conflictStatuses = []policy.Status{policy.StatusActive, policy.StatusPending}

// matrixStatuses additionally include drafts for the company-wide dashboard.
var matrixStatuses = []policy.Status{policy.StatusActive, policy.StatusPending, policy.StatusDraft}

// ConflictDetector screens a policy against its company peers for silent
// contradictions and double counting.
type ConflictDetector struct {
	policyRepo policy.PolicyRepository
	evaluator  policy.ConditionEvaluator
}

func NewConflictDetector(policyRepo policy.PolicyRepository) *ConflictDetector {
	return &ConflictDetector{
		policyRepo: policyRepo,
		evaluator:  policy.NewConditionEvaluator(),
	}
}

// DetectConflicts analyzes one policy against every ACTIVE/PENDING peer in
// the same company.
func (d *ConflictDetector) DetectConflicts(ctx context.Context, policyID, companyID string) (policy.ConflictReport, error) {
	p, err := d.policyRepo.GetByID(ctx, policyID, companyID)
	if err != nil {
		return policy.ConflictReport{}, err
	}

	peers, err := d.policyRepo.ListByStatuses(ctx, companyID, conflictStatuses)
	if err != nil {
		return policy.ConflictReport{}, fmt.Errorf("failed to list peer policies: %w", err)
	}

	report := policy.ConflictReport{}
	for _, q := range peers {
		if q.ID == p.ID {
			continue
		}
		if c := d.conflictBetween(p, q); c != nil {
			report.Conflicts = append(report.Conflicts, *c)
			if c.Severity != policy.SeverityHigh {
				report.Warnings = append(report.Warnings, c.Reason)
			}
		}
	}
	report.HasConflicts = len(report.Conflicts) > 0

	return report, nil
}

// conflictBetween classifies the relationship between two policies. The
// classification is symmetric: swapping p and q yields the same type and
// severity.
func (d *ConflictDetector) conflictBetween(p, q policy.Policy) *policy.PolicyConflict {
	if p.TriggerEvent != q.TriggerEvent {
		return nil
	}

	overlap := d.evaluator.Overlaps(p.Conditions, q.Conditions)
	if !overlap.Overlaps {
		return nil
	}

	if conflicting, reason := checkActionConflict(p.Actions, q.Actions); conflicting {
		return &policy.PolicyConflict{
			PolicyID:   q.ID,
			PolicyName: q.Name,
			Type:       policy.ConflictContradictingActions,
			Severity:   policy.SeverityHigh,
			Reason:     fmt.Sprintf("%s (%s)", reason, overlap.Reason),
		}
	}

	// Unconditional policies only trivially overlap: same trigger, nothing
	// else in common. Worth a note, not a warning about double counting.
	if len(p.Conditions) == 0 || len(q.Conditions) == 0 {
		return &policy.PolicyConflict{
			PolicyID:   q.ID,
			PolicyName: q.Name,
			Type:       policy.ConflictSameTrigger,
			Severity:   policy.SeverityLow,
			Reason:     fmt.Sprintf("policy %q fires on the same trigger and %s", q.Name, overlap.Reason),
		}
	}

	return &policy.PolicyConflict{
		PolicyID:   q.ID,
		PolicyName: q.Name,
		Type:       policy.ConflictOverlappingConditions,
		Severity:   policy.SeverityMedium,
		Reason:     fmt.Sprintf("policy %q can select the same employees: %s", q.Name, overlap.Reason),
	}
}

// checkActionConflict reports whether two action sets contradict: opposite
// signs on the same component, or the same action type with different values.
func checkActionConflict(actionsA, actionsB []policy.Action) (bool, string) {
	for _, a := range actionsA {
		for _, b := range actionsB {
			if a.ComponentCode != nil && b.ComponentCode != nil && *a.ComponentCode == *b.ComponentCode {
				if (a.IsDeduction() && b.IsAddition()) || (a.IsAddition() && b.IsDeduction()) {
					return true, fmt.Sprintf("one policy adds and the other deducts on component %s", *a.ComponentCode)
				}
			}
			if a.Type == b.Type && !a.Value.Equal(b.Value) {
				return true, fmt.Sprintf("both policies perform %s with different values (%s vs %s), precedence is ambiguous", a.Type, a.Value, b.Value)
			}
		}
	}
	return false, "no contradicting actions"
}

// ConflictMatrix runs the pairwise analysis across every active, pending and
// draft policy of a company. O(n²) over the policy count, which stays in the
// tens per company.
func (d *ConflictDetector) ConflictMatrix(ctx context.Context, companyID string) ([]policy.MatrixEntry, error) {
	policies, err := d.policyRepo.ListByStatuses(ctx, companyID, matrixStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list company policies: %w", err)
	}

	var entries []policy.MatrixEntry
	for i := 0; i < len(policies); i++ {
		for j := i + 1; j < len(policies); j++ {
			if c := d.conflictBetween(policies[i], policies[j]); c != nil {
				entries = append(entries, policy.MatrixEntry{
					PolicyAID:   policies[i].ID,
					PolicyAName: policies[i].Name,
					PolicyBID:   policies[j].ID,
					PolicyBName: policies[j].Name,
					Type:        c.Type,
					Severity:    c.Severity,
					Reason:      c.Reason,
				})
			}
		}
	}

	return entries, nil
}

// ValidateBeforeActivation gates activation: HIGH-severity conflicts block,
// lower severities come back as warnings. Activation is refused, never
// silently downgraded.
func (d *ConflictDetector) ValidateBeforeActivation(ctx context.Context, policyID, companyID string) (policy.ActivationCheck, error) {
	report, err := d.DetectConflicts(ctx, policyID, companyID)
	if err != nil {
		return policy.ActivationCheck{}, err
	}

	check := policy.ActivationCheck{CanActivate: true, Warnings: report.Warnings}
	for _, c := range report.Conflicts {
		if c.Severity == policy.SeverityHigh {
			check.CanActivate = false
			check.BlockingReasons = append(check.BlockingReasons, c.Reason)
		}
	}

	return check, nil
}

package policy

import (
	"context"

	"github.com/shopspring/decimal"
)

// SimulatePolicyRequest dry-runs one policy against a hypothetical employee.
type SimulatePolicyRequest struct {
	PolicyID   string                     `json:"policy_id"`
	BaseSalary decimal.Decimal            `json:"base_salary"`
	Facts      map[string]decimal.Decimal `json:"facts"`
}

type SimulatedLine struct {
	ComponentCode string          `json:"component_code"`
	Sign          string          `json:"sign"`
	Amount        decimal.Decimal `json:"amount"`
}

type SimulationResult struct {
	Fired         bool            `json:"fired"`
	Lines         []SimulatedLine `json:"lines"`
	TotalAdd      decimal.Decimal `json:"total_add"`
	TotalDeduct   decimal.Decimal `json:"total_deduct"`
	WasCapped     bool            `json:"was_capped"`
	CappedDeduct  decimal.Decimal `json:"capped_deduct"`
	CapViolations []string        `json:"cap_violations,omitempty"`
}

// PolicyService is the only mutation path for policy definitions.
type PolicyService interface {
	Create(ctx context.Context, req CreatePolicyRequest) (PolicyResponse, error)
	Get(ctx context.Context, id string) (PolicyResponse, error)
	List(ctx context.Context, filter PolicyFilter) (ListPolicyResponse, error)
	Update(ctx context.Context, req UpdatePolicyRequest) (PolicyResponse, error)
	SubmitForApproval(ctx context.Context, id string) error
	Approve(ctx context.Context, id string) (ActivationCheck, error)
	Reject(ctx context.Context, id string) error
	Activate(ctx context.Context, req ActivatePolicyRequest) (ActivationCheck, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DetectConflicts(ctx context.Context, id string) (ConflictReport, error)
	ConflictMatrix(ctx context.Context) ([]MatrixEntry, error)
	Simulate(ctx context.Context, req SimulatePolicyRequest) (SimulationResult, error)
}

package policy

import (
	"context"

	"github.com/shopspring/decimal"
)

// PolicyRepository defines data access methods for smart policies.
// All methods include companyID to prevent cross-company data access.
type PolicyRepository interface {
	Create(ctx context.Context, p Policy) (Policy, error)
	GetByID(ctx context.Context, id string, companyID string) (Policy, error)
	ListByCompany(ctx context.Context, companyID string, filter PolicyFilter) ([]Policy, int64, error)
	// ListByStatuses returns every non-deleted policy in the given statuses,
	// unpaginated. Used by conflict detection, which needs the full set.
	ListByStatuses(ctx context.Context, companyID string, statuses []Status) ([]Policy, error)
	Update(ctx context.Context, companyID string, req UpdatePolicyRequest) (Policy, error)
	UpdateStatus(ctx context.Context, id string, companyID string, status Status) error
	SoftDelete(ctx context.Context, id string, companyID string) error
	// IncrementExecutionStats is the only mutation payroll execution performs
	// on a policy: counters and running totals.
	IncrementExecutionStats(ctx context.Context, id string, paid, deducted decimal.Decimal) error
}

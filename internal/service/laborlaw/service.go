package laborlaw

import (
	"context"
	"errors"
	"fmt"

	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/shopspring/decimal"
)

// Statutory constants from the Saudi Labor Law. These values encode statute,
// not configuration; do not make them tunable.
var (
	// MaxMonthlyDeductionRatio - Art. 91: total deductions in a month may not
	// exceed half of the employee's wage.
	MaxMonthlyDeductionRatio = decimal.NewFromFloat(0.5)
)

const (
	// MaxSinglePenaltyDays - Art. 66: a single fine may not exceed five days'
	// wage.
	MaxSinglePenaltyDays = 5
	// MaxUnpaidSuspensionDays - Art. 66: unpaid suspension may not exceed
	// five days per month.
	MaxUnpaidSuspensionDays = 5

	ArticleMonthlyCap  = "المادة 91 من نظام العمل السعودي"
	ArticlePenaltyDays = "المادة 66 من نظام العمل السعودي"
)

// Violation codes are stable identifiers independent of message text.
const (
	CodeDeductionCapExceeded = "DEDUCTION_CAP_EXCEEDED"
	CodePenaltyDaysExceeded  = "PENALTY_DAYS_EXCEEDED"
)

type Violation struct {
	Code      string `json:"code"`
	Article   string `json:"article"`
	MessageAr string `json:"message_ar"`
}

type LimitsCheck struct {
	IsValid            bool             `json:"is_valid"`
	Violations         []Violation      `json:"violations"`
	AdjustedDeductions *decimal.Decimal `json:"adjusted_deductions,omitempty"`
}

// ProposedDeduction is one candidate deduction line entering the cap.
type ProposedDeduction struct {
	PolicyID      string          `json:"policy_id"`
	ComponentCode string          `json:"component_code"`
	Amount        decimal.Decimal `json:"amount"`
}

type CapDetail struct {
	PolicyID      string          `json:"policy_id"`
	ComponentCode string          `json:"component_code"`
	Original      decimal.Decimal `json:"original"`
	Capped        decimal.Decimal `json:"capped"`
}

type CapResult struct {
	Original  decimal.Decimal `json:"original"`
	Capped    decimal.Decimal `json:"capped"`
	WasCapped bool            `json:"was_capped"`
	Details   []CapDetail     `json:"details"`
}

type RetroactiveCheck struct {
	CanApply       bool     `json:"can_apply"`
	BlockedPeriods []string `json:"blocked_periods"`
}

// LaborLawServiceImpl enforces the statutory caps regardless of how many
// policies fire for an employee.
type LaborLawServiceImpl struct {
	periodRepo payslip.PeriodRepository
}

func NewLaborLawService(periodRepo payslip.PeriodRepository) *LaborLawServiceImpl {
	return &LaborLawServiceImpl{periodRepo: periodRepo}
}

// ValidateLaborLawLimits checks one employee's totals against the statute.
// Amount and penalty-day violations are independent: both can be present.
// When autoAdjust is set the capped amount is returned alongside the
// violation, never instead of it.
func (s *LaborLawServiceImpl) ValidateLaborLawLimits(baseSalary, totalDeductions decimal.Decimal, penaltyDays int, autoAdjust bool) LimitsCheck {
	check := LimitsCheck{IsValid: true}

	maxAllowed := baseSalary.Mul(MaxMonthlyDeductionRatio)
	if totalDeductions.GreaterThan(maxAllowed) {
		check.IsValid = false
		check.Violations = append(check.Violations, Violation{
			Code:    CodeDeductionCapExceeded,
			Article: ArticleMonthlyCap,
			MessageAr: fmt.Sprintf("إجمالي الخصومات %s يتجاوز الحد النظامي %s (50%% من الراتب الأساسي)",
				totalDeductions.StringFixed(2), maxAllowed.StringFixed(2)),
		})
		if autoAdjust {
			adjusted := maxAllowed
			check.AdjustedDeductions = &adjusted
		}
	}

	if penaltyDays > MaxSinglePenaltyDays {
		check.IsValid = false
		check.Violations = append(check.Violations, Violation{
			Code:    CodePenaltyDaysExceeded,
			Article: ArticlePenaltyDays,
			MessageAr: fmt.Sprintf("أيام الجزاء %d تتجاوز الحد الأقصى %d أيام",
				penaltyDays, MaxSinglePenaltyDays),
		})
	}

	return check
}

// ApplyLaborLawCaps scales every proposed deduction by cap/sum when the sum
// exceeds the statutory cap. Proportional reduction, not first-come-first-
// served, so simultaneously triggered policies are treated fairly. Each
// scaled amount is rounded half-up to 2 decimals, so the capped sum can
// drift from the cap by up to half a cent per line in either direction.
func (s *LaborLawServiceImpl) ApplyLaborLawCaps(baseSalary decimal.Decimal, proposed []ProposedDeduction) CapResult {
	sum := decimal.Zero
	for _, p := range proposed {
		sum = sum.Add(p.Amount)
	}

	result := CapResult{Original: sum, Capped: sum}
	maxAllowed := baseSalary.Mul(MaxMonthlyDeductionRatio)

	if sum.LessThanOrEqual(maxAllowed) || sum.IsZero() {
		for _, p := range proposed {
			result.Details = append(result.Details, CapDetail{
				PolicyID:      p.PolicyID,
				ComponentCode: p.ComponentCode,
				Original:      p.Amount,
				Capped:        p.Amount,
			})
		}
		return result
	}

	ratio := maxAllowed.Div(sum)
	capped := decimal.Zero
	for _, p := range proposed {
		scaled := p.Amount.Mul(ratio).Round(2)
		capped = capped.Add(scaled)
		result.Details = append(result.Details, CapDetail{
			PolicyID:      p.PolicyID,
			ComponentCode: p.ComponentCode,
			Original:      p.Amount,
			Capped:        scaled,
		})
	}

	result.Capped = capped
	result.WasCapped = true
	return result
}

// CanApplyRetroactively walks each month in the inclusive range and collects
// every PAID period. The full blocked list comes back, not just the first,
// so the user-facing error can name every month.
func (s *LaborLawServiceImpl) CanApplyRetroactively(ctx context.Context, companyID string, startYear, startMonth, endYear, endMonth int) (RetroactiveCheck, error) {
	periods, err := s.periodRepo.ListRange(ctx, companyID, startYear, startMonth, endYear, endMonth)
	if err != nil && !errors.Is(err, payslip.ErrPeriodNotFound) {
		return RetroactiveCheck{}, fmt.Errorf("failed to list payroll periods: %w", err)
	}

	check := RetroactiveCheck{CanApply: true}
	for _, p := range periods {
		if p.Status == payslip.PeriodPaid {
			check.CanApply = false
			check.BlockedPeriods = append(check.BlockedPeriods, p.Label())
		}
	}

	return check, nil
}

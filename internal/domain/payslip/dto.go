package payslip

import (
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== LINE DTOs ==========

type LineInput struct {
	ComponentID   string           `json:"component_id"`
	ComponentName string           `json:"component_name"`
	Sign          string           `json:"sign"`
	Amount        decimal.Decimal  `json:"amount"`
	Units         *decimal.Decimal `json:"units,omitempty"`
	Rate          *decimal.Decimal `json:"rate,omitempty"`
	SourceRef     string           `json:"source_ref"`
}

func (l *LineInput) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(l.ComponentID) {
		errs = append(errs, validator.ValidationError{Field: "component_id", Message: "is required"})
	}
	if l.Sign != string(SignAdd) && l.Sign != string(SignDeduct) {
		errs = append(errs, validator.ValidationError{Field: "sign", Message: "must be ADD or DEDUCT"})
	}
	if l.Amount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SaveLinesRequest struct {
	PayslipID string      `json:"payslip_id"`
	Lines     []LineInput `json:"lines"`
}

func (r *SaveLinesRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.PayslipID) {
		errs = append(errs, validator.ValidationError{Field: "payslip_id", Message: "is required"})
	}
	for _, l := range r.Lines {
		if err := l.Validate(); err != nil {
			if lineErrs, ok := err.(validator.ValidationErrors); ok {
				errs = append(errs, lineErrs...)
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *SaveLinesRequest) ToLines() []PayslipLine {
	lines := make([]PayslipLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, PayslipLine{
			PayslipID:     r.PayslipID,
			ComponentID:   l.ComponentID,
			ComponentName: l.ComponentName,
			Sign:          LineSign(l.Sign),
			Amount:        l.Amount,
			Units:         l.Units,
			Rate:          l.Rate,
			SourceType:    SourcePolicy,
			SourceRef:     l.SourceRef,
		})
	}
	return lines
}

// SaveLinesResult reports what a replace-not-append save actually did,
// for caller-side auditing.
type SaveLinesResult struct {
	Inserted int64 `json:"inserted"`
	Deleted  int64 `json:"deleted"`
}

type LineResponse struct {
	ID            string           `json:"id"`
	PayslipID     string           `json:"payslip_id"`
	ComponentID   string           `json:"component_id"`
	ComponentName string           `json:"component_name"`
	Sign          string           `json:"sign"`
	Amount        decimal.Decimal  `json:"amount"`
	Units         *decimal.Decimal `json:"units,omitempty"`
	Rate          *decimal.Decimal `json:"rate,omitempty"`
	SourceType    string           `json:"source_type"`
	SourceRef     string           `json:"source_ref"`
	DescriptionAr string           `json:"description_ar"`
}

// ========== LOCK DTOs ==========

type LockStatusResponse struct {
	IsLocked     bool    `json:"is_locked"`
	LockedPeriod *string `json:"locked_period,omitempty"`
	LockedAt     *string `json:"locked_at,omitempty"`
	LockedBy     *string `json:"locked_by,omitempty"`
}

// ========== EXECUTION DTOs ==========

// EmployeeExecutionContext is supplied per employee by the external payroll
// calculation collaborator: which trigger events occurred this period and
// the measured facts conditions are evaluated against.
type EmployeeExecutionContext struct {
	EmployeeID string                     `json:"employee_id"`
	PayslipID  string                     `json:"payslip_id"`
	BaseSalary decimal.Decimal            `json:"base_salary"`
	Events     []string                   `json:"events"`
	Facts      map[string]decimal.Decimal `json:"facts"`
}

type ExecuteRunRequest struct {
	RunID     string                     `json:"run_id"`
	Employees []EmployeeExecutionContext `json:"employees"`
}

func (r *ExecuteRunRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RunID) {
		errs = append(errs, validator.ValidationError{Field: "run_id", Message: "is required"})
	}
	for i, e := range r.Employees {
		if validator.IsEmpty(e.EmployeeID) {
			errs = append(errs, validator.ValidationError{
				Field:   validator.IndexedField("employees", i, "employee_id"),
				Message: "is required",
			})
		}
		if validator.IsEmpty(e.PayslipID) {
			errs = append(errs, validator.ValidationError{
				Field:   validator.IndexedField("employees", i, "payslip_id"),
				Message: "is required",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// EmployeeExecutionResult summarizes what execution did for one employee.
type EmployeeExecutionResult struct {
	EmployeeID      string          `json:"employee_id"`
	PayslipID       string          `json:"payslip_id"`
	PoliciesFired   []string        `json:"policies_fired"`
	LinesPersisted  int64           `json:"lines_persisted"`
	TotalAdded      decimal.Decimal `json:"total_added"`
	TotalDeducted   decimal.Decimal `json:"total_deducted"`
	DeductionCapped bool            `json:"deduction_capped"`
}

type ExecuteRunResponse struct {
	RunID     string                    `json:"run_id"`
	Processed int                       `json:"processed"`
	Results   []EmployeeExecutionResult `json:"results"`
}

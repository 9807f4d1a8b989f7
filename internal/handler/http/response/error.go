package response

import (
	"errors"
	"net/http"

	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/policy"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Error codes are stable
// identifiers; the Arabic message is what HR staff see.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var conflictErr *policy.ConflictError
	if errors.As(err, &conflictErr) {
		Conflict(w, conflictErr.Code(), conflictErr.Error(), conflictErr.MessageAr())
		return
	}

	var lockedErr *payslip.LockedPeriodError
	if errors.As(err, &lockedErr) {
		Forbidden(w, lockedErr.Code(), lockedErr.Error(), lockedErr.MessageAr())
		return
	}

	switch {
	// Policy domain errors
	case errors.Is(err, policy.ErrPolicyNotFound):
		NotFound(w, "Policy not found")
	case errors.Is(err, policy.ErrPolicyAlreadyActive):
		Conflict(w, "POLICY_CONFLICT", "Policy is already active", "السياسة مفعلة بالفعل")
	case errors.Is(err, policy.ErrPolicyNotActive):
		Conflict(w, "POLICY_CONFLICT", "Policy is not active", "السياسة غير مفعلة")
	case errors.Is(err, policy.ErrInvalidStatusChange):
		Conflict(w, "POLICY_CONFLICT", "Invalid policy status transition", "انتقال حالة غير صالح للسياسة")

	// Payslip domain errors
	case errors.Is(err, payslip.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payslip.ErrRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payslip.ErrPeriodNotFound):
		NotFound(w, "Payroll period not found")
	case errors.Is(err, payslip.ErrTenantMismatch):
		Forbidden(w, "FORBIDDEN_TENANT", "Resource belongs to another company", "هذا السجل يخص منشأة أخرى")
	case errors.Is(err, payslip.ErrRunInProgress):
		Conflict(w, "RUN_IN_PROGRESS", "A payroll run is currently processing", "توجد عملية احتساب رواتب قيد التنفيذ حالياً")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}

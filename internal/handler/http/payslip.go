package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/handler/http/response"
	"github.com/rawatib-hr/policy-engine-go/internal/service/laborlaw"
	payslipService "github.com/rawatib-hr/policy-engine-go/internal/service/payslip"
)

type PayslipHandler interface {
	SaveLines(w http.ResponseWriter, r *http.Request)
	ListLines(w http.ResponseWriter, r *http.Request)
	LockStatus(w http.ResponseWriter, r *http.Request)
	RetroactiveCheck(w http.ResponseWriter, r *http.Request)
	ExecuteRun(w http.ResponseWriter, r *http.Request)
}

type payslipHandlerImpl struct {
	lineService      payslip.LineService
	executionService payslip.ExecutionService
	lockGuard        *payslipService.PeriodLockGuard
	laborLaw         *laborlaw.LaborLawServiceImpl
}

func NewPayslipHandler(
	lineService payslip.LineService,
	executionService payslip.ExecutionService,
	lockGuard *payslipService.PeriodLockGuard,
	laborLaw *laborlaw.LaborLawServiceImpl,
) PayslipHandler {
	return &payslipHandlerImpl{
		lineService:      lineService,
		executionService: executionService,
		lockGuard:        lockGuard,
		laborLaw:         laborLaw,
	}
}

// ========== LINES ==========

func (h *payslipHandlerImpl) SaveLines(w http.ResponseWriter, r *http.Request) {
	var req payslip.SaveLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.PayslipID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	companyID, ok := companyIDFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing company claim")
		return
	}

	result, err := h.lineService.SavePolicyLines(r.Context(), req.PayslipID, req.ToLines(), companyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payslipHandlerImpl) ListLines(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing company claim")
		return
	}

	result, err := h.lineService.ListLines(r.Context(), chi.URLParam(r, "id"), companyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== LOCKS ==========

func (h *payslipHandlerImpl) LockStatus(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing company claim")
		return
	}

	year := parseIntQuery(r, "year", 0)
	month := parseIntQuery(r, "month", 0)

	result, err := h.lockGuard.IsPayrollPeriodLocked(r.Context(), companyID, year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// RetroactiveCheck reports whether a policy change may be applied over a
// past month range, naming every PAID period that blocks it.
func (h *payslipHandlerImpl) RetroactiveCheck(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing company claim")
		return
	}

	startYear := parseIntQuery(r, "start_year", 0)
	startMonth := parseIntQuery(r, "start_month", 0)
	endYear := parseIntQuery(r, "end_year", 0)
	endMonth := parseIntQuery(r, "end_month", 0)
	if startYear == 0 || startMonth == 0 || endYear == 0 || endMonth == 0 {
		response.BadRequest(w, "start_year, start_month, end_year and end_month are required", nil)
		return
	}

	result, err := h.laborLaw.CanApplyRetroactively(r.Context(), companyID, startYear, startMonth, endYear, endMonth)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== EXECUTION ==========

func (h *payslipHandlerImpl) ExecuteRun(w http.ResponseWriter, r *http.Request) {
	var req payslip.ExecuteRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.RunID = chi.URLParam(r, "id")

	result, err := h.executionService.ExecuteRun(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func companyIDFromRequest(r *http.Request) (string, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", false
	}
	companyID, ok := claims["company_id"].(string)
	return companyID, ok && companyID != ""
}

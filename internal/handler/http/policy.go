package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/policy"
	"github.com/rawatib-hr/policy-engine-go/internal/handler/http/response"
)

type PolicyHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	SubmitForApproval(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Activate(w http.ResponseWriter, r *http.Request)
	Deactivate(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	DetectConflicts(w http.ResponseWriter, r *http.Request)
	ConflictMatrix(w http.ResponseWriter, r *http.Request)
	Simulate(w http.ResponseWriter, r *http.Request)
}

type policyHandlerImpl struct {
	policyService policy.PolicyService
}

func NewPolicyHandler(policyService policy.PolicyService) PolicyHandler {
	return &policyHandlerImpl{policyService: policyService}
}

// ========== LIFECYCLE ==========

func (h *policyHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req policy.CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.policyService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Policy created", result)
}

func (h *policyHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.policyService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *policyHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := policy.PolicyFilter{
		Page:  parseIntQuery(r, "page", 1),
		Limit: parseIntQuery(r, "limit", 20),
	}
	for _, s := range r.URL.Query()["status"] {
		filter.Statuses = append(filter.Statuses, policy.Status(s))
	}
	if t := r.URL.Query().Get("trigger"); t != "" {
		trigger := policy.TriggerEvent(t)
		filter.Trigger = &trigger
	}

	result, err := h.policyService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := int((result.TotalCount + int64(result.Limit) - 1) / int64(result.Limit))
	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

func (h *policyHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req policy.UpdatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.policyService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *policyHandlerImpl) SubmitForApproval(w http.ResponseWriter, r *http.Request) {
	if err := h.policyService.SubmitForApproval(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Policy submitted for approval", nil)
}

func (h *policyHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	result, err := h.policyService.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *policyHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	if err := h.policyService.Reject(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Policy rejected", nil)
}

func (h *policyHandlerImpl) Activate(w http.ResponseWriter, r *http.Request) {
	var req policy.ActivatePolicyRequest
	if r.Body != nil {
		// Body is optional; acknowledge_warnings defaults to false.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.policyService.Activate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *policyHandlerImpl) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.policyService.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Policy deactivated", nil)
}

func (h *policyHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.policyService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Policy deleted", nil)
}

// ========== CONFLICTS ==========

func (h *policyHandlerImpl) DetectConflicts(w http.ResponseWriter, r *http.Request) {
	result, err := h.policyService.DetectConflicts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *policyHandlerImpl) ConflictMatrix(w http.ResponseWriter, r *http.Request) {
	result, err := h.policyService.ConflictMatrix(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== SIMULATION ==========

func (h *policyHandlerImpl) Simulate(w http.ResponseWriter, r *http.Request) {
	var req policy.SimulatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.PolicyID = chi.URLParam(r, "id")

	result, err := h.policyService.Simulate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== HELPERS ==========

func parseIntQuery(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

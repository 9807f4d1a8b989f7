package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/handler/http/response"
	auditService "github.com/rawatib-hr/policy-engine-go/internal/service/audit"
)

type AuditHandler interface {
	ListByPolicy(w http.ResponseWriter, r *http.Request)
	ListByCompany(w http.ResponseWriter, r *http.Request)
}

type auditHandlerImpl struct {
	recorder *auditService.RecorderImpl
}

func NewAuditHandler(recorder *auditService.RecorderImpl) AuditHandler {
	return &auditHandlerImpl{recorder: recorder}
}

func (h *auditHandlerImpl) ListByPolicy(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing company claim")
		return
	}

	page := parseIntQuery(r, "page", 1)
	limit := parseIntQuery(r, "limit", 20)

	result, err := h.recorder.ListByPolicy(r.Context(), chi.URLParam(r, "id"), companyID, page, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
	})
}

func (h *auditHandlerImpl) ListByCompany(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing company claim")
		return
	}

	page := parseIntQuery(r, "page", 1)
	limit := parseIntQuery(r, "limit", 20)

	result, err := h.recorder.ListByCompany(r.Context(), companyID, page, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
	})
}

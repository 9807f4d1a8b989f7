package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/rawatib-hr/policy-engine-go/internal/domain/audit"
)

// RecorderImpl writes the append-only policy audit trail. Writes are
// best-effort: a failed insert is logged and swallowed so the business
// operation that triggered it never aborts on account of bookkeeping.
type RecorderImpl struct {
	auditRepo audit.AuditRepository
	logger    *slog.Logger
}

func NewRecorder(auditRepo audit.AuditRepository, logger *slog.Logger) *RecorderImpl {
	return &RecorderImpl{auditRepo: auditRepo, logger: logger}
}

// Log records one policy lifecycle or execution event. An empty actorID is
// recorded as the SYSTEM sentinel.
func (r *RecorderImpl) Log(ctx context.Context, eventType audit.EventType, policyID, actorID string, details map[string]any, companyID string) {
	if actorID == "" {
		actorID = audit.ActorSystem
	}

	entry := audit.AuditEntry{
		Entity:    audit.EntitySmartPolicy,
		EntityID:  policyID,
		CompanyID: companyID,
		Action:    audit.ActionFor(eventType),
		EventType: eventType,
		ActorID:   actorID,
		Details:   details,
		CreatedAt: time.Now(),
	}

	if err := r.auditRepo.Insert(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "failed to write audit entry",
			slog.String("event_type", string(eventType)),
			slog.String("policy_id", policyID),
			slog.String("company_id", companyID),
			slog.String("error", err.Error()))
	}
}

// ========== QUERY SURFACE ==========

func (r *RecorderImpl) ListByPolicy(ctx context.Context, policyID, companyID string, page, limit int) (audit.ListAuditResponse, error) {
	entries, total, err := r.auditRepo.ListByEntityID(ctx, policyID, companyID, page, limit)
	if err != nil {
		return audit.ListAuditResponse{}, err
	}
	return toListResponse(entries, total, page, limit), nil
}

func (r *RecorderImpl) ListByCompany(ctx context.Context, companyID string, page, limit int) (audit.ListAuditResponse, error) {
	entries, total, err := r.auditRepo.ListByCompany(ctx, companyID, page, limit)
	if err != nil {
		return audit.ListAuditResponse{}, err
	}
	return toListResponse(entries, total, page, limit), nil
}

func toListResponse(entries []audit.AuditEntry, total int64, page, limit int) audit.ListAuditResponse {
	data := make([]audit.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, audit.AuditEntryResponse{
			ID:        e.ID,
			Entity:    e.Entity,
			EntityID:  e.EntityID,
			CompanyID: e.CompanyID,
			Action:    string(e.Action),
			EventType: string(e.EventType),
			ActorID:   e.ActorID,
			Details:   e.Details,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return audit.ListAuditResponse{
		Data:       data,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}
}

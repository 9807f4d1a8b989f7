package audit

import "context"

// AuditRepository is insert-and-query only. There is deliberately no update
// or delete method.
type AuditRepository interface {
	Insert(ctx context.Context, entry AuditEntry) error
	ListByEntityID(ctx context.Context, entityID, companyID string, page, limit int) ([]AuditEntry, int64, error)
	ListByCompany(ctx context.Context, companyID string, page, limit int) ([]AuditEntry, int64, error)
}

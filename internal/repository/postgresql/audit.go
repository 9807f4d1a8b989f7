package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/audit"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/database"
)

// auditRepository writes to the shared audit_logs table. Inserts only; the
// table carries no update or delete path from this service.
type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Insert(ctx context.Context, entry audit.AuditEntry) error {
	// Audit writes always use the pool, never the caller's transaction: a
	// rolled-back business write should still leave its attempt on record,
	// and a failed audit insert must not poison the business transaction.
	q := r.db.Pool

	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO audit_logs (id, entity, entity_id, company_id, action, event_type, actor_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = q.Exec(ctx, query,
		entry.ID, entry.Entity, entry.EntityID, entry.CompanyID, entry.Action, entry.EventType, entry.ActorID, detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

func (r *auditRepository) ListByEntityID(ctx context.Context, entityID, companyID string, page, limit int) ([]audit.AuditEntry, int64, error) {
	return r.list(ctx, "entity_id = $1 AND company_id = $2", []any{entityID, companyID}, page, limit)
}

func (r *auditRepository) ListByCompany(ctx context.Context, companyID string, page, limit int) ([]audit.AuditEntry, int64, error) {
	return r.list(ctx, "company_id = $1", []any{companyID}, page, limit)
}

func (r *auditRepository) list(ctx context.Context, where string, args []any, page, limit int) ([]audit.AuditEntry, int64, error) {
	q := GetQuerier(ctx, r.db)

	var total int64
	countQuery := "SELECT COUNT(*) FROM audit_logs WHERE entity = '" + audit.EntitySmartPolicy + "' AND " + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := fmt.Sprintf(`
		SELECT id, entity, entity_id, company_id, action, event_type, actor_id, details, created_at
		FROM audit_logs
		WHERE entity = '`+audit.EntitySmartPolicy+`' AND `+where+`
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, len(args)+1, len(args)+2)

	rows, err := q.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.AuditEntry
	for rows.Next() {
		var e audit.AuditEntry
		var detailsJSON []byte
		if err := rows.Scan(
			&e.ID, &e.Entity, &e.EntityID, &e.CompanyID, &e.Action, &e.EventType, &e.ActorID, &detailsJSON, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &e.Details); err != nil {
				return nil, 0, fmt.Errorf("failed to decode audit details: %w", err)
			}
		}
		entries = append(entries, e)
	}

	return entries, total, nil
}

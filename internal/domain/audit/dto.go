package audit

// ========== AUDIT DTOs ==========

type AuditEntryResponse struct {
	ID        string         `json:"id"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id"`
	CompanyID string         `json:"company_id"`
	Action    string         `json:"action"`
	EventType string         `json:"event_type"`
	ActorID   string         `json:"actor_id"`
	Details   map[string]any `json:"details"`
	CreatedAt string         `json:"created_at"`
}

type ListAuditResponse struct {
	Data       []AuditEntryResponse `json:"data"`
	TotalCount int64                `json:"total_count"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
}

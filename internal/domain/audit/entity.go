package audit

import "time"

// EntitySmartPolicy is the entity name this engine writes to the shared
// audit table.
const EntitySmartPolicy = "SmartPolicy"

// ActorSystem is the sentinel actor id for system-initiated events.
const ActorSystem = "SYSTEM"

// Action enum - the coarse storage-level classification.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// EventType enum - the fine-grained business meaning of an entry.
type EventType string

const (
	EventPolicyCreated      EventType = "POLICY_CREATED"
	EventPolicyUpdated      EventType = "POLICY_UPDATED"
	EventPolicyDeleted      EventType = "POLICY_DELETED"
	EventPolicyActivated    EventType = "POLICY_ACTIVATED"
	EventPolicyDeactivated  EventType = "POLICY_DEACTIVATED"
	EventApprovalSubmitted  EventType = "APPROVAL_SUBMITTED"
	EventApprovalApproved   EventType = "APPROVAL_APPROVED"
	EventApprovalRejected   EventType = "APPROVAL_REJECTED"
	EventSimulationRun      EventType = "SIMULATION_RUN"
	EventVersionCreated     EventType = "VERSION_CREATED"
	EventConflictDetected   EventType = "CONFLICT_DETECTED"
	EventExecutionCompleted EventType = "EXECUTION_COMPLETED"
)

// ActionFor flattens an event type into its storage action. Fine-grained
// meaning stays in the event type inside the details payload.
func ActionFor(e EventType) Action {
	switch e {
	case EventPolicyCreated, EventVersionCreated:
		return ActionCreate
	case EventPolicyDeleted:
		return ActionDelete
	default:
		return ActionUpdate
	}
}

// AuditEntry - append-only; never updated or deleted once written.
type AuditEntry struct {
	ID        string
	Entity    string
	EntityID  string
	CompanyID string
	Action    Action
	EventType EventType
	ActorID   string
	Details   map[string]any
	CreatedAt time.Time
}

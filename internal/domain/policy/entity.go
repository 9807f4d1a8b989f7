package policy

import (
	"time"

	"github.com/shopspring/decimal"
)

// TriggerEvent enum - the business event category that makes a policy eligible to fire
type TriggerEvent string

const (
	TriggerAttendance  TriggerEvent = "attendance"
	TriggerLeave       TriggerEvent = "leave"
	TriggerAnniversary TriggerEvent = "anniversary"
	TriggerPerformance TriggerEvent = "performance"
	TriggerContract    TriggerEvent = "contract"
)

// KnownTriggerEvents lists every valid trigger. Adding a trigger here forces
// a review of the conflict detector's trigger-matching switch.
var KnownTriggerEvents = []TriggerEvent{
	TriggerAttendance,
	TriggerLeave,
	TriggerAnniversary,
	TriggerPerformance,
	TriggerContract,
}

// Operator enum - the closed comparison set for policy conditions
type Operator string

const (
	OperatorEquals      Operator = "=="
	OperatorGreaterThan Operator = ">"
	OperatorLessThan    Operator = "<"
)

// ActionType enum
type ActionType string

const (
	ActionAddToPayroll      ActionType = "ADD_TO_PAYROLL"
	ActionDeductFromPayroll ActionType = "DEDUCT_FROM_PAYROLL"
	ActionFlagForReview     ActionType = "FLAG_FOR_REVIEW"
)

// Status enum
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// KnownConditionFields is the catalogue of fields a condition may reference.
// Values are the Arabic labels used in user-facing messages.
var KnownConditionFields = map[string]string{
	"lateCount":     "عدد مرات التأخير",
	"lateMinutes":   "دقائق التأخير",
	"absenceDays":   "أيام الغياب",
	"leaveDays":     "أيام الإجازة",
	"overtimeHours": "ساعات العمل الإضافي",
	"tenureYears":   "سنوات الخدمة",
	"rating":        "تقييم الأداء",
}

// Condition - a single {field, operator, value} predicate
type Condition struct {
	Field    string          `json:"field"`
	Operator Operator        `json:"operator"`
	Value    decimal.Decimal `json:"value"`
}

// Action - what the policy does to the payslip when it fires
type Action struct {
	Type          ActionType      `json:"type"`
	ComponentCode *string         `json:"component_code,omitempty"`
	Value         decimal.Decimal `json:"value"`
}

// Policy - a company-defined trigger/conditions/actions rule
type Policy struct {
	ID                string
	CompanyID         string
	Name              string
	TriggerEvent      TriggerEvent
	Conditions        []Condition
	Actions           []Action
	Status            Status
	ExecutionCount    int64
	TotalAmountPaid   decimal.Decimal
	TotalAmountDeduct decimal.Decimal
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// ConflictType enum
type ConflictType string

const (
	ConflictContradictingActions  ConflictType = "CONTRADICTING_ACTIONS"
	ConflictOverlappingConditions ConflictType = "OVERLAPPING_CONDITIONS"
	ConflictSameTrigger           ConflictType = "SAME_TRIGGER"
)

// Severity enum
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// OverlapResult - outcome of comparing two condition sets.
// Derived on demand, never persisted.
type OverlapResult struct {
	Overlaps bool
	Reason   string
}

// PolicyConflict - one detected relationship between two policies
type PolicyConflict struct {
	PolicyID   string       `json:"policy_id"`
	PolicyName string       `json:"policy_name"`
	Type       ConflictType `json:"type"`
	Severity   Severity     `json:"severity"`
	Reason     string       `json:"reason"`
}

// ConflictReport - all conflicts found for one policy against its company peers
type ConflictReport struct {
	HasConflicts bool             `json:"has_conflicts"`
	Conflicts    []PolicyConflict `json:"conflicting_policies"`
	Warnings     []string         `json:"warnings"`
}

// MatrixEntry - one pair in the company-wide conflict matrix
type MatrixEntry struct {
	PolicyAID   string       `json:"policy_a_id"`
	PolicyAName string       `json:"policy_a_name"`
	PolicyBID   string       `json:"policy_b_id"`
	PolicyBName string       `json:"policy_b_name"`
	Type        ConflictType `json:"type"`
	Severity    Severity     `json:"severity"`
	Reason      string       `json:"reason"`
}

// ActivationCheck - result of the pre-activation gate
type ActivationCheck struct {
	CanActivate     bool     `json:"can_activate"`
	BlockingReasons []string `json:"blocking_reasons"`
	Warnings        []string `json:"warnings"`
}

// IsDeduction reports whether the action removes money from the payslip.
func (a Action) IsDeduction() bool {
	return a.Type == ActionDeductFromPayroll
}

// IsAddition reports whether the action adds money to the payslip.
func (a Action) IsAddition() bool {
	return a.Type == ActionAddToPayroll
}

package policy

import (
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== POLICY DTOs ==========

type ConditionInput struct {
	Field    string          `json:"field"`
	Operator string          `json:"operator"`
	Value    decimal.Decimal `json:"value"`
}

type ActionInput struct {
	Type          string          `json:"type"`
	ComponentCode *string         `json:"component_code,omitempty"`
	Value         decimal.Decimal `json:"value"`
}

type CreatePolicyRequest struct {
	Name         string           `json:"name"`
	TriggerEvent string           `json:"trigger_event"`
	Conditions   []ConditionInput `json:"conditions"`
	Actions      []ActionInput    `json:"actions"`
}

func (r *CreatePolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	if !isKnownTrigger(r.TriggerEvent) {
		errs = append(errs, validator.ValidationError{Field: "trigger_event", Message: "must be one of the known trigger events"})
	}
	if len(r.Actions) == 0 {
		errs = append(errs, validator.ValidationError{Field: "actions", Message: "at least one action is required"})
	}

	errs = append(errs, validateConditions(r.Conditions)...)
	errs = append(errs, validateActions(r.Actions)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdatePolicyRequest struct {
	ID           string            `json:"id"`
	Name         *string           `json:"name,omitempty"`
	TriggerEvent *string           `json:"trigger_event,omitempty"`
	Conditions   *[]ConditionInput `json:"conditions,omitempty"`
	Actions      *[]ActionInput    `json:"actions,omitempty"`
}

func (r *UpdatePolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "must not be empty"})
	}
	if r.TriggerEvent != nil && !isKnownTrigger(*r.TriggerEvent) {
		errs = append(errs, validator.ValidationError{Field: "trigger_event", Message: "must be one of the known trigger events"})
	}
	if r.Conditions != nil {
		errs = append(errs, validateConditions(*r.Conditions)...)
	}
	if r.Actions != nil {
		if len(*r.Actions) == 0 {
			errs = append(errs, validator.ValidationError{Field: "actions", Message: "at least one action is required"})
		}
		errs = append(errs, validateActions(*r.Actions)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ActivatePolicyRequest struct {
	ID string `json:"id"`
	// AcknowledgeWarnings records that the author saw MEDIUM/LOW conflicts.
	// It never bypasses HIGH-severity blocks.
	AcknowledgeWarnings bool `json:"acknowledge_warnings"`
}

type PolicyResponse struct {
	ID                string           `json:"id"`
	CompanyID         string           `json:"company_id"`
	Name              string           `json:"name"`
	TriggerEvent      string           `json:"trigger_event"`
	Conditions        []Condition      `json:"conditions"`
	Actions           []Action         `json:"actions"`
	Status            string           `json:"status"`
	ExecutionCount    int64            `json:"execution_count"`
	TotalAmountPaid   decimal.Decimal  `json:"total_amount_paid"`
	TotalAmountDeduct decimal.Decimal  `json:"total_amount_deduct"`
	Warnings          []PolicyConflict `json:"warnings,omitempty"`
}

type ListPolicyResponse struct {
	Data       []PolicyResponse `json:"data"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

type PolicyFilter struct {
	Statuses []Status
	Trigger  *TriggerEvent
	Page     int
	Limit    int
}

// ========== VALIDATION HELPERS ==========

func isKnownTrigger(s string) bool {
	for _, t := range KnownTriggerEvents {
		if string(t) == s {
			return true
		}
	}
	return false
}

func validateConditions(conditions []ConditionInput) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for i, c := range conditions {
		if _, ok := KnownConditionFields[c.Field]; !ok {
			errs = append(errs, validator.ValidationError{
				Field:   validator.IndexedField("conditions", i, "field"),
				Message: "unknown condition field",
			})
		}
		switch Operator(c.Operator) {
		case OperatorEquals, OperatorGreaterThan, OperatorLessThan:
		default:
			errs = append(errs, validator.ValidationError{
				Field:   validator.IndexedField("conditions", i, "operator"),
				Message: "operator must be one of ==, >, <",
			})
		}
	}
	return errs
}

func validateActions(actions []ActionInput) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for i, a := range actions {
		switch ActionType(a.Type) {
		case ActionAddToPayroll, ActionDeductFromPayroll:
			if a.ComponentCode == nil || validator.IsEmpty(*a.ComponentCode) {
				errs = append(errs, validator.ValidationError{
					Field:   validator.IndexedField("actions", i, "component_code"),
					Message: "is required for payroll actions",
				})
			}
			if a.Value.IsNegative() {
				errs = append(errs, validator.ValidationError{
					Field:   validator.IndexedField("actions", i, "value"),
					Message: "must be non-negative",
				})
			}
		case ActionFlagForReview:
		default:
			errs = append(errs, validator.ValidationError{
				Field:   validator.IndexedField("actions", i, "type"),
				Message: "unknown action type",
			})
		}
	}
	return errs
}

// ToConditions converts validated inputs to domain conditions.
func ToConditions(inputs []ConditionInput) []Condition {
	conditions := make([]Condition, 0, len(inputs))
	for _, c := range inputs {
		conditions = append(conditions, Condition{
			Field:    c.Field,
			Operator: Operator(c.Operator),
			Value:    c.Value,
		})
	}
	return conditions
}

// ToActions converts validated inputs to domain actions.
func ToActions(inputs []ActionInput) []Action {
	actions := make([]Action, 0, len(inputs))
	for _, a := range inputs {
		actions = append(actions, Action{
			Type:          ActionType(a.Type),
			ComponentCode: a.ComponentCode,
			Value:         a.Value,
		})
	}
	return actions
}

package policy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPolicyNotFound      = errors.New("policy not found")
	ErrPolicyDeleted       = errors.New("policy has been deleted")
	ErrPolicyAlreadyActive = errors.New("policy is already active")
	ErrPolicyNotActive     = errors.New("policy is not active")
	ErrInvalidTriggerEvent = errors.New("unknown trigger event")
	ErrInvalidStatusChange = errors.New("invalid policy status transition")
)

// ConflictError blocks activation when HIGH-severity conflicts exist.
// Lower severities are returned as warnings, never as this error.
type ConflictError struct {
	PolicyID string
	Reasons  []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("policy %s has blocking conflicts: %s", e.PolicyID, strings.Join(e.Reasons, "; "))
}

// Code returns the stable machine-readable identifier for this error.
func (e *ConflictError) Code() string { return "POLICY_CONFLICT" }

// MessageAr returns the localized HR-facing message.
func (e *ConflictError) MessageAr() string {
	return "لا يمكن تفعيل السياسة بسبب تعارضات عالية الخطورة: " + strings.Join(e.Reasons, "؛ ")
}

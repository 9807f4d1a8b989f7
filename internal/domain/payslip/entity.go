package payslip

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineSign enum
type LineSign string

const (
	SignAdd    LineSign = "ADD"
	SignDeduct LineSign = "DEDUCT"
)

// SourceType enum
type SourceType string

const (
	SourcePolicy SourceType = "POLICY"
	SourceManual SourceType = "MANUAL"
	SourceSystem SourceType = "SYSTEM"
)

// SourceRefMerged marks a line produced by merging several policy lines.
const SourceRefMerged = "MERGED"

// PayslipLine - one amount on a payslip. After aggregation at most one line
// exists per (payslip, component, sign).
type PayslipLine struct {
	ID            string
	PayslipID     string
	ComponentID   string
	ComponentName string
	Sign          LineSign
	Amount        decimal.Decimal
	Units         *decimal.Decimal
	Rate          *decimal.Decimal
	SourceType    SourceType
	SourceRef     string
	DescriptionAr string
	CreatedAt     time.Time
}

// Payslip - minimal view of the payslip owning the lines.
// Full payslip lifecycle lives in the payroll calculation service.
type Payslip struct {
	ID         string
	CompanyID  string
	EmployeeID string
	RunID      *string
	BaseSalary decimal.Decimal
}

// PeriodStatus enum
type PeriodStatus string

const (
	PeriodOpen       PeriodStatus = "OPEN"
	PeriodProcessing PeriodStatus = "PROCESSING"
	PeriodLocked     PeriodStatus = "LOCKED"
	PeriodApproved   PeriodStatus = "APPROVED"
	PeriodPaid       PeriodStatus = "PAID"
)

// Immutable reports whether the period refuses policy-authored writes.
func (s PeriodStatus) Immutable() bool {
	return s == PeriodLocked || s == PeriodApproved || s == PeriodPaid
}

// PayrollPeriod - one company month. A missing row means the period was
// never opened and therefore is not locked.
type PayrollPeriod struct {
	ID        string
	CompanyID string
	Year      int
	Month     int
	Status    PeriodStatus
	LockedAt  *time.Time
	LockedBy  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label returns the period in "YYYY-MM" form for error messages.
func (p PayrollPeriod) Label() string {
	return PeriodLabel(p.Year, p.Month)
}

// RunStatus enum
type RunStatus string

const (
	RunDraft       RunStatus = "DRAFT"
	RunProcessing  RunStatus = "PROCESSING"
	RunCalculating RunStatus = "CALCULATING"
	RunCompleted   RunStatus = "COMPLETED"
	RunApproved    RunStatus = "APPROVED"
	RunPaid        RunStatus = "PAID"
)

// InProgress reports whether a calculation is active on this run. While any
// run is in progress, policy definitions for the company are frozen.
func (s RunStatus) InProgress() bool {
	return s == RunProcessing || s == RunCalculating
}

// PayrollRun - one calculation pass over a period.
type PayrollRun struct {
	ID          string
	CompanyID   string
	PeriodYear  int
	PeriodMonth int
	Status      RunStatus
	LockedAt    *time.Time
	LockedBy    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SalaryComponent - read-only entry from the company component catalogue.
type SalaryComponent struct {
	ID        string
	CompanyID string
	Code      string
	NameAr    string
	NameEn    string
	IsActive  bool
}

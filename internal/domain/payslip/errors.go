package payslip

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPayslipNotFound   = errors.New("payslip not found")
	ErrPeriodNotFound    = errors.New("payroll period not found")
	ErrRunNotFound       = errors.New("payroll run not found")
	ErrComponentNotFound = errors.New("salary component not found")
	ErrTenantMismatch    = errors.New("payslip does not belong to this company")
	ErrRunInProgress     = errors.New("a payroll run is currently processing for this company")
)

// PeriodLabel formats a year/month pair the way blocked-period messages
// report it.
func PeriodLabel(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// LockedPeriodError is the hard rejection for writes against locked, approved
// or paid periods. It always names every blocked period.
type LockedPeriodError struct {
	Periods []string
}

func (e *LockedPeriodError) Error() string {
	return "payroll period locked: " + strings.Join(e.Periods, ", ")
}

// Code returns the stable machine-readable identifier for this error.
func (e *LockedPeriodError) Code() string { return "LOCKED_PERIOD" }

// MessageAr returns the localized HR-facing message naming the blocked periods.
func (e *LockedPeriodError) MessageAr() string {
	return "فترة الرواتب مقفلة ولا يمكن التعديل عليها: " + strings.Join(e.Periods, "، ")
}

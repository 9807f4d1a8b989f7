package payslip

import "context"

// LineService owns canonical payslip-line persistence for policy output.
type LineService interface {
	MergeLinesByComponent(lines []PayslipLine) []PayslipLine
	SavePolicyLines(ctx context.Context, payslipID string, lines []PayslipLine, companyID string) (SaveLinesResult, error)
	ListLines(ctx context.Context, payslipID string, companyID string) ([]LineResponse, error)
}

// ExecutionService runs the active policy set over one payroll run.
type ExecutionService interface {
	ExecuteRun(ctx context.Context, req ExecuteRunRequest) (ExecuteRunResponse, error)
}

package payslip

import (
	"context"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/audit"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/policy"
	auditService "github.com/rawatib-hr/policy-engine-go/internal/service/audit"
	"github.com/rawatib-hr/policy-engine-go/internal/service/laborlaw"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== FAKES ==========

type fakePolicyStore struct {
	policies []policy.Policy
	stats    map[string][2]decimal.Decimal
}

func newFakePolicyStore(policies ...policy.Policy) *fakePolicyStore {
	return &fakePolicyStore{policies: policies, stats: make(map[string][2]decimal.Decimal)}
}

func (f *fakePolicyStore) Create(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	return p, nil
}

func (f *fakePolicyStore) GetByID(ctx context.Context, id string, companyID string) (policy.Policy, error) {
	for _, p := range f.policies {
		if p.ID == id {
			return p, nil
		}
	}
	return policy.Policy{}, policy.ErrPolicyNotFound
}

func (f *fakePolicyStore) ListByCompany(ctx context.Context, companyID string, filter policy.PolicyFilter) ([]policy.Policy, int64, error) {
	return f.policies, int64(len(f.policies)), nil
}

func (f *fakePolicyStore) ListByStatuses(ctx context.Context, companyID string, statuses []policy.Status) ([]policy.Policy, error) {
	var out []policy.Policy
	for _, p := range f.policies {
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (f *fakePolicyStore) Update(ctx context.Context, companyID string, req policy.UpdatePolicyRequest) (policy.Policy, error) {
	return policy.Policy{}, nil
}

func (f *fakePolicyStore) UpdateStatus(ctx context.Context, id string, companyID string, status policy.Status) error {
	return nil
}

func (f *fakePolicyStore) SoftDelete(ctx context.Context, id string, companyID string) error {
	return nil
}

func (f *fakePolicyStore) IncrementExecutionStats(ctx context.Context, id string, paid, deducted decimal.Decimal) error {
	prev := f.stats[id]
	f.stats[id] = [2]decimal.Decimal{prev[0].Add(paid), prev[1].Add(deducted)}
	return nil
}

type fakeAuditRepo struct {
	entries []audit.AuditEntry
}

func (f *fakeAuditRepo) Insert(ctx context.Context, entry audit.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) ListByEntityID(ctx context.Context, entityID, companyID string, page, limit int) ([]audit.AuditEntry, int64, error) {
	return nil, 0, nil
}

func (f *fakeAuditRepo) ListByCompany(ctx context.Context, companyID string, page, limit int) ([]audit.AuditEntry, int64, error) {
	return nil, 0, nil
}

// ========== SETUP ==========

func authedContext(t *testing.T, companyID string) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"company_id": companyID,
		"user_id":    "user-1",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

type executionFixture struct {
	service   payslip.ExecutionService
	lineRepo  *fakeLineRepo
	runRepo   *fakeRunRepo
	policies  *fakePolicyStore
	auditRepo *fakeAuditRepo
}

func newExecutionFixture(t *testing.T, policies ...policy.Policy) *executionFixture {
	t.Helper()

	lineRepo := newFakeLineRepo()
	lineRepo.payslips["slip-1"] = payslip.Payslip{
		ID: "slip-1", CompanyID: "company-1", EmployeeID: "emp-1",
		BaseSalary: decimal.NewFromInt(10000),
	}

	runRepo := newFakeRunRepo()
	runRepo.runs["run-1"] = payslip.PayrollRun{
		ID: "run-1", CompanyID: "company-1", PeriodYear: 2026, PeriodMonth: 8,
		Status: payslip.RunProcessing,
	}

	componentRepo := &fakeComponentRepo{components: []payslip.SalaryComponent{
		{ID: "comp-late", CompanyID: "company-1", Code: "LATE_PENALTY", NameAr: "خصم تأخير", IsActive: true},
		{ID: "comp-absence", CompanyID: "company-1", Code: "ABSENCE", NameAr: "خصم غياب", IsActive: true},
		{ID: "comp-bonus", CompanyID: "company-1", Code: "ATT_BONUS", NameAr: "مكافأة حضور", IsActive: true},
	}}

	policyStore := newFakePolicyStore(policies...)
	auditRepo := &fakeAuditRepo{}
	recorder := auditService.NewRecorder(auditRepo, testLogger())
	laborLawSvc := laborlaw.NewLaborLawService(&stubPeriodRepo{})
	guard := NewPeriodLockGuard(&stubPeriodRepo{}, runRepo)
	aggregator := NewLineAggregator(nil, lineRepo, componentRepo, guard, testLogger())

	service := NewExecutionService(nil, policyStore, runRepo, componentRepo,
		aggregator, guard, laborLawSvc, recorder, testLogger())

	return &executionFixture{
		service:   service,
		lineRepo:  lineRepo,
		runRepo:   runRepo,
		policies:  policyStore,
		auditRepo: auditRepo,
	}
}

func activeDeductPolicy(id, name, componentCode string, amount float64, threshold float64) policy.Policy {
	code := componentCode
	return policy.Policy{
		ID: id, CompanyID: "company-1", Name: name,
		TriggerEvent: policy.TriggerAttendance,
		Conditions: []policy.Condition{
			{Field: "lateCount", Operator: policy.OperatorGreaterThan, Value: decimal.NewFromFloat(threshold)},
		},
		Actions: []policy.Action{
			{Type: policy.ActionDeductFromPayroll, ComponentCode: &code, Value: decimal.NewFromFloat(amount)},
		},
		Status: policy.StatusActive,
	}
}

func employee(events []string, facts map[string]decimal.Decimal) payslip.EmployeeExecutionContext {
	return payslip.EmployeeExecutionContext{
		EmployeeID: "emp-1",
		PayslipID:  "slip-1",
		BaseSalary: decimal.NewFromInt(10000),
		Events:     events,
		Facts:      facts,
	}
}

// ========== TESTS ==========

func TestExecuteRun_PolicyFiresAndPersistsLines(t *testing.T) {
	fix := newExecutionFixture(t,
		activeDeductPolicy("p1", "Late penalty", "LATE_PENALTY", 500, 3))

	resp, err := fix.service.ExecuteRun(authedContext(t, "company-1"), payslip.ExecuteRunRequest{
		RunID: "run-1",
		Employees: []payslip.EmployeeExecutionContext{
			employee([]string{"attendance"}, map[string]decimal.Decimal{
				"lateCount": decimal.NewFromInt(4),
			}),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Processed)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, []string{"p1"}, resp.Results[0].PoliciesFired)
	assert.True(t, resp.Results[0].TotalDeducted.Equal(decimal.NewFromInt(500)))
	assert.False(t, resp.Results[0].DeductionCapped)

	saved := fix.lineRepo.lines["slip-1"]
	require.Len(t, saved, 1)
	assert.Equal(t, "comp-late", saved[0].ComponentID)
	assert.Equal(t, payslip.SignDeduct, saved[0].Sign)
	assert.Equal(t, payslip.SourcePolicy, saved[0].SourceType)
}

func TestExecuteRun_ConditionsFilterPolicies(t *testing.T) {
	fix := newExecutionFixture(t,
		activeDeductPolicy("p1", "Late penalty", "LATE_PENALTY", 500, 3))

	resp, err := fix.service.ExecuteRun(authedContext(t, "company-1"), payslip.ExecuteRunRequest{
		RunID: "run-1",
		Employees: []payslip.EmployeeExecutionContext{
			employee([]string{"attendance"}, map[string]decimal.Decimal{
				"lateCount": decimal.NewFromInt(2),
			}),
		},
	})
	require.NoError(t, err)

	assert.Empty(t, resp.Results[0].PoliciesFired)
	assert.Empty(t, fix.lineRepo.lines["slip-1"])
}

func TestExecuteRun_RecalculationClearsStaleLines(t *testing.T) {
	fix := newExecutionFixture(t,
		activeDeductPolicy("p1", "Late penalty", "LATE_PENALTY", 500, 3))

	_, err := fix.service.ExecuteRun(authedContext(t, "company-1"), payslip.ExecuteRunRequest{
		RunID: "run-1",
		Employees: []payslip.EmployeeExecutionContext{
			employee([]string{"attendance"}, map[string]decimal.Decimal{
				"lateCount": decimal.NewFromInt(4),
			}),
		},
	})
	require.NoError(t, err)
	require.Len(t, fix.lineRepo.lines["slip-1"], 1)

	// Corrected attendance data: the policy no longer fires. The advisory
	// lock from the first run released with its transaction.
	fix.runRepo.lockTaken = false
	resp, err := fix.service.ExecuteRun(authedContext(t, "company-1"), payslip.ExecuteRunRequest{
		RunID: "run-1",
		Employees: []payslip.EmployeeExecutionContext{
			employee([]string{"attendance"}, map[string]decimal.Decimal{
				"lateCount": decimal.NewFromInt(0),
			}),
		},
	})
	require.NoError(t, err)

	assert.Empty(t, resp.Results[0].PoliciesFired)
	assert.Empty(t, fix.lineRepo.lines["slip-1"],
		"deduction from the first pass must not survive the recalculation")
}

func TestExecuteRun_TriggerMustMatchEmployeeEvents(t *testing.T) {
	fix := newExecutionFixture(t,
		activeDeductPolicy("p1", "Late penalty", "LATE_PENALTY", 500, 3))

	resp, err := fix.service.ExecuteRun(authedContext(t, "company-1"), payslip.ExecuteRunRequest{
		RunID: "run-1",
		Employees: []payslip.EmployeeExecutionContext{
			employee([]string{"leave"}, map[string]decimal.Decimal{
				"lateCount": decimal.NewFromInt(10),
			}),
		},
	})
	require.NoError(t, err)

	assert.Empty(t, resp.Results[0].PoliciesFired)
}

func TestExecuteRun_DeductionsCappedAtHalfSalary(t *testing.T) {
	fix := newExecutionFixture(t,
		activeDeductPolicy("p1", "Late penalty", "LATE_PENALTY", 3000, 3),
		activeDeductPolicy("p2", "Absence penalty", "ABSENCE", 3000, 3))

	resp, err := fix.service.ExecuteRun(authedContext(t, "company-1"), payslip.ExecuteRunRequest{
		RunID: "run-1",
		Employees: []payslip.EmployeeExecutionContext{
			employee([]string{"attendance"}, map[string]decimal.Decimal{
				"lateCount": decimal.NewFromInt(5),
			}),
		},
	})
	require.NoError(t, err)

	result := resp.Results[0]
	assert.True(t, result.DeductionCapped)
	assert.True(t, result.TotalDeducted.Equal(decimal.NewFromInt(5000)),
		"6000 proposed must scale to the 5000 statutory cap")

	// Each line scaled proportionally, none removed.
	saved := fix.lineRepo.lines["slip-1"]
	require.Len(t, saved, 2)
	for _, l := range saved {
		assert.True(t, l.Amount.Equal(decimal.NewFromInt(2500)))
	}
}

func TestExecuteRun_UpdatesPolicyStats(t *testing.T) {
	fix := newExecutionFixture(t,
		activeDeductPolicy("p1", "Late penalty", "LATE_PENALTY", 500, 3))

	_, err := fix.service.ExecuteRun(authedContext(t, "company-1"), payslip.ExecuteRunRequest{
		RunID: "run-1",
		Employees: []payslip.EmployeeExecutionContext{
			employee([]string{"attendance"}, map[string]decimal.Decimal{
				"lateCount": decimal.NewFromInt(4),
			}),
		},
	})
	require.NoError(t, err)

	stats, ok := fix.policies.stats["p1"]
	require.True(t, ok)
	assert.True(t, stats[0].IsZero())
	assert.True(t, stats[1].Equal(decimal.NewFromInt(500)))
}

func TestExecuteRun_WritesExecutionAudit(t *testing.T) {
	fix := newExecutionFixture(t,
		activeDeductPolicy("p1", "Late penalty", "LATE_PENALTY", 500, 3))

	_, err := fix.service.ExecuteRun(authedContext(t, "company-1"), payslip.ExecuteRunRequest{
		RunID: "run-1",
		Employees: []payslip.EmployeeExecutionContext{
			employee([]string{"attendance"}, map[string]decimal.Decimal{
				"lateCount": decimal.NewFromInt(4),
			}),
		},
	})
	require.NoError(t, err)

	require.Len(t, fix.auditRepo.entries, 1)
	entry := fix.auditRepo.entries[0]
	assert.Equal(t, audit.EventExecutionCompleted, entry.EventType)
	assert.Equal(t, "p1", entry.EntityID)
	assert.Equal(t, audit.ActorSystem, entry.ActorID)
	assert.Equal(t, "2026-08", entry.Details["period"])
}

func TestExecuteRun_ConcurrentRunRejected(t *testing.T) {
	fix := newExecutionFixture(t,
		activeDeductPolicy("p1", "Late penalty", "LATE_PENALTY", 500, 3))
	fix.runRepo.lockTaken = true

	_, err := fix.service.ExecuteRun(authedContext(t, "company-1"), payslip.ExecuteRunRequest{
		RunID: "run-1",
		Employees: []payslip.EmployeeExecutionContext{
			employee([]string{"attendance"}, nil),
		},
	})
	assert.ErrorIs(t, err, payslip.ErrRunInProgress)
}

func TestExecuteRun_TenantMismatchRejected(t *testing.T) {
	fix := newExecutionFixture(t,
		activeDeductPolicy("p1", "Late penalty", "LATE_PENALTY", 500, 3))

	_, err := fix.service.ExecuteRun(authedContext(t, "company-2"), payslip.ExecuteRunRequest{
		RunID: "run-1",
		Employees: []payslip.EmployeeExecutionContext{
			employee([]string{"attendance"}, nil),
		},
	})
	assert.ErrorIs(t, err, payslip.ErrTenantMismatch)
}

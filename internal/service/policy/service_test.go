package policy

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/audit"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/policy"
	auditService "github.com/rawatib-hr/policy-engine-go/internal/service/audit"
	"github.com/rawatib-hr/policy-engine-go/internal/service/laborlaw"
	payslipService "github.com/rawatib-hr/policy-engine-go/internal/service/payslip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== FAKES ==========

type openPeriodRepo struct {
	status payslip.PeriodStatus
}

func (f *openPeriodRepo) GetByMonth(ctx context.Context, companyID string, year, month int) (payslip.PayrollPeriod, error) {
	if f.status == "" {
		return payslip.PayrollPeriod{}, payslip.ErrPeriodNotFound
	}
	return payslip.PayrollPeriod{CompanyID: companyID, Year: year, Month: month, Status: f.status}, nil
}

func (f *openPeriodRepo) ListRange(ctx context.Context, companyID string, startYear, startMonth, endYear, endMonth int) ([]payslip.PayrollPeriod, error) {
	return nil, nil
}

type idleRunRepo struct {
	inProgress bool
}

func (f *idleRunRepo) GetByID(ctx context.Context, runID string) (payslip.PayrollRun, error) {
	return payslip.PayrollRun{}, payslip.ErrRunNotFound
}

func (f *idleRunRepo) HasRunInProgress(ctx context.Context, companyID string) (bool, error) {
	return f.inProgress, nil
}

func (f *idleRunRepo) TryAcquireRunLock(ctx context.Context, companyID string, year, month int) (bool, error) {
	return true, nil
}

type memAuditRepo struct {
	entries []audit.AuditEntry
}

func (m *memAuditRepo) Insert(ctx context.Context, entry audit.AuditEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAuditRepo) ListByEntityID(ctx context.Context, entityID, companyID string, page, limit int) ([]audit.AuditEntry, int64, error) {
	return nil, 0, nil
}

func (m *memAuditRepo) ListByCompany(ctx context.Context, companyID string, page, limit int) ([]audit.AuditEntry, int64, error) {
	return nil, 0, nil
}

func (m *memAuditRepo) eventTypes() []audit.EventType {
	types := make([]audit.EventType, 0, len(m.entries))
	for _, e := range m.entries {
		types = append(types, e.EventType)
	}
	return types
}

// ========== SETUP ==========

type serviceFixture struct {
	service   policy.PolicyService
	repo      *fakePolicyRepo
	periods   *openPeriodRepo
	runs      *idleRunRepo
	auditRepo *memAuditRepo
}

func newServiceFixture(policies ...policy.Policy) *serviceFixture {
	repo := &fakePolicyRepo{policies: policies}
	periods := &openPeriodRepo{}
	runs := &idleRunRepo{}
	auditRepo := &memAuditRepo{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := auditService.NewRecorder(auditRepo, logger)
	guard := payslipService.NewPeriodLockGuard(periods, runs)
	laborLawSvc := laborlaw.NewLaborLawService(periods)
	detector := NewConflictDetector(repo)

	return &serviceFixture{
		service:   NewPolicyService(repo, detector, guard, laborLawSvc, recorder),
		repo:      repo,
		periods:   periods,
		runs:      runs,
		auditRepo: auditRepo,
	}
}

func claimsContext(t *testing.T, companyID, userID string) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"company_id": companyID,
		"user_id":    userID,
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func validCreateRequest() policy.CreatePolicyRequest {
	code := "LATE_PENALTY"
	return policy.CreatePolicyRequest{
		Name:         "Late penalty",
		TriggerEvent: "attendance",
		Conditions: []policy.ConditionInput{
			{Field: "lateCount", Operator: ">", Value: decimal.NewFromInt(3)},
		},
		Actions: []policy.ActionInput{
			{Type: "DEDUCT_FROM_PAYROLL", ComponentCode: &code, Value: decimal.NewFromInt(100)},
		},
	}
}

// ========== LIFECYCLE ==========

func TestPolicyService_Create(t *testing.T) {
	fix := newServiceFixture()
	ctx := claimsContext(t, testCompanyID, "user-1")

	resp, err := fix.service.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "DRAFT", resp.Status)
	assert.Equal(t, testCompanyID, resp.CompanyID)
	assert.Equal(t, []audit.EventType{audit.EventPolicyCreated}, fix.auditRepo.eventTypes())
}

func TestPolicyService_Create_ValidationFails(t *testing.T) {
	fix := newServiceFixture()
	ctx := claimsContext(t, testCompanyID, "user-1")

	req := validCreateRequest()
	req.TriggerEvent = "payday"

	_, err := fix.service.Create(ctx, req)
	assert.Error(t, err)
	assert.Empty(t, fix.auditRepo.entries)
}

func TestPolicyService_Create_BlockedDuringRun(t *testing.T) {
	fix := newServiceFixture()
	fix.runs.inProgress = true
	ctx := claimsContext(t, testCompanyID, "user-1")

	_, err := fix.service.Create(ctx, validCreateRequest())
	assert.ErrorIs(t, err, payslip.ErrRunInProgress)
}

func TestPolicyService_Create_BlockedWhenPeriodLocked(t *testing.T) {
	fix := newServiceFixture()
	fix.periods.status = payslip.PeriodLocked
	ctx := claimsContext(t, testCompanyID, "user-1")

	_, err := fix.service.Create(ctx, validCreateRequest())

	var lockErr *payslip.LockedPeriodError
	assert.ErrorAs(t, err, &lockErr)
}

func TestPolicyService_ApprovalFlow(t *testing.T) {
	fix := newServiceFixture(
		testPolicy("p1", "Late penalty", policy.TriggerAttendance, policy.StatusDraft,
			[]policy.Condition{condition("lateCount", policy.OperatorGreaterThan, 3)},
			[]policy.Action{deductAction("LATE_PENALTY", 100)}),
	)
	ctx := claimsContext(t, testCompanyID, "user-1")

	require.NoError(t, fix.service.SubmitForApproval(ctx, "p1"))
	assert.Equal(t, policy.StatusPending, fix.repo.policies[0].Status)

	// Cannot submit twice.
	assert.ErrorIs(t, fix.service.SubmitForApproval(ctx, "p1"), policy.ErrInvalidStatusChange)

	check, err := fix.service.Approve(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, check.CanActivate)
	assert.Equal(t, policy.StatusActive, fix.repo.policies[0].Status)

	assert.Equal(t, []audit.EventType{
		audit.EventApprovalSubmitted,
		audit.EventPolicyActivated,
		audit.EventApprovalApproved,
	}, fix.auditRepo.eventTypes())
}

func TestPolicyService_Reject(t *testing.T) {
	fix := newServiceFixture(
		testPolicy("p1", "Late penalty", policy.TriggerAttendance, policy.StatusPending,
			nil,
			[]policy.Action{deductAction("LATE_PENALTY", 100)}),
	)
	ctx := claimsContext(t, testCompanyID, "user-1")

	require.NoError(t, fix.service.Reject(ctx, "p1"))
	assert.Equal(t, policy.StatusDraft, fix.repo.policies[0].Status)
}

func TestPolicyService_Activate_BlockedByHighConflict(t *testing.T) {
	fix := newServiceFixture(
		testPolicy("p1", "New fine", policy.TriggerAttendance, policy.StatusDraft,
			nil,
			[]policy.Action{deductAction("LATE_PENALTY", 100)}),
		testPolicy("p2", "Existing fine", policy.TriggerAttendance, policy.StatusActive,
			nil,
			[]policy.Action{deductAction("LATE_PENALTY", 50)}),
	)
	ctx := claimsContext(t, testCompanyID, "user-1")

	check, err := fix.service.Activate(ctx, policy.ActivatePolicyRequest{ID: "p1"})

	var conflictErr *policy.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "POLICY_CONFLICT", conflictErr.Code())
	assert.NotEmpty(t, conflictErr.MessageAr())
	assert.False(t, check.CanActivate)
	assert.Equal(t, policy.StatusDraft, fix.repo.policies[0].Status, "status must not change on refusal")
	assert.Contains(t, fix.auditRepo.eventTypes(), audit.EventConflictDetected)
}

func TestPolicyService_Activate_AlreadyActive(t *testing.T) {
	fix := newServiceFixture(
		testPolicy("p1", "Fine", policy.TriggerAttendance, policy.StatusActive,
			nil,
			[]policy.Action{deductAction("LATE_PENALTY", 100)}),
	)
	ctx := claimsContext(t, testCompanyID, "user-1")

	_, err := fix.service.Activate(ctx, policy.ActivatePolicyRequest{ID: "p1"})
	assert.ErrorIs(t, err, policy.ErrPolicyAlreadyActive)
}

func TestPolicyService_Deactivate(t *testing.T) {
	fix := newServiceFixture(
		testPolicy("p1", "Fine", policy.TriggerAttendance, policy.StatusActive,
			nil,
			[]policy.Action{deductAction("LATE_PENALTY", 100)}),
	)
	ctx := claimsContext(t, testCompanyID, "user-1")

	require.NoError(t, fix.service.Deactivate(ctx, "p1"))
	assert.Equal(t, policy.StatusInactive, fix.repo.policies[0].Status)

	assert.ErrorIs(t, fix.service.Deactivate(ctx, "p1"), policy.ErrPolicyNotActive)
}

func TestPolicyService_Delete_SnapshotsDefinition(t *testing.T) {
	fix := newServiceFixture(
		testPolicy("p1", "Fine", policy.TriggerAttendance, policy.StatusDraft,
			nil,
			[]policy.Action{deductAction("LATE_PENALTY", 100)}),
	)
	ctx := claimsContext(t, testCompanyID, "user-1")

	require.NoError(t, fix.service.Delete(ctx, "p1"))
	assert.NotNil(t, fix.repo.policies[0].DeletedAt)

	require.Len(t, fix.auditRepo.entries, 1)
	entry := fix.auditRepo.entries[0]
	assert.Equal(t, audit.EventPolicyDeleted, entry.EventType)
	assert.Equal(t, "Fine", entry.Details["name"])
}

func TestPolicyService_TenantIsolation(t *testing.T) {
	fix := newServiceFixture(
		testPolicy("p1", "Fine", policy.TriggerAttendance, policy.StatusActive,
			nil,
			[]policy.Action{deductAction("LATE_PENALTY", 100)}),
	)
	ctx := claimsContext(t, "other-company", "user-1")

	_, err := fix.service.Get(ctx, "p1")
	assert.ErrorIs(t, err, policy.ErrPolicyNotFound)
}

// ========== SIMULATION ==========

func TestPolicyService_Simulate(t *testing.T) {
	fix := newServiceFixture(
		testPolicy("p1", "Late penalty", policy.TriggerAttendance, policy.StatusActive,
			[]policy.Condition{condition("lateCount", policy.OperatorGreaterThan, 3)},
			[]policy.Action{deductAction("LATE_PENALTY", 6000)}),
	)
	ctx := claimsContext(t, testCompanyID, "user-1")

	t.Run("fires and caps", func(t *testing.T) {
		result, err := fix.service.Simulate(ctx, policy.SimulatePolicyRequest{
			PolicyID:   "p1",
			BaseSalary: decimal.NewFromInt(10000),
			Facts:      map[string]decimal.Decimal{"lateCount": decimal.NewFromInt(5)},
		})
		require.NoError(t, err)

		assert.True(t, result.Fired)
		assert.True(t, result.WasCapped)
		assert.True(t, result.TotalDeduct.Equal(decimal.NewFromInt(6000)))
		assert.True(t, result.CappedDeduct.Equal(decimal.NewFromInt(5000)))
		require.Len(t, result.Lines, 1)
		assert.True(t, result.Lines[0].Amount.Equal(decimal.NewFromInt(5000)))
		assert.NotEmpty(t, result.CapViolations)
	})

	t.Run("does not fire below threshold", func(t *testing.T) {
		result, err := fix.service.Simulate(ctx, policy.SimulatePolicyRequest{
			PolicyID:   "p1",
			BaseSalary: decimal.NewFromInt(10000),
			Facts:      map[string]decimal.Decimal{"lateCount": decimal.NewFromInt(1)},
		})
		require.NoError(t, err)

		assert.False(t, result.Fired)
		assert.Empty(t, result.Lines)
	})

	t.Run("simulation is not persisted", func(t *testing.T) {
		assert.True(t, fix.repo.policies[0].TotalAmountDeduct.IsZero())
	})
}

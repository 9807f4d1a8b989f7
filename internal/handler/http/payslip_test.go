package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/service/laborlaw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPeriodRepo struct {
	periods []payslip.PayrollPeriod
}

func (s *stubPeriodRepo) GetByMonth(ctx context.Context, companyID string, year, month int) (payslip.PayrollPeriod, error) {
	return payslip.PayrollPeriod{}, payslip.ErrPeriodNotFound
}

func (s *stubPeriodRepo) ListRange(ctx context.Context, companyID string, startYear, startMonth, endYear, endMonth int) ([]payslip.PayrollPeriod, error) {
	return s.periods, nil
}

func authedRequest(t *testing.T, method, target, companyID string) *http.Request {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"company_id": companyID,
		"user_id":    "user-1",
	})
	require.NoError(t, err)

	r := httptest.NewRequest(method, target, nil)
	return r.WithContext(jwtauth.NewContext(r.Context(), token, nil))
}

func TestRetroactiveCheck_ReportsBlockedPeriods(t *testing.T) {
	repo := &stubPeriodRepo{periods: []payslip.PayrollPeriod{
		{CompanyID: "company-1", Year: 2026, Month: 1, Status: payslip.PeriodPaid},
		{CompanyID: "company-1", Year: 2026, Month: 2, Status: payslip.PeriodOpen},
	}}
	handler := NewPayslipHandler(nil, nil, nil, laborlaw.NewLaborLawService(repo))

	r := authedRequest(t, http.MethodGet,
		"/payroll/retroactive-check?start_year=2026&start_month=1&end_year=2026&end_month=3", "company-1")
	w := httptest.NewRecorder()
	handler.RetroactiveCheck(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool                      `json:"success"`
		Data    laborlaw.RetroactiveCheck `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.False(t, body.Data.CanApply)
	assert.Equal(t, []string{"2026-01"}, body.Data.BlockedPeriods)
}

func TestRetroactiveCheck_RangeParamsRequired(t *testing.T) {
	handler := NewPayslipHandler(nil, nil, nil, laborlaw.NewLaborLawService(&stubPeriodRepo{}))

	r := authedRequest(t, http.MethodGet, "/payroll/retroactive-check?start_year=2026", "company-1")
	w := httptest.NewRecorder()
	handler.RetroactiveCheck(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetroactiveCheck_RequiresCompanyClaim(t *testing.T) {
	handler := NewPayslipHandler(nil, nil, nil, laborlaw.NewLaborLawService(&stubPeriodRepo{}))

	r := httptest.NewRequest(http.MethodGet,
		"/payroll/retroactive-check?start_year=2026&start_month=1&end_year=2026&end_month=1", nil)
	w := httptest.NewRecorder()
	handler.RetroactiveCheck(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

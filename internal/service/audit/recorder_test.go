package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rawatib-hr/policy-engine-go/internal/domain/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAuditRepo struct {
	entries   []audit.AuditEntry
	insertErr error
}

func (m *memAuditRepo) Insert(ctx context.Context, entry audit.AuditEntry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAuditRepo) ListByEntityID(ctx context.Context, entityID, companyID string, page, limit int) ([]audit.AuditEntry, int64, error) {
	var out []audit.AuditEntry
	for _, e := range m.entries {
		if e.EntityID == entityID && e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memAuditRepo) ListByCompany(ctx context.Context, companyID string, page, limit int) ([]audit.AuditEntry, int64, error) {
	var out []audit.AuditEntry
	for _, e := range m.entries {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_Log(t *testing.T) {
	repo := &memAuditRepo{}
	rec := NewRecorder(repo, discardLogger())

	rec.Log(context.Background(), audit.EventPolicyCreated, "policy-1", "user-1",
		map[string]any{"name": "Late penalty"}, "company-1")

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, audit.EntitySmartPolicy, entry.Entity)
	assert.Equal(t, "policy-1", entry.EntityID)
	assert.Equal(t, audit.ActionCreate, entry.Action)
	assert.Equal(t, audit.EventPolicyCreated, entry.EventType)
	assert.Equal(t, "user-1", entry.ActorID)
	assert.WithinDuration(t, time.Now(), entry.CreatedAt, time.Minute)
}

func TestRecorder_EmptyActorBecomesSystem(t *testing.T) {
	repo := &memAuditRepo{}
	rec := NewRecorder(repo, discardLogger())

	rec.Log(context.Background(), audit.EventExecutionCompleted, "policy-1", "", nil, "company-1")

	require.Len(t, repo.entries, 1)
	assert.Equal(t, audit.ActorSystem, repo.entries[0].ActorID)
}

func TestRecorder_EventTypeFlattensToAction(t *testing.T) {
	tests := []struct {
		event  audit.EventType
		action audit.Action
	}{
		{audit.EventPolicyCreated, audit.ActionCreate},
		{audit.EventVersionCreated, audit.ActionCreate},
		{audit.EventPolicyDeleted, audit.ActionDelete},
		{audit.EventPolicyUpdated, audit.ActionUpdate},
		{audit.EventPolicyActivated, audit.ActionUpdate},
		{audit.EventSimulationRun, audit.ActionUpdate},
		{audit.EventExecutionCompleted, audit.ActionUpdate},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			repo := &memAuditRepo{}
			rec := NewRecorder(repo, discardLogger())

			rec.Log(context.Background(), tt.event, "policy-1", "user-1", nil, "company-1")

			require.Len(t, repo.entries, 1)
			assert.Equal(t, tt.action, repo.entries[0].Action)
		})
	}
}

func TestRecorder_InsertFailureIsSwallowed(t *testing.T) {
	repo := &memAuditRepo{insertErr: errors.New("connection refused")}
	rec := NewRecorder(repo, discardLogger())

	// Must not panic or surface the error to the caller.
	rec.Log(context.Background(), audit.EventPolicyCreated, "policy-1", "user-1", nil, "company-1")

	assert.Empty(t, repo.entries)
}

func TestRecorder_ListByPolicy(t *testing.T) {
	repo := &memAuditRepo{}
	rec := NewRecorder(repo, discardLogger())

	rec.Log(context.Background(), audit.EventPolicyCreated, "policy-1", "user-1", nil, "company-1")
	rec.Log(context.Background(), audit.EventPolicyActivated, "policy-1", "user-2", nil, "company-1")
	rec.Log(context.Background(), audit.EventPolicyCreated, "policy-2", "user-1", nil, "company-1")

	result, err := rec.ListByPolicy(context.Background(), "policy-1", "company-1", 1, 20)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.TotalCount)
	require.Len(t, result.Data, 2)
	assert.Equal(t, "POLICY_CREATED", result.Data[0].EventType)
	assert.Equal(t, "POLICY_ACTIVATED", result.Data[1].EventType)
}

func TestRecorder_ListByPolicy_ScopedToCompany(t *testing.T) {
	repo := &memAuditRepo{}
	rec := NewRecorder(repo, discardLogger())

	rec.Log(context.Background(), audit.EventPolicyCreated, "policy-1", "user-1", nil, "company-1")
	rec.Log(context.Background(), audit.EventPolicyUpdated, "policy-1", "user-9",
		map[string]any{"name": "confidential"}, "company-2")

	result, err := rec.ListByPolicy(context.Background(), "policy-1", "company-1", 1, 20)
	require.NoError(t, err)

	// The other tenant's trail stays invisible even for the same entity id.
	assert.Equal(t, int64(1), result.TotalCount)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "company-1", result.Data[0].CompanyID)
}

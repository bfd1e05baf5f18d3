package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duamedical/medserve/internal/agents"
	"github.com/duamedical/medserve/internal/sales/customers"
	"github.com/duamedical/medserve/internal/sales/quotations"
	"github.com/duamedical/medserve/internal/shared"
	"github.com/duamedical/medserve/jobs"
)

// ============================================================================
// Stubs
// ============================================================================

type stubReconciler struct {
	got uuid.UUID
	err error
}

func (s *stubReconciler) Reconcile(_ context.Context, id uuid.UUID) (*quotations.Quotation, error) {
	s.got = id
	if s.err != nil {
		return nil, s.err
	}
	return &quotations.Quotation{ID: id, QuotationNo: "QT-0007", Status: quotations.QuotationStatusAccepted}, nil
}

type stubLedger struct {
	fix    bool
	report jobs.IntegrityReport
}

func (s *stubLedger) Run(_ context.Context, fix bool) (jobs.IntegrityReport, error) {
	s.fix = fix
	return s.report, nil
}

type stubInspector struct{}

func (stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Pending: 3, Retry: 1}, nil
}

func run(t *testing.T, d *Deps, args ...string) (string, error) {
	t.Helper()
	closed := false
	d.Close = func() error { closed = true; return nil }
	root := NewRootCommand(func(context.Context) (*Deps, error) { return d, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	assert.True(t, closed, "deps should be closed after the command")
	return out.String(), err
}

// ============================================================================
// Commands
// ============================================================================

func TestMigrateRunsSchema(t *testing.T) {
	called := false
	out, err := run(t, &Deps{Migrate: func(context.Context) error { called = true; return nil }}, "migrate")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Contains(t, out, "schema up to date")
}

func TestJobsTrigger(t *testing.T) {
	var name string
	d := &Deps{Trigger: func(_ context.Context, n string) (*asynq.TaskInfo, error) {
		name = n
		return &asynq.TaskInfo{ID: "abc", Type: n, Queue: jobs.QueueDefault}, nil
	}}
	out, err := run(t, d, "jobs", "trigger", jobs.TaskLedgerIntegrity)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskLedgerIntegrity, name)
	assert.Contains(t, out, "enqueued "+jobs.TaskLedgerIntegrity)
}

func TestJobsInspectPrintsCounters(t *testing.T) {
	out, err := run(t, &Deps{Inspector: stubInspector{}}, "jobs", "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, `"pending": 3`)
	assert.Contains(t, out, `"retry": 1`)
}

func TestQuotationReconcile(t *testing.T) {
	rec := &stubReconciler{}
	id := uuid.New()
	out, err := run(t, &Deps{Quotations: rec}, "quotation", "reconcile", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, rec.got)
	assert.Contains(t, out, "QT-0007")
}

func TestQuotationReconcileRejectsBadID(t *testing.T) {
	root := NewRootCommand(func(context.Context) (*Deps, error) {
		t.Fatal("deps should not load for an invalid id")
		return nil, nil
	})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"quotation", "reconcile", "nope"})
	require.Error(t, root.Execute())
}

func TestQuotationReconcilePropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := run(t, &Deps{Quotations: &stubReconciler{err: boom}}, "quotation", "reconcile", uuid.NewString())
	require.ErrorIs(t, err, boom)
}

func TestLedgerVerifyReportsDrift(t *testing.T) {
	ledger := &stubLedger{report: jobs.IntegrityReport{
		Customers: []customers.Drift{{ID: uuid.New(), SerialNumber: "CUS-0001", Stored: 10, Computed: 12}},
	}}
	out, err := run(t, &Deps{Ledger: ledger}, "ledger", "verify")
	require.ErrorIs(t, err, ErrDriftFound)
	assert.False(t, ledger.fix)
	assert.Contains(t, out, "CUS-0001")
}

func TestLedgerVerifyFix(t *testing.T) {
	ledger := &stubLedger{report: jobs.IntegrityReport{
		Customers: []customers.Drift{{ID: uuid.New(), SerialNumber: "CUS-0001", Stored: 10, Computed: 12}},
	}}
	_, err := run(t, &Deps{Ledger: ledger}, "ledger", "verify", "--fix")
	require.NoError(t, err)
	assert.True(t, ledger.fix)
}

func TestLoaderErrorStopsCommand(t *testing.T) {
	boom := errors.New("no database")
	root := NewRootCommand(func(context.Context) (*Deps, error) { return nil, boom })
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"migrate"})
	require.ErrorIs(t, root.Execute(), boom)
}

// ============================================================================
// Seed
// ============================================================================

type stubAgents struct {
	reqs []agents.AgentRequest
	err  error
}

func (s *stubAgents) Create(_ context.Context, req agents.AgentRequest) (*agents.Agent, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return &agents.Agent{ID: uuid.New(), Email: *req.Email}, nil
}

type stubCustomers struct {
	reqs []customers.CreateCustomerRequest
}

func (s *stubCustomers) Create(_ context.Context, req customers.CreateCustomerRequest) (*customers.Customer, error) {
	s.reqs = append(s.reqs, req)
	return &customers.Customer{ID: uuid.New(), SerialNumber: "CUST001", CustomerName: req.CustomerName}, nil
}

func TestSeedCreatesAdminOnly(t *testing.T) {
	ag, cs := &stubAgents{}, &stubCustomers{}
	out, err := run(t, &Deps{Agents: ag, Customers: cs}, "seed", "--email", "ops@example.com")
	require.NoError(t, err)
	require.Len(t, ag.reqs, 1)
	assert.Equal(t, "ops@example.com", *ag.reqs[0].Email)
	assert.Len(t, ag.reqs[0].Permissions, 9)
	assert.Empty(t, cs.reqs)
	assert.Contains(t, out, "Seed complete")
}

func TestSeedExistingAdminIsNotAnError(t *testing.T) {
	ag := &stubAgents{err: shared.Duplicate("Agent email")}
	out, err := run(t, &Deps{Agents: ag, Customers: &stubCustomers{}}, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestSeedDemoCustomers(t *testing.T) {
	cs := &stubCustomers{}
	_, err := run(t, &Deps{Agents: &stubAgents{}, Customers: cs}, "seed", "--demo")
	require.NoError(t, err)
	require.Len(t, cs.reqs, 3)
	require.NotNil(t, cs.reqs[0].Amount)
	assert.Equal(t, 25000.0, cs.reqs[0].Amount.Float())
	assert.Nil(t, cs.reqs[1].Amount)
	assert.Equal(t, "Credit", cs.reqs[2].DebitCredit)
}

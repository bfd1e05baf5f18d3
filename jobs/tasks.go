// Package jobs runs the asynq worker: quotation reconciliation, the nightly
// ledger integrity sweep and dashboard cache warmup.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskQuotationReconcile re-runs acceptance side effects for one quotation.
	TaskQuotationReconcile = "quotation:reconcile"
	// TaskLedgerIntegrity recomputes customer and accounting running balances.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskDashboardWarmup precomputes the dashboard cache.
	TaskDashboardWarmup = "dashboard:warmup"
)

// Cron specs, evaluated in UTC.
const (
	LedgerIntegritySpec = "0 2 * * *"
	DashboardWarmupSpec = "@every 15m"
)

// ReconcileMaxRetry bounds redelivery of a failing reconcile task.
const ReconcileMaxRetry = 5

// QuotationReconcilePayload names the quotation to reconcile.
type QuotationReconcilePayload struct {
	QuotationID uuid.UUID `json:"quotation_id"`
}

// NewQuotationReconcileTask constructs the reconcile task. The task id is
// derived from the quotation so duplicate schedules collapse while one is queued.
func NewQuotationReconcileTask(quotationID uuid.UUID) (*asynq.Task, error) {
	body, err := json.Marshal(QuotationReconcilePayload{QuotationID: quotationID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotationReconcile, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(ReconcileMaxRetry),
		asynq.TaskID("reconcile:"+quotationID.String()),
	), nil
}

// LedgerIntegrityPayload controls whether drifted balances are rewritten.
type LedgerIntegrityPayload struct {
	Fix bool `json:"fix"`
}

func NewLedgerIntegrityTask(fix bool) (*asynq.Task, error) {
	body, err := json.Marshal(LedgerIntegrityPayload{Fix: fix})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, body, asynq.Queue(QueueDefault), asynq.Timeout(10*time.Minute)), nil
}

// DashboardWarmupPayload carries scheduling metadata.
type DashboardWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

func NewDashboardWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(DashboardWarmupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, body, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}

// NewTask builds a task by name, for manual triggering.
func NewTask(name string) (*asynq.Task, error) {
	switch name {
	case TaskLedgerIntegrity:
		return NewLedgerIntegrityTask(true)
	case TaskDashboardWarmup:
		return NewDashboardWarmupTask(time.Now().UTC())
	}
	return nil, fmt.Errorf("jobs: unknown task %q", name)
}

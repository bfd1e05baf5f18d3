package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/duamedical/medserve/internal/accounting"
	jobmetrics "github.com/duamedical/medserve/internal/jobs"
	"github.com/duamedical/medserve/internal/sales/customers"
)

// CustomerBooks recomputes customer ledgers.
type CustomerBooks interface {
	RecalculateAll(ctx context.Context, fix bool) ([]customers.Drift, error)
}

// AccountingBook recomputes the accounting running balance.
type AccountingBook interface {
	Rebalance(ctx context.Context, fix bool) ([]accounting.Drift, error)
}

// IntegrityReport summarises one integrity run.
type IntegrityReport struct {
	Customers  []customers.Drift  `json:"customers"`
	Accounting []accounting.Drift `json:"accounting"`
}

// LedgerIntegrityJob verifies stored running balances against their entries.
type LedgerIntegrityJob struct {
	Customers  CustomerBooks
	Accounting AccountingBook
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

func NewLedgerIntegrityJob(c CustomerBooks, a AccountingBook, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Customers: c, Accounting: a, Logger: logger, Metrics: metrics}
}

// Handle processes ledger:integrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	payload := LedgerIntegrityPayload{Fix: true}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Run(ctx, payload.Fix)
	return err
}

// Run checks both books. With fix set, drifted balances are rewritten.
func (j *LedgerIntegrityJob) Run(ctx context.Context, fix bool) (report IntegrityReport, err error) {
	if j == nil || j.Customers == nil || j.Accounting == nil {
		return report, errors.New("ledger integrity: handler not configured")
	}
	metrics := metricsOrDefault(j.Metrics)
	tracker := metrics.Track(TaskLedgerIntegrity)
	defer func() { err = tracker.End(err) }()

	logger := jobLogger(j.Logger, TaskLedgerIntegrity).With(slog.Bool("fix", fix))

	report.Customers, err = j.Customers.RecalculateAll(ctx, fix)
	if err != nil {
		logger.Error("customer ledgers", slog.Any("error", err))
		return report, err
	}
	metrics.AddDrifts("customers", len(report.Customers))

	report.Accounting, err = j.Accounting.Rebalance(ctx, fix)
	if err != nil {
		logger.Error("accounting book", slog.Any("error", err))
		return report, err
	}
	metrics.AddDrifts("accounting", len(report.Accounting))

	logger.Info("ledger integrity checked",
		slog.Int("customer_drifts", len(report.Customers)),
		slog.Int("accounting_drifts", len(report.Accounting)))
	return report, nil
}

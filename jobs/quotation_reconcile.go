package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/duamedical/medserve/internal/jobs"
	"github.com/duamedical/medserve/internal/sales/quotations"
	"github.com/duamedical/medserve/internal/shared"
)

// Reconciler re-runs acceptance for one quotation.
type Reconciler interface {
	Reconcile(ctx context.Context, id uuid.UUID) (*quotations.Quotation, error)
}

// QuotationReconcileJob creates the invoice and challan an accepted
// quotation is still missing.
type QuotationReconcileJob struct {
	Quotations Reconciler
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

func NewQuotationReconcileJob(q Reconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *QuotationReconcileJob {
	return &QuotationReconcileJob{Quotations: q, Logger: logger, Metrics: metrics}
}

// Handle processes quotation:reconcile tasks. A vanished quotation is not
// retried; remaining downstream failures are, up to the task's MaxRetry.
func (j *QuotationReconcileJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Quotations == nil {
		return errors.New("quotation reconcile: handler not configured")
	}
	var payload QuotationReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.QuotationID == uuid.Nil {
		return fmt.Errorf("quotation reconcile: bad payload: %w", asynq.SkipRetry)
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskQuotationReconcile)
	defer func() { err = tracker.End(err) }()

	logger := jobLogger(j.Logger, TaskQuotationReconcile).With(slog.String("quotation_id", payload.QuotationID.String()))
	q, err := j.Quotations.Reconcile(ctx, payload.QuotationID)
	if errors.Is(err, shared.ErrNotFound) {
		logger.Info("quotation gone, nothing to reconcile")
		return nil
	}
	if err != nil {
		logger.Warn("reconcile failed", slog.Any("error", err))
		return err
	}
	logger.Info("quotation reconciled", slog.String("quotation_no", q.QuotationNo))
	return nil
}

package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	salesshared "github.com/duamedical/medserve/internal/sales/shared"
	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
)

// ReconcileScheduler queues a background retry of document materialization.
type ReconcileScheduler interface {
	ScheduleReconcile(ctx context.Context, quotationID uuid.UUID) error
}

type Service struct {
	repo      Repository
	workflow  *Workflow
	ids       *seqid.Generator
	defaults  salesshared.Defaults
	scheduler ReconcileScheduler
	notifier  shared.ChangeNotifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, workflow *Workflow, ids *seqid.Generator, defaults salesshared.Defaults, scheduler ReconcileScheduler, notifier shared.ChangeNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ids == nil {
		ids = seqid.NewGenerator(nil, logger, nil)
	}
	return &Service{
		repo:      repo,
		workflow:  workflow,
		ids:       ids,
		defaults:  defaults,
		scheduler: scheduler,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]Quotation, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quotations: %w", err)
	}
	return list, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(list), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new quotation under the next QUO code. A quotation
// created already Accepted is materialized like a first acceptance.
func (s *Service) Create(ctx context.Context, req QuotationRequest) (*UpdateResult, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	q := &Quotation{
		ID:        uuid.New(),
		Date:      now,
		Products:  []salesshared.LineItem{},
		Status:    QuotationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.QuotationNo = nil
	req.apply(q)
	s.applyDefaults(q, req.suppliedTotal())

	_, err := s.ids.Allocate(ctx, CodePrefix, s.repo, func(ctx context.Context, code string) error {
		q.QuotationNo = code
		q.ReferenceNo = code
		return s.repo.Insert(ctx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("create quotation: %w", err)
	}

	result := &UpdateResult{Quotation: q}
	if q.Accepted() {
		result.Warnings = s.materialize(ctx, q, ModeCreate)
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return result, nil
}

// Update applies req and persists the quotation. On the transition into
// Accepted the invoice and challan are materialized; a re-save while
// already Accepted refreshes them. Downstream failures never undo the
// quotation save: they come back as warnings and a reconcile is scheduled.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req QuotationRequest) (*UpdateResult, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	var q *Quotation
	var wasAccepted bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		wasAccepted = current.Accepted()
		if req.apply(current) {
			current.ReferenceNo = current.QuotationNo
		}
		s.applyDefaults(current, req.suppliedTotal())
		current.UpdatedAt = s.now().UTC()
		if err := repo.Save(ctx, current); err != nil {
			return err
		}
		q = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{Quotation: q}
	if q.Accepted() {
		mode := ModeCreate
		if wasAccepted {
			mode = ModeRefresh
		}
		result.Warnings = s.materialize(ctx, q, mode)
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return result, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return nil
}

// Reconcile materializes the documents of an accepted quotation, creating
// whatever is missing. Quotations that are not Accepted are left alone.
func (s *Service) Reconcile(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Accepted() || s.workflow == nil {
		return q, nil
	}
	if _, err := s.workflow.Materialize(ctx, q, ModeCreate); err != nil {
		if lerr := s.saveLinks(ctx, q); lerr != nil {
			s.logger.Warn("persist quotation links", slog.String("quotation_no", q.QuotationNo), slog.Any("error", lerr))
		}
		return q, err
	}
	if err := s.saveLinks(ctx, q); err != nil {
		return q, err
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return q, nil
}

// materialize runs the workflow and turns failures into warnings.
func (s *Service) materialize(ctx context.Context, q *Quotation, mode Mode) []string {
	if s.workflow == nil {
		return nil
	}
	var warnings []string
	_, werr := s.workflow.Materialize(ctx, q, mode)
	if err := s.saveLinks(ctx, q); err != nil {
		s.logger.Warn("persist quotation links", slog.String("quotation_no", q.QuotationNo), slog.Any("error", err))
		warnings = append(warnings, "quotation links were not saved: "+err.Error())
		if werr == nil {
			werr = err
		}
	}
	if werr == nil {
		return warnings
	}

	s.logger.Warn("materialize accepted quotation",
		slog.String("quotation_no", q.QuotationNo), slog.Any("error", werr))
	warnings = append(warnings, werr.Error())
	if s.scheduler != nil {
		if err := s.scheduler.ScheduleReconcile(ctx, q.ID); err != nil {
			s.logger.Error("schedule quotation reconcile", slog.String("quotation_no", q.QuotationNo), slog.Any("error", err))
			warnings = append(warnings, "reconcile could not be scheduled: "+err.Error())
		} else {
			warnings = append(warnings, "invoice and delivery challan will be retried in the background")
		}
	}
	return warnings
}

func (s *Service) saveLinks(ctx context.Context, q *Quotation) error {
	q.UpdatedAt = s.now().UTC()
	return s.repo.SaveLinks(ctx, q)
}

// applyDefaults fills email, terms and validity and recomputes totals.
// supplied is the total carried by the request, 0 when absent.
func (s *Service) applyDefaults(q *Quotation, supplied float64) {
	if q.Email == "" {
		q.Email = s.defaults.Email
	}
	if len(q.TermsAndConditions) == 0 {
		q.TermsAndConditions = append([]string(nil), s.defaults.Terms...)
	}
	if q.ValidUntil.IsZero() {
		validity := s.defaults.QuotationValidity
		if validity <= 0 {
			validity = 45 * 24 * time.Hour
		}
		q.ValidUntil = q.Date.Add(validity)
	}
	q.Totals = salesshared.QuotationTotals(q.Products, q.TaxConfig, supplied, s.defaults.TrustClientTotal)
}

// ComputeStats sums quotation totals and counts by status.
func ComputeStats(list []Quotation) Stats {
	total := decimal.Zero
	stats := Stats{TotalQuotations: len(list)}
	for _, q := range list {
		total = total.Add(decimal.NewFromFloat(q.TotalAmount))
		switch q.Status {
		case QuotationStatusAccepted:
			stats.Accepted++
		case QuotationStatusPending:
			stats.Pending++
		}
	}
	stats.TotalAmount = total.InexactFloat64()
	return stats
}

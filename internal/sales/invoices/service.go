package invoices

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

type Service struct {
	repo     Repository
	ids      *seqid.Generator
	defaults salesshared.Defaults
	notifier shared.ChangeNotifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, ids *seqid.Generator, defaults salesshared.Defaults, notifier shared.ChangeNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ids == nil {
		ids = seqid.NewGenerator(nil, logger, nil)
	}
	return &Service{repo: repo, ids: ids, defaults: defaults, notifier: notifier, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Invoice, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
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

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	inv := &Invoice{
		ID:        uuid.New(),
		Date:      now,
		Status:    StatusPending,
		Products:  []salesshared.LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.Apply(inv, s.defaults.Email)
	inv.Recompute()

	_, err := s.ids.Allocate(ctx, CodePrefix, s.repo, func(ctx context.Context, code string) error {
		inv.InvoiceNo = code
		return s.repo.Insert(ctx, inv)
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return inv, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req InvoiceRequest) (*Invoice, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	var out *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		req.Apply(inv, s.defaults.Email)
		inv.Recompute()
		inv.UpdatedAt = s.now().UTC()
		if err := repo.Save(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return nil
}

// ComputeStats sums totals by status. Pending and Partial invoices both
// count as outstanding.
func ComputeStats(list []Invoice) Stats {
	total, paid, pending := decimal.Zero, decimal.Zero, decimal.Zero
	for _, inv := range list {
		amount := decimal.NewFromFloat(inv.TotalAmount)
		total = total.Add(amount)
		switch inv.Status {
		case StatusPaid:
			paid = paid.Add(amount)
		case StatusPending, StatusPartial:
			pending = pending.Add(amount)
		}
	}
	return Stats{
		TotalInvoices: len(list),
		TotalAmount:   total.InexactFloat64(),
		PaidAmount:    paid.InexactFloat64(),
		PendingAmount: pending.InexactFloat64(),
	}
}

// Package inventory manages the unified stock list of machines, probes,
// parts, products and imported stock.
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
)

// Service coordinates inventory operations.
type Service struct {
	repo     Repository
	ids      *seqid.Generator
	notifier shared.ChangeNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, ids *seqid.Generator, notifier shared.ChangeNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ids == nil {
		ids = seqid.NewGenerator(nil, logger, nil)
	}
	return &Service{repo: repo, ids: ids, notifier: notifier, logger: logger, now: time.Now}
}

// List returns items newest first. An empty category lists everything.
func (s *Service) List(ctx context.Context, category string) ([]Item, error) {
	items, err := s.repo.List(ctx, Category(category))
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return items, nil
}

// Stats computes the summary over the whole inventory.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, err := s.List(ctx, "")
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(items), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new item. sN continues the category's sequence and the
// category's identifying codes are generated when not supplied.
func (s *Service) Create(ctx context.Context, req ItemRequest) (*Item, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Category == nil || *req.Category == "" {
		return nil, shared.NewValidationError("category", "is required")
	}

	now := s.now().UTC()
	rec := Record{Date: now}
	req.apply(&rec)
	if !rec.Category.IsValid() {
		return nil, shared.NewValidationError("category", "must be one of: machines probs parts productsCategory importStock")
	}

	if rec.SN <= 0 {
		last, err := s.repo.MaxSN(ctx, rec.Category)
		if err != nil {
			return nil, fmt.Errorf("create inventory item: %w", err)
		}
		rec.SN = last + 1
	}
	if err := s.generateCodes(ctx, &rec); err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}

	it, err := FromRecord(uuid.New(), rec)
	if err != nil {
		return nil, err
	}
	it.CreatedAt, it.UpdatedAt = now, now
	if err := s.repo.Insert(ctx, &it); err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return &it, nil
}

// generateCodes fills the blank codes the category is identified by.
func (s *Service) generateCodes(ctx context.Context, rec *Record) error {
	type code struct {
		prefix string
		field  *string
	}
	var codes []code
	switch rec.Category {
	case CategoryMachines, CategoryParts:
		codes = []code{{PrefixModel, &rec.ModelNo}}
	case CategoryProducts:
		codes = []code{{PrefixPart, &rec.PN}, {PrefixMachine, &rec.SerialNo}, {PrefixModel, &rec.ModelNo}}
	case CategoryProbes:
		codes = []code{{PrefixBox, &rec.BoxNo}, {PrefixModel, &rec.ModelNo}}
	case CategoryImportStock:
		codes = []code{{PrefixImport, &rec.SerialNo}}
	}
	for _, c := range codes {
		if *c.field != "" {
			continue
		}
		next, err := s.ids.Peek(ctx, c.prefix, s.repo)
		if err != nil {
			return err
		}
		*c.field = next
	}
	return nil
}

// Update applies the present fields. The category may change; fields the
// new category does not carry are dropped.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req ItemRequest) (*Item, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := current.Record()
	req.apply(&rec)

	it, err := FromRecord(id, rec)
	if err != nil {
		return nil, err
	}
	it.CreatedAt = current.CreatedAt
	it.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, &it); err != nil {
		return nil, err
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return &it, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return nil
}

// ComputeStats values unsold stock at price × max(quantity, 1) and counts
// in-stock machines, probes and parts, and sold items.
func ComputeStats(items []Item) Stats {
	var stats Stats
	value := decimal.Zero
	for _, it := range items {
		if it.Sold() {
			stats.ItemsSold++
			continue
		}
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		value = value.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(qty))))

		switch d := it.Details.(type) {
		case Machine:
			if d.MachineCategory == "" || d.MachineCategory == MachineInStock {
				stats.ItemsInStockMachines++
			}
		case Probe:
			stats.StockInProbes++
		case Part:
			if it.Quantity > 0 {
				stats.StockInParts++
			}
		}
	}
	stats.TotalStockValue = value.InexactFloat64()
	return stats
}

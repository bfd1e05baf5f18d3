package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	salesshared "github.com/duamedical/medserve/internal/sales/shared"
	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
)

// Service handles delivery challan business logic.
type Service struct {
	repo     Repository
	ids      *seqid.Generator
	notifier shared.ChangeNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new delivery service.
func NewService(repo Repository, ids *seqid.Generator, notifier shared.ChangeNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ids == nil {
		ids = seqid.NewGenerator(nil, logger, nil)
	}
	return &Service{repo: repo, ids: ids, notifier: notifier, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Challan, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list delivery challans: %w", err)
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

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Challan, error) {
	return s.repo.Get(ctx, id)
}

// Create allocates a DC code and stores the challan. The reference number
// defaults to the challan number.
func (s *Service) Create(ctx context.Context, req ChallanRequest) (*Challan, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := &Challan{
		ID:        uuid.New(),
		Date:      now,
		Items:     []Item{},
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(c, req)
	explicitRef := c.ReferenceNo

	_, err := s.ids.Allocate(ctx, CodePrefix, s.repo, func(ctx context.Context, code string) error {
		c.ChallanNo = code
		if explicitRef == "" {
			c.ReferenceNo = code
		}
		return s.repo.Insert(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("create delivery challan: %w", err)
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return c, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req ChallanRequest) (*Challan, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	var out *Challan
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		c, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		apply(c, req)
		if c.ReferenceNo == "" {
			c.ReferenceNo = c.ChallanNo
		}
		c.UpdatedAt = s.now().UTC()
		if err := repo.Save(ctx, c); err != nil {
			return err
		}
		out = c
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

func apply(c *Challan, req ChallanRequest) {
	if req.ReferenceNo != nil {
		c.ReferenceNo = salesshared.NormalizeCode(*req.ReferenceNo)
	}
	if req.SourceQuotationID != nil {
		c.SourceQuotationID = req.SourceQuotationID
	}
	if req.Date != nil && !req.Date.IsZero() {
		c.Date = req.Date.Time
	}
	if req.Customer != nil {
		c.Customer = *req.Customer
	}
	if req.CustomerID != nil {
		c.CustomerID = req.CustomerID
	}
	if req.Address != nil {
		c.Address = *req.Address
	}
	if req.Items != nil {
		c.Items = AssignItemIDs(*req.Items)
	}
	if req.Status != nil && *req.Status != "" {
		c.Status = Status(*req.Status)
	}
	if req.VehicleNo != nil {
		c.VehicleNo = *req.VehicleNo
	}
}

// AssignItemIDs gives every row without an id a fresh one.
func AssignItemIDs(items []Item) []Item {
	if items == nil {
		return []Item{}
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
	return items
}

// FromLineItems maps quotation rows to challan items, dropping rows with a
// blank product.
func FromLineItems(lines []salesshared.LineItem) []Item {
	lines = salesshared.NonBlank(lines)
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			ProductName:    l.Product,
			Description:    l.Description,
			BuyDescription: l.BuyDescription,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			Total:          l.Total,
			BuyPrice:       l.BuyPrice,
			SellPrice:      l.SellPrice,
		})
	}
	return AssignItemIDs(items)
}

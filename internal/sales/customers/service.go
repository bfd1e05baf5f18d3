package customers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
)

type Service struct {
	repo     Repository
	ids      *seqid.Generator
	logger   *slog.Logger
	notifier shared.ChangeNotifier
	now      func() time.Time
}

func NewService(repo Repository, ids *seqid.Generator, notifier shared.ChangeNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ids == nil {
		ids = seqid.NewGenerator(nil, logger, nil)
	}
	return &Service{repo: repo, ids: ids, logger: logger, notifier: notifier, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Customer, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
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

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, shared.NewValidationError("customerName", "is required")
	}

	now := s.now().UTC()
	c := &Customer{
		ID:           uuid.New(),
		CustomerName: strings.TrimSpace(req.CustomerName),
		PhoneNumber:  req.PhoneNumber,
		City:         req.City,
		DebitCredit:  Debit,
		Ledger:       []LedgerEntry{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Amount != nil && req.Amount.Float() > 0 && req.DebitCredit != "" {
		SetInitialBalance(c, req.Amount.Float(), Direction(req.DebitCredit), now)
		c.Ledger[0].TotalAmount = req.Amount.Float()
	}

	code, err := s.ids.Allocate(ctx, CodePrefix, s.repo, func(ctx context.Context, code string) error {
		c.SerialNumber = code
		return s.repo.Insert(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	c.SerialNumber = code
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return c, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*Customer, error) {
	if req.DebitCredit != nil && *req.DebitCredit != string(Debit) && *req.DebitCredit != string(Credit) {
		return nil, shared.NewValidationError("debitCredit", "must be one of: Debit Credit")
	}
	return s.mutate(ctx, id, func(c *Customer, now time.Time) error {
		if req.CustomerName != nil && strings.TrimSpace(*req.CustomerName) != "" {
			c.CustomerName = strings.TrimSpace(*req.CustomerName)
		}
		if req.PhoneNumber != nil {
			c.PhoneNumber = *req.PhoneNumber
		}
		if req.City != nil {
			c.City = *req.City
		}
		if req.Amount != nil && req.DebitCredit != nil {
			SetInitialBalance(c, req.Amount.Float(), Direction(*req.DebitCredit), now)
		}
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return nil
}

func (s *Service) AddLedgerEntry(ctx context.Context, id uuid.UUID, req LedgerEntryRequest) (*Customer, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Particulars) == "" {
		return nil, shared.NewValidationError("particulars", "is required")
	}
	if IsInitialBalance(req.Particulars) {
		return nil, errReservedParticulars()
	}
	return s.mutate(ctx, id, func(c *Customer, now time.Time) error {
		AddEntry(c, LedgerEntry{
			Date:         req.Date.TimeOr(now),
			Particulars:  req.Particulars,
			DebitAmount:  req.DebitAmount.Float(),
			CreditAmount: req.CreditAmount.Float(),
			Reference:    req.Reference,
			Quantity:     shared.FloatPtr(req.Quantity),
			UnitPrice:    shared.FloatPtr(req.UnitPrice),
		}, now)
		return nil
	})
}

func (s *Service) UpdateLedgerEntry(ctx context.Context, id uuid.UUID, entryID string, patch LedgerEntryPatch) (*Customer, error) {
	if err := shared.ValidateStruct(patch); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(c *Customer, now time.Time) error {
		return UpdateEntry(c, entryID, patch, now)
	})
}

func (s *Service) DeleteLedgerEntry(ctx context.Context, id uuid.UUID, entryID string) (*Customer, error) {
	return s.mutate(ctx, id, func(c *Customer, _ time.Time) error {
		return DeleteEntry(c, entryID)
	})
}

// mutate loads the customer under a row lock, applies fn, recalculates and
// saves in one transaction.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*Customer, time.Time) error) (*Customer, error) {
	var out *Customer
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		c, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := fn(c, now); err != nil {
			return err
		}
		Recalculate(c)
		c.UpdatedAt = now
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

// RecalculateAll recomputes every customer's balance and reports the ones
// whose stored balance drifted. When fix is set drifted rows are saved.
func (s *Service) RecalculateAll(ctx context.Context, fix bool) ([]Drift, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	var drifts []Drift
	for i := range list {
		c := list[i]
		stored, storedDir := c.TotalBalance, c.DebitCredit
		Recalculate(&c)
		if c.TotalBalance == stored && c.DebitCredit == storedDir {
			continue
		}
		drifts = append(drifts, Drift{ID: c.ID, SerialNumber: c.SerialNumber, Stored: stored, Computed: c.TotalBalance})
		if !fix {
			continue
		}
		if _, err := s.mutate(ctx, c.ID, func(*Customer, time.Time) error { return nil }); err != nil {
			return drifts, fmt.Errorf("fix customer %s: %w", c.SerialNumber, err)
		}
	}
	return drifts, nil
}

// Drift describes a customer whose stored balance disagrees with its ledger.
type Drift struct {
	ID           uuid.UUID `json:"id"`
	SerialNumber string    `json:"serialNumber"`
	Stored       float64   `json:"stored"`
	Computed     float64   `json:"computed"`
}

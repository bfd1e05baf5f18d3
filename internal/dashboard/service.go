// Package dashboard derives the summary shown on the landing page from
// invoices, inventory and the accounting book.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/duamedical/medserve/internal/accounting"
	"github.com/duamedical/medserve/internal/inventory"
	"github.com/duamedical/medserve/internal/platform/cache"
	"github.com/duamedical/medserve/internal/sales/invoices"
)

// InvoiceSource lists invoices.
type InvoiceSource interface {
	List(ctx context.Context) ([]invoices.Invoice, error)
}

// InventorySource lists stock items; an empty category lists everything.
type InventorySource interface {
	List(ctx context.Context, category string) ([]inventory.Item, error)
}

// LedgerSource lists accounting entries.
type LedgerSource interface {
	List(ctx context.Context, filter accounting.Filter) ([]accounting.Entry, error)
}

// Service builds dashboard stats behind a versioned Redis cache.
type Service struct {
	invoices  InvoiceSource
	inventory InventorySource
	ledger    LedgerSource
	cache     *cache.Versioned
	logger    *slog.Logger
	group     singleflight.Group
	now       func() time.Time
}

// NewService wires the sources. cache may be nil, which disables caching.
func NewService(inv InvoiceSource, stock InventorySource, ledger LedgerSource, c *cache.Versioned, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: inv, inventory: stock, ledger: ledger, cache: c, logger: logger, now: time.Now}
}

// Stats returns the dashboard for year, or the current year when year is 0.
func (s *Service) Stats(ctx context.Context, year int) (Stats, error) {
	if year <= 0 {
		year = currentYear(s.now)
	}
	key, err := s.cache.BuildKey(ctx, "stats", strconv.Itoa(year))
	if err != nil {
		s.logger.Warn("dashboard cache key", slog.Any("error", err))
		return s.build(ctx, year)
	}

	ch := s.group.DoChan(key, func() (any, error) {
		var out Stats
		err := s.cache.FetchJSON(context.WithoutCancel(ctx), key, &out, func(ctx context.Context) (any, error) {
			return s.build(ctx, year)
		})
		return out, err
	})
	select {
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Stats{}, res.Err
		}
		return res.Val.(Stats), nil
	}
}

// Warm precomputes the current year's dashboard into the cache.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.Stats(ctx, 0)
	return err
}

func (s *Service) build(ctx context.Context, year int) (Stats, error) {
	var (
		invs    []invoices.Invoice
		items   []inventory.Item
		entries []accounting.Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invs, err = s.invoices.List(gctx)
		if err != nil {
			return fmt.Errorf("load invoices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = s.inventory.List(gctx, "")
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = s.ledger.List(gctx, accounting.Filter{})
		if err != nil {
			return fmt.Errorf("load accounting: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return Build(year, invs, items, entries), nil
}

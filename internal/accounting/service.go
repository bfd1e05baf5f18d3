package accounting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/duamedical/medserve/internal/shared"
)

// Service coordinates entry writes and keeps running balances consistent.
type Service struct {
	repo     Repository
	notifier shared.ChangeNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the accounting service.
func NewService(repo Repository, notifier shared.ChangeNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns matching entries newest first as stored.
func (s *Service) List(ctx context.Context, filter Filter) ([]Entry, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list accounting entries: %w", err)
	}
	return entries, nil
}

// ListWithStats returns matching entries newest first with balances taken
// from a fresh pass over the whole book, and the book's stats.
func (s *Service) ListWithStats(ctx context.Context, filter Filter) (ListResult, error) {
	book, err := s.book(ctx)
	if err != nil {
		return ListResult{}, err
	}
	out := make([]Entry, 0, len(book))
	for i := len(book) - 1; i >= 0; i-- {
		if filter.match(book[i]) {
			out = append(out, book[i])
		}
	}
	return ListResult{Entries: out, Stats: ComputeStats(book)}, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	book, err := s.book(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(book), nil
}

// book loads every entry in chronological order with running balances.
func (s *Service) book(ctx context.Context) ([]Entry, error) {
	entries, err := s.repo.Chronological(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounting book: %w", err)
	}
	ApplyRunningBalance(entries)
	return entries, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.Get(ctx, id)
}

// Statement returns entries dated within [from, to] oldest first.
func (s *Service) Statement(ctx context.Context, from, to time.Time) ([]Entry, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, shared.NewValidationError("endDate", "must not be before startDate")
	}
	entries, err := s.repo.Between(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("accounting statement: %w", err)
	}
	return entries, nil
}

func (s *Service) Create(ctx context.Context, req EntryRequest) (*Entry, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	e := &Entry{ID: uuid.New(), Date: now, CreatedAt: now, UpdatedAt: now}
	req.apply(e)
	e.normalize()
	if err := e.Validate(); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.LockBook(ctx); err != nil {
			return err
		}
		if err := repo.Insert(ctx, e); err != nil {
			return err
		}
		return s.rebalance(ctx, repo, e)
	})
	if err != nil {
		return nil, fmt.Errorf("create accounting entry: %w", err)
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return e, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req EntryRequest) (*Entry, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	var e *Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.LockBook(ctx); err != nil {
			return err
		}
		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		req.apply(current)
		current.normalize()
		if err := current.Validate(); err != nil {
			return err
		}
		current.UpdatedAt = s.now().UTC()
		if err := repo.Save(ctx, current); err != nil {
			return err
		}
		e = current
		return s.rebalance(ctx, repo, e)
	})
	if err != nil {
		return nil, err
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.LockBook(ctx); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.rebalance(ctx, repo, nil)
	})
	if err != nil {
		return err
	}
	shared.NotifyChange(ctx, s.notifier, s.logger)
	return nil
}

// rebalance rewrites every running balance that changed and copies the new
// balance of target onto it.
func (s *Service) rebalance(ctx context.Context, repo Repository, target *Entry) error {
	entries, err := repo.Chronological(ctx)
	if err != nil {
		return err
	}
	changed := ApplyRunningBalance(entries)
	if err := repo.SaveBalances(ctx, changed); err != nil {
		return err
	}
	if target != nil {
		for _, e := range entries {
			if e.ID == target.ID {
				target.Balance = e.Balance
				break
			}
		}
	}
	return nil
}

// Rebalance compares stored balances with the book. With fix set the
// drifted balances are rewritten.
func (s *Service) Rebalance(ctx context.Context, fix bool) ([]Drift, error) {
	var drifts []Drift
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if fix {
			if err := repo.LockBook(ctx); err != nil {
				return err
			}
		}
		entries, err := repo.Chronological(ctx)
		if err != nil {
			return err
		}
		stored := make(map[uuid.UUID]float64, len(entries))
		for _, e := range entries {
			stored[e.ID] = e.Balance
		}
		changed := ApplyRunningBalance(entries)
		for _, e := range changed {
			drifts = append(drifts, Drift{ID: e.ID, Stored: stored[e.ID], Computed: e.Balance})
		}
		if !fix {
			return nil
		}
		return repo.SaveBalances(ctx, changed)
	})
	if err != nil {
		return nil, fmt.Errorf("rebalance accounting book: %w", err)
	}
	if fix && len(drifts) > 0 {
		s.logger.Warn("accounting balances rewritten", slog.Int("entries", len(drifts)))
		shared.NotifyChange(ctx, s.notifier, s.logger)
	}
	return drifts, nil
}

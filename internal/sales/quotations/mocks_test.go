package quotations

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/duamedical/medserve/internal/delivery"
	"github.com/duamedical/medserve/internal/sales/invoices"
	salesshared "github.com/duamedical/medserve/internal/sales/shared"
	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
)

// ============================================================================
// QUOTATION REPOSITORY
// ============================================================================

type mockRepository struct {
	mu         sync.Mutex
	quotations map[uuid.UUID]Quotation
}

func newMockRepository() *mockRepository {
	return &mockRepository{quotations: make(map[uuid.UUID]Quotation)}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, id uuid.UUID) (*Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotations[id]
	if !ok {
		return nil, ErrNotFound
	}
	q.Products = append([]salesshared.LineItem(nil), q.Products...)
	return &q, nil
}

func (m *mockRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return m.Get(ctx, id)
}

func (m *mockRepository) List(_ context.Context) ([]Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Quotation, 0, len(m.quotations))
	for _, q := range m.quotations {
		out = append(out, q)
	}
	return out, nil
}

func (m *mockRepository) Insert(_ context.Context, q *Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.quotations {
		if strings.EqualFold(existing.QuotationNo, q.QuotationNo) {
			return shared.Duplicate("Quotation number")
		}
	}
	m.quotations[q.ID] = *q
	return nil
}

func (m *mockRepository) Save(_ context.Context, q *Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quotations[q.ID]; !ok {
		return ErrNotFound
	}
	m.quotations[q.ID] = *q
	return nil
}

func (m *mockRepository) SaveLinks(_ context.Context, q *Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.quotations[q.ID]
	if !ok {
		return ErrNotFound
	}
	stored.ReferenceNo = q.ReferenceNo
	stored.LinkedInvoiceID = q.LinkedInvoiceID
	stored.LinkedDeliveryChallanID = q.LinkedDeliveryChallanID
	stored.UpdatedAt = q.UpdatedAt
	m.quotations[q.ID] = stored
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quotations[id]; !ok {
		return ErrNotFound
	}
	delete(m.quotations, id)
	return nil
}

func (m *mockRepository) LatestCode(_ context.Context, prefix string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best string
	var bestN uint64
	for _, q := range m.quotations {
		if n, ok := seqid.Parse(prefix, q.QuotationNo); ok && n >= bestN {
			best, bestN = q.QuotationNo, n
		}
	}
	return best, nil
}

// ============================================================================
// DOWNSTREAM STORES
// ============================================================================

const (
	rankLinked = iota
	rankSource
	rankOther
	rankNone
)

// rank orders matches like the SQL lookup: linked id, then source
// quotation, then code, reference or legacy subject.
func rank(lookup salesshared.DocumentLookup, id uuid.UUID, source *uuid.UUID, code, reference string, extra bool) int {
	lookup = lookup.Normalized()
	switch {
	case lookup.LinkedID != uuid.Nil && id == lookup.LinkedID:
		return rankLinked
	case lookup.SourceQuotationID != uuid.Nil && source != nil && *source == lookup.SourceQuotationID:
		return rankSource
	case lookup.Code != "" && strings.EqualFold(code, lookup.Code),
		lookup.ReferenceNo != "" && strings.EqualFold(reference, lookup.ReferenceNo),
		extra:
		return rankOther
	}
	return rankNone
}

type invoiceStore struct {
	mu        sync.Mutex
	invoices  []invoices.Invoice
	inserts   int
	insertErr error
	// hidden rows are invisible to the first lookup, like a row committed
	// by a concurrent request after our read.
	hidden []invoices.Invoice
}

func (s *invoiceStore) FindForQuotation(_ context.Context, lookup salesshared.DocumentLookup) (*invoices.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best, bestRank := -1, rankNone
	for i, inv := range s.invoices {
		legacy := lookup.Code != "" && inv.Subject == "Invoice for "+salesshared.NormalizeCode(lookup.Code)
		if r := rank(lookup, inv.ID, inv.SourceQuotationID, inv.InvoiceNo, inv.ReferenceNo, legacy); r < bestRank {
			best, bestRank = i, r
		}
	}
	if best < 0 {
		return nil, invoices.ErrNotFound
	}
	found := s.invoices[best]
	return &found, nil
}

func (s *invoiceStore) Insert(_ context.Context, inv *invoices.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if len(s.hidden) > 0 {
		s.invoices = append(s.invoices, s.hidden...)
		s.hidden = nil
	}
	for _, existing := range s.invoices {
		if strings.EqualFold(existing.InvoiceNo, inv.InvoiceNo) ||
			(existing.SourceQuotationID != nil && inv.SourceQuotationID != nil && *existing.SourceQuotationID == *inv.SourceQuotationID) {
			return shared.Duplicate("Invoice number")
		}
	}
	s.inserts++
	s.invoices = append(s.invoices, *inv)
	return nil
}

func (s *invoiceStore) Save(_ context.Context, inv *invoices.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.invoices {
		if s.invoices[i].ID == inv.ID {
			s.invoices[i] = *inv
			return nil
		}
	}
	return invoices.ErrNotFound
}

type challanStore struct {
	mu        sync.Mutex
	challans  []delivery.Challan
	inserts   int
	insertErr error
}

func (s *challanStore) FindForQuotation(_ context.Context, lookup salesshared.DocumentLookup) (*delivery.Challan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best, bestRank := -1, rankNone
	for i, c := range s.challans {
		if r := rank(lookup, c.ID, c.SourceQuotationID, c.ChallanNo, c.ReferenceNo, false); r < bestRank {
			best, bestRank = i, r
		}
	}
	if best < 0 {
		return nil, delivery.ErrNotFound
	}
	found := s.challans[best]
	return &found, nil
}

func (s *challanStore) Insert(_ context.Context, c *delivery.Challan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, existing := range s.challans {
		if strings.EqualFold(existing.ChallanNo, c.ChallanNo) {
			return shared.Duplicate("Challan number")
		}
	}
	s.inserts++
	s.challans = append(s.challans, *c)
	return nil
}

func (s *challanStore) Save(_ context.Context, c *delivery.Challan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.challans {
		if s.challans[i].ID == c.ID {
			s.challans[i] = *c
			return nil
		}
	}
	return delivery.ErrNotFound
}

type recordingScheduler struct {
	ids []uuid.UUID
	err error
}

func (r *recordingScheduler) ScheduleReconcile(_ context.Context, id uuid.UUID) error {
	r.ids = append(r.ids, id)
	return r.err
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (o *outcomeRecorder) AcceptanceOutcome(document, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[string]int)
	}
	o.outcomes[document+":"+outcome]++
}

var errStoreDown = errors.New("connection refused")

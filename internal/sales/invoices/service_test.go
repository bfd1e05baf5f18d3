package invoices

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salesshared "github.com/duamedical/medserve/internal/sales/shared"
	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
)

type mockRepository struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]Invoice
}

func newMockRepository() *mockRepository {
	return &mockRepository{invoices: make(map[uuid.UUID]Invoice)}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, id uuid.UUID) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &inv, nil
}

func (m *mockRepository) List(_ context.Context) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (m *mockRepository) FindForQuotation(_ context.Context, lookup salesshared.DocumentLookup) (*Invoice, error) {
	return nil, ErrNotFound
}

func (m *mockRepository) Insert(_ context.Context, inv *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.invoices {
		if strings.EqualFold(existing.InvoiceNo, inv.InvoiceNo) {
			return shared.Duplicate("Invoice number")
		}
	}
	m.invoices[inv.ID] = *inv
	return nil
}

func (m *mockRepository) Save(_ context.Context, inv *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[inv.ID]; !ok {
		return ErrNotFound
	}
	m.invoices[inv.ID] = *inv
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[id]; !ok {
		return ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

func (m *mockRepository) LatestCode(_ context.Context, prefix string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best string
	var bestN uint64
	for _, inv := range m.invoices {
		if n, ok := seqid.Parse(prefix, inv.InvoiceNo); ok && n >= bestN {
			best, bestN = inv.InvoiceNo, n
		}
	}
	return best, nil
}

func ptr[T any](v T) *T { return &v }

func TestCreateRecomputesTotalsAndDefaults(t *testing.T) {
	svc := NewService(newMockRepository(), nil, salesshared.DefaultDocumentDefaults(), nil, nil)

	inv, err := svc.Create(context.Background(), InvoiceRequest{
		Products: []salesshared.LineItem{
			{Product: "Ultrasound", Quantity: 1, UnitPrice: 600, Total: 600},
			{Product: "Probe", Quantity: 2, UnitPrice: 200, Total: 400},
		},
		SalesTaxEnabled: ptr(true),
		SalesTaxRate:    ptr(shared.Number(10)),
		FBRTaxEnabled:   ptr(true),
		FBRTaxRate:      ptr(shared.Number(5)),
	})
	require.NoError(t, err)

	assert.Equal(t, "INV001", inv.InvoiceNo)
	assert.Equal(t, StatusPending, inv.Status)
	assert.Equal(t, "duamedicalservice@gmail.com", inv.Email)
	assert.Equal(t, 1000.0, inv.SubTotal)
	assert.Equal(t, 100.0, inv.SalesTaxAmount)
	assert.Equal(t, 50.0, inv.FBRTaxAmount)
	assert.Equal(t, 1150.0, inv.TotalAmount)
	for _, p := range inv.Products {
		assert.NotEmpty(t, p.ID)
	}
}

func TestUpdateIgnoresSuppliedTotalAndKeepsAbsentFields(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, salesshared.DefaultDocumentDefaults(), nil, nil)
	ctx := context.Background()

	inv, err := svc.Create(ctx, InvoiceRequest{
		Customer: ptr("City Hospital"),
		Products: []salesshared.LineItem{{Product: "Monitor", Total: 300}},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, inv.ID, InvoiceRequest{Status: ptr("Paid"), Email: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, updated.Status)
	assert.Equal(t, "City Hospital", updated.Customer)
	assert.Equal(t, "duamedicalservice@gmail.com", updated.Email)
	assert.Equal(t, 300.0, updated.TotalAmount)

	_, err = svc.Update(ctx, inv.ID, InvoiceRequest{Status: ptr("Overdue")})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Update(ctx, uuid.New(), InvoiceRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestComputeStatsCountsPartialAsPending(t *testing.T) {
	stats := ComputeStats([]Invoice{
		{Status: StatusPaid, Totals: salesshared.Totals{TotalAmount: 100}},
		{Status: StatusPending, Totals: salesshared.Totals{TotalAmount: 50}},
		{Status: StatusPartial, Totals: salesshared.Totals{TotalAmount: 25}},
	})
	assert.Equal(t, 3, stats.TotalInvoices)
	assert.Equal(t, 175.0, stats.TotalAmount)
	assert.Equal(t, 100.0, stats.PaidAmount)
	assert.Equal(t, 75.0, stats.PendingAmount)
}

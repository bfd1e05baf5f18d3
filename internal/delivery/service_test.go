package delivery

import (
	"context"
	"encoding/json"
	"fmt"
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

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	mu       sync.Mutex
	challans map[uuid.UUID]Challan
}

func newMockRepository() *mockRepository {
	return &mockRepository{challans: make(map[uuid.UUID]Challan)}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, id uuid.UUID) (*Challan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challans[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *mockRepository) List(_ context.Context) ([]Challan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Challan, 0, len(m.challans))
	for _, c := range m.challans {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockRepository) FindForQuotation(context.Context, salesshared.DocumentLookup) (*Challan, error) {
	return nil, ErrNotFound
}

func (m *mockRepository) Insert(_ context.Context, c *Challan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.challans {
		if strings.EqualFold(existing.ChallanNo, c.ChallanNo) {
			return shared.Duplicate("Challan number")
		}
	}
	m.challans[c.ID] = *c
	return nil
}

func (m *mockRepository) Save(_ context.Context, c *Challan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.challans[c.ID]; !ok {
		return ErrNotFound
	}
	m.challans[c.ID] = *c
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.challans[id]; !ok {
		return ErrNotFound
	}
	delete(m.challans, id)
	return nil
}

func (m *mockRepository) LatestCode(_ context.Context, prefix string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best string
	var bestN uint64
	for _, c := range m.challans {
		if n, ok := seqid.Parse(prefix, c.ChallanNo); ok && n >= bestN {
			best, bestN = c.ChallanNo, n
		}
	}
	return best, nil
}

func decodeRequest(t *testing.T, body string) ChallanRequest {
	t.Helper()
	var req ChallanRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

// ============================================================================
// TESTS
// ============================================================================

func TestItemsInputAcceptsCount(t *testing.T) {
	req := decodeRequest(t, `{"items":3}`)
	require.NotNil(t, req.Items)
	items := []Item(*req.Items)
	require.Len(t, items, 3)
	for i, it := range items {
		assert.Equal(t, fmt.Sprintf("Item %d", i+1), it.ProductName)
		assert.Equal(t, 1.0, it.Quantity)
	}

	req = decodeRequest(t, `{"items":"2"}`)
	assert.Len(t, []Item(*req.Items), 2)

	req = decodeRequest(t, `{"items":"none"}`)
	assert.Empty(t, []Item(*req.Items))

	req = decodeRequest(t, `{"items":[{"productName":"Probe","quantity":4}]}`)
	require.Len(t, []Item(*req.Items), 1)
	assert.Equal(t, "Probe", (*req.Items)[0].ProductName)

	req = decodeRequest(t, `{}`)
	assert.Nil(t, req.Items)
}

func TestCreateDefaultsReferenceToChallanNo(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, decodeRequest(t, `{"customer":"Clinic","items":2}`))
	require.NoError(t, err)
	assert.Equal(t, "DC001", first.ChallanNo)
	assert.Equal(t, "DC001", first.ReferenceNo)
	assert.Equal(t, StatusPending, first.Status)
	require.Len(t, first.Items, 2)
	assert.NotEmpty(t, first.Items[0].ID)

	second, err := svc.Create(ctx, decodeRequest(t, `{"referenceNo":"quo007"}`))
	require.NoError(t, err)
	assert.Equal(t, "DC002", second.ChallanNo)
	assert.Equal(t, "QUO007", second.ReferenceNo)
}

func TestUpdateChangesOnlyPresentFields(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, decodeRequest(t, `{"customer":"Clinic","vehicleNo":"LEA-1","items":1}`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, c.ID, decodeRequest(t, `{"status":"In Transit"}`))
	require.NoError(t, err)
	assert.Equal(t, StatusInTransit, updated.Status)
	assert.Equal(t, "LEA-1", updated.VehicleNo)
	assert.Len(t, updated.Items, 1)

	_, err = svc.Update(ctx, c.ID, decodeRequest(t, `{"status":"Lost"}`))
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Update(ctx, uuid.New(), ChallanRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestViewReportsItemCount(t *testing.T) {
	v := NewView(Challan{ChallanNo: "DC001", Items: PlaceholderItems(2)})
	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 2.0, decoded["items"])
	assert.Len(t, decoded["lineItems"], 2)
	assert.Equal(t, "DC001", decoded["challanNo"])
}

func TestFromLineItemsDropsBlankProducts(t *testing.T) {
	items := FromLineItems([]salesshared.LineItem{
		{Product: "Ultrasound", Quantity: 1, Total: 500},
		{Product: "   "},
	})
	require.Len(t, items, 1)
	assert.Equal(t, "Ultrasound", items[0].ProductName)
	assert.Equal(t, 500.0, items[0].Total)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats([]Challan{
		{Status: StatusDelivered}, {Status: StatusInTransit}, {Status: StatusPending}, {Status: StatusPending},
	})
	assert.Equal(t, Stats{TotalChallans: 4, Delivered: 1, InTransit: 1, Pending: 2}, stats)
}

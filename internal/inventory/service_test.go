package inventory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
)

type memoryRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]Item
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[uuid.UUID]Item)}
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

func (r *memoryRepo) List(ctx context.Context, category Category) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Item{}
	for _, it := range r.items {
		if category == "" || it.Category() == category {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepo) Insert(ctx context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[it.ID] = *it
	return nil
}

func (r *memoryRepo) Save(ctx context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[it.ID]; !ok {
		return ErrNotFound
	}
	r.items[it.ID] = *it
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) MaxSN(ctx context.Context, category Category) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		if it.Category() == category && it.SN > n {
			n = it.SN
		}
	}
	return n, nil
}

func (r *memoryRepo) LatestCode(ctx context.Context, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best string
	var bestN uint64
	for _, it := range r.items {
		rec := it.Record()
		for _, code := range []string{rec.ModelNo, rec.PN, rec.SerialNo, rec.BoxNo} {
			if n, ok := seqid.Parse(prefix, code); ok && n > bestN {
				best, bestN = code, n
			}
		}
	}
	return best, nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	clock := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, repo
}

func request(t *testing.T, body string) ItemRequest {
	t.Helper()
	var req ItemRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestDisplayCategoryProjection(t *testing.T) {
	repair, err := FromRecord(uuid.New(), Record{Category: CategoryMachines, MachineCategory: "repair"})
	require.NoError(t, err)
	require.Equal(t, "repair", DisplayCategory(repair))

	plain, err := FromRecord(uuid.New(), Record{Category: CategoryMachines})
	require.NoError(t, err)
	require.Equal(t, "instock", DisplayCategory(plain))

	named, err := FromRecord(uuid.New(), Record{Category: CategoryImportStock, CategoryName: "Ultrasound"})
	require.NoError(t, err)
	require.Equal(t, "Ultrasound", DisplayCategory(named))

	unnamed, err := FromRecord(uuid.New(), Record{Category: CategoryImportStock})
	require.NoError(t, err)
	require.Equal(t, "importStock", DisplayCategory(unnamed))

	probe, err := FromRecord(uuid.New(), Record{Category: CategoryProbes})
	require.NoError(t, err)
	require.Equal(t, "probs", DisplayCategory(probe))

	view := NewDisplay(repair)
	require.Equal(t, CategoryMachines, view.ItemType)
	require.Equal(t, "repair", view.Category)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var flat map[string]any
	require.NoError(t, json.Unmarshal(raw, &flat))
	require.Equal(t, "repair", flat["category"])
	require.Equal(t, "machines", flat["itemType"])
	require.Equal(t, repair.ID.String(), flat["id"])
}

func TestFromRecordKeepsOnlyCategoryFields(t *testing.T) {
	it, err := FromRecord(uuid.New(), Record{
		Category: CategoryParts,
		PartName: "Valve",
		BoxNo:    "BX009",
		Probes:   "Convex",
	})
	require.NoError(t, err)
	rec := it.Record()
	require.Equal(t, "Valve", rec.PartName)
	require.Empty(t, rec.BoxNo)
	require.Empty(t, rec.Probes)

	_, err = FromRecord(uuid.New(), Record{Category: "gadgets"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestNormalizeImportStatus(t *testing.T) {
	cases := map[string]ImportStatus{
		"":             "",
		"InStock":      ImportInStock,
		"in stock":     ImportInStock,
		"Repair Items": ImportRepair,
		"repair":       ImportRepair,
		"SOLD":         ImportSold,
	}
	for in, want := range cases {
		got, err := NormalizeImportStatus(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := NormalizeImportStatus("Lost")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateGeneratesCodesPerCategory(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	machine, err := svc.Create(ctx, request(t, `{"category":"machines","productName":"Ultrasound","price":"1500"}`))
	require.NoError(t, err)
	require.Equal(t, 1, machine.SN)
	require.Equal(t, "MOD001", machine.Record().ModelNo)
	require.Equal(t, 1500.0, machine.Price)

	product, err := svc.Create(ctx, request(t, `{"category":"productsCategory","productName":"Gel"}`))
	require.NoError(t, err)
	rec := product.Record()
	require.Equal(t, 1, rec.SN)
	require.Equal(t, "PN001", rec.PN)
	require.Equal(t, "MCH001", rec.SerialNo)
	require.Equal(t, "MOD002", rec.ModelNo)

	probe, err := svc.Create(ctx, request(t, `{"category":"probs","modelNo":"C5-2"}`))
	require.NoError(t, err)
	rec = probe.Record()
	require.Equal(t, "BX001", rec.BoxNo)
	require.Equal(t, "C5-2", rec.ModelNo)

	imp, err := svc.Create(ctx, request(t, `{"category":"importStock","status":"Repair Items","categoryName":"Monitors"}`))
	require.NoError(t, err)
	rec = imp.Record()
	require.Equal(t, "IMP001", rec.SerialNo)
	require.Equal(t, ImportRepair, rec.Status)
	require.Equal(t, "Monitors", DisplayCategory(*imp))

	second, err := svc.Create(ctx, request(t, `{"category":"machines"}`))
	require.NoError(t, err)
	require.Equal(t, 2, second.SN)
	require.Equal(t, "MOD003", second.Record().ModelNo)

	given, err := svc.Create(ctx, request(t, `{"category":"machines","sN":40}`))
	require.NoError(t, err)
	require.Equal(t, 40, given.SN)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, request(t, `{"productName":"x"}`))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, request(t, `{"category":"gadgets"}`))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, request(t, `{"category":"parts","quantity":-2}`))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, request(t, `{"category":"machines","machineCategory":"lost"}`))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdatePatchesAndMovesCategory(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	it, err := svc.Create(ctx, request(t, `{"category":"machines","productName":"X-Ray","price":900}`))
	require.NoError(t, err)

	sold, err := svc.Update(ctx, it.ID, request(t, `{"machineCategory":"sold","buyerName":"City Hospital"}`))
	require.NoError(t, err)
	require.True(t, sold.Sold())
	require.Equal(t, "sold", DisplayCategory(*sold))
	require.Equal(t, "X-Ray", sold.Record().ProductName)
	require.Equal(t, it.CreatedAt, sold.CreatedAt)

	_, err = svc.Update(ctx, uuid.New(), request(t, `{"price":1}`))
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, it.ID))
	require.ErrorIs(t, svc.Delete(ctx, it.ID), shared.ErrNotFound)
}

func TestComputeStatsExcludesSoldItems(t *testing.T) {
	build := func(r Record) Item {
		it, err := FromRecord(uuid.New(), r)
		require.NoError(t, err)
		return it
	}
	items := []Item{
		build(Record{Category: CategoryMachines, Price: 1000}),
		build(Record{Category: CategoryMachines, MachineCategory: "instock", Price: 500, Quantity: 2}),
		build(Record{Category: CategoryMachines, MachineCategory: "repair", Price: 100}),
		build(Record{Category: CategoryMachines, MachineCategory: "sold", Price: 9999}),
		build(Record{Category: CategoryProbes, Price: 50, Quantity: 0}),
		build(Record{Category: CategoryParts, Price: 10, Quantity: 3}),
		build(Record{Category: CategoryParts, Price: 10, Quantity: 0}),
		build(Record{Category: CategoryImportStock, Status: "Sold", Price: 7000}),
		build(Record{Category: CategoryProducts, Quantity: 0, BuyerName: "Clinic", Price: 300}),
		build(Record{Category: CategoryProbes, IsSoldEntry: true, Quantity: 4, Price: 800}),
	}

	stats := ComputeStats(items)
	require.Equal(t, 2, stats.ItemsInStockMachines)
	require.Equal(t, 1, stats.StockInProbes)
	require.Equal(t, 1, stats.StockInParts)
	require.Equal(t, 4, stats.ItemsSold)
	// 1000 + 500*2 + 100 + 50 + 10*3 + 10*1
	require.InDelta(t, 2190.0, stats.TotalStockValue, 0.001)
}

func TestListFiltersByCategory(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, request(t, `{"category":"parts","partName":"Fan"}`))
	require.NoError(t, err)
	_, err = svc.Create(ctx, request(t, `{"category":"probs"}`))
	require.NoError(t, err)

	parts, err := svc.List(ctx, "parts")
	require.NoError(t, err)
	require.Len(t, parts, 1)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, CategoryProbes, all[0].Category())
}

package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockShopRepo struct {
	shops      map[int64]*Shop
	created    *Shop
	lastBefore time.Time
}

func (m *mockShopRepo) CreateShop(_ context.Context, s *Shop) error {
	s.ID = 42
	m.created = s
	return nil
}

func (m *mockShopRepo) GetShop(_ context.Context, id int64) (*Shop, error) {
	s, ok := m.shops[id]
	if !ok {
		return nil, ErrShopNotFound
	}
	return s, nil
}

func (m *mockShopRepo) ListShops(_ context.Context) ([]Shop, error) {
	return nil, nil
}

func (m *mockShopRepo) ListShopsLicensedBefore(_ context.Context, before time.Time) ([]Shop, error) {
	m.lastBefore = before
	return nil, nil
}

func (m *mockShopRepo) DeleteShop(_ context.Context, _ int64) error {
	return nil
}

type mockItemRepo struct {
	created    *Item
	lastFilter ItemFilter
}

func (m *mockItemRepo) CreateItem(_ context.Context, it *Item) error {
	it.ID = 7
	m.created = it
	return nil
}

func (m *mockItemRepo) GetItem(_ context.Context, id int64) (*Item, error) {
	return nil, &ItemNotFoundError{ItemID: id}
}

func (m *mockItemRepo) ListItems(_ context.Context, f ItemFilter) ([]Item, error) {
	m.lastFilter = f
	return nil, nil
}

func (m *mockItemRepo) DeleteItem(_ context.Context, _ int64) error {
	return nil
}

func (m *mockItemRepo) DecrementStock(_ context.Context, _ int64, _ int) (int, error) {
	return 0, nil
}

// --- Helpers ---

func newTestService(shops ...Shop) (*Service, *mockShopRepo, *mockItemRepo) {
	sr := &mockShopRepo{shops: make(map[int64]*Shop, len(shops))}
	for i := range shops {
		sr.shops[shops[i].ID] = &shops[i]
	}
	ir := &mockItemRepo{}
	return NewService(sr, ir), sr, ir
}

// --- Tests ---

func TestCreateItem_Validation(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr error
	}{
		{
			name:    "blank name",
			item:    Item{Name: "  ", ShopID: 1, Price: decimal.NewFromInt(1)},
			wantErr: ErrEmptyName,
		},
		{
			name:    "missing shop id",
			item:    Item{Name: "Salad", Price: decimal.NewFromInt(1)},
			wantErr: ErrInvalidShopID,
		},
		{
			name:    "negative price",
			item:    Item{Name: "Salad", ShopID: 1, Price: decimal.NewFromInt(-1)},
			wantErr: ErrNegativePrice,
		},
		{
			name:    "negative quantity",
			item:    Item{Name: "Salad", ShopID: 1, Quantity: -3},
			wantErr: ErrNegativeQuantity,
		},
		{
			name:    "latitude out of range",
			item:    Item{Name: "Salad", ShopID: 1, Location: &Location{Latitude: 91}},
			wantErr: ErrInvalidLocation,
		},
		{
			name:    "unknown shop",
			item:    Item{Name: "Salad", ShopID: 99},
			wantErr: ErrShopNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, ir := newTestService(Shop{ID: 1, Name: "Green Corner"})
			err := svc.CreateItem(context.Background(), &tt.item)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, ir.created)
		})
	}
}

func TestCreateItem_Success(t *testing.T) {
	svc, _, ir := newTestService(Shop{ID: 1, Name: "Green Corner"})

	it := &Item{Name: " Kale bowl ", ShopID: 1, Price: decimal.RequireFromString("7.50"), Quantity: 12}
	require.NoError(t, svc.CreateItem(context.Background(), it))

	require.NotNil(t, ir.created)
	assert.Equal(t, "Kale bowl", ir.created.Name)
	assert.Equal(t, int64(7), it.ID)
}

func TestCreateShop_RequiresName(t *testing.T) {
	svc, sr, _ := newTestService()

	err := svc.CreateShop(context.Background(), &Shop{})
	require.ErrorIs(t, err, ErrEmptyName)

	require.NoError(t, svc.CreateShop(context.Background(), &Shop{Name: "Leaf"}))
	assert.Equal(t, int64(42), sr.created.ID)
}

func TestExpiringShops_Window(t *testing.T) {
	svc, sr, _ := newTestService()
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC) }
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.ExpiredShops(context.Background())
	require.NoError(t, err)
	assert.Equal(t, today, sr.lastBefore)

	_, err = svc.ExpiringShops(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, today.Add(DefaultExpiryWindow), sr.lastBefore)

	_, err = svc.ExpiringShops(context.Background(), 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, today.Add(48*time.Hour), sr.lastBefore)
}

func TestListItems_TrimsCategory(t *testing.T) {
	svc, _, ir := newTestService()

	_, err := svc.ListItems(context.Background(), ItemFilter{ShopID: 3, Category: " vegan "})
	require.NoError(t, err)
	assert.Equal(t, ItemFilter{ShopID: 3, Category: "vegan"}, ir.lastFilter)
}

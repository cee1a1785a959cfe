package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/cart"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository/memory"
)

type countingRepo struct {
	repository.MenuItemRepository
	getAll atomic.Int32
}

func (c *countingRepo) GetAll(ctx context.Context, vendorID string) ([]*domain.MenuItem, error) {
	c.getAll.Add(1)
	time.Sleep(20 * time.Millisecond)
	return c.MenuItemRepository.GetAll(ctx, vendorID)
}

func setupService(t *testing.T) (*Service, *countingRepo, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := &countingRepo{MenuItemRepository: memory.NewStore().MenuItems}
	return NewService(repo, NewRedisCache(client, 10*time.Minute)), repo, mr
}

func newBurger() *domain.MenuItem {
	return &domain.MenuItem{
		Name:        "Burger",
		Price:       5,
		Variations:  []domain.Variation{{Name: "Large", Price: 7}},
		AddOns:      []domain.AddOn{{Name: "Cheese", Price: 1}},
		IsAvailable: true,
	}
}

func TestCreateItem_AssignsIDs(t *testing.T) {
	svc, _, _ := setupService(t)

	item, err := svc.CreateItem(context.Background(), "vendor-1", newBurger())
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "vendor-1", item.VendorID)
	assert.NotEmpty(t, item.Variations[0].ID)
	assert.NotEmpty(t, item.AddOns[0].ID)
}

func TestCreateItem_Invalid(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.CreateItem(context.Background(), "vendor-1", &domain.MenuItem{Price: -1})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestMenu_CachesAndFiltersUnavailable(t *testing.T) {
	svc, repo, mr := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, "vendor-1", newBurger())
	require.NoError(t, err)
	hidden := newBurger()
	hidden.Name = "Seasonal"
	hidden.IsAvailable = false
	_, err = svc.CreateItem(ctx, "vendor-1", hidden)
	require.NoError(t, err)

	menu, err := svc.Menu(ctx, "vendor-1")
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "Burger", menu[0].Name)
	assert.True(t, mr.Exists("menu:vendor-1"))

	_, err = svc.Menu(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.getAll.Load())
}

func TestMenu_SingleflightOnMiss(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()
	_, err := svc.CreateItem(ctx, "vendor-1", newBurger())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Menu(ctx, "vendor-1")
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, repo.getAll.Load(), int32(2))
}

func TestMenu_CacheFailureFallsBackToRepository(t *testing.T) {
	svc, _, mr := setupService(t)
	ctx := context.Background()
	_, err := svc.CreateItem(ctx, "vendor-1", newBurger())
	require.NoError(t, err)

	mr.Close()
	menu, err := svc.Menu(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Len(t, menu, 1)
}

func TestUpdateItem_InvalidatesCache(t *testing.T) {
	svc, _, mr := setupService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, "vendor-1", newBurger())
	require.NoError(t, err)
	_, err = svc.Menu(ctx, "vendor-1")
	require.NoError(t, err)
	require.True(t, mr.Exists("menu:vendor-1"))

	item.Price = 6
	_, err = svc.UpdateItem(ctx, "vendor-1", item)
	require.NoError(t, err)
	assert.False(t, mr.Exists("menu:vendor-1"))

	menu, err := svc.Menu(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, 6.0, menu[0].Price)
}

func TestUpdateItem_NotFound(t *testing.T) {
	svc, _, _ := setupService(t)
	item := newBurger()
	item.ID = "missing"
	_, err := svc.UpdateItem(context.Background(), "vendor-1", item)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDeleteItem(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, "vendor-1", newBurger())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, "vendor-1", item.ID))
	assert.ErrorIs(t, svc.DeleteItem(ctx, "vendor-1", item.ID), ErrItemNotFound)
}

func TestResolve_PricesCart(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, "vendor-1", newBurger())
	require.NoError(t, err)

	lines, err := svc.Resolve(ctx, "vendor-1", []cart.Selection{
		{MenuItemID: item.ID, Quantity: 2, AddOnIDs: []string{item.AddOns[0].ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, 12.0, cart.Total(lines))
}

func TestResolve_Errors(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, "vendor-1", newBurger())
	require.NoError(t, err)
	off := newBurger()
	off.IsAvailable = false
	off, err = svc.CreateItem(ctx, "vendor-1", off)
	require.NoError(t, err)

	tests := []struct {
		name string
		sel  cart.Selection
		want error
	}{
		{"unknown item", cart.Selection{MenuItemID: "nope", Quantity: 1}, ErrItemNotFound},
		{"other vendor", cart.Selection{MenuItemID: item.ID, Quantity: 1}, ErrItemNotFound},
		{"unavailable", cart.Selection{MenuItemID: off.ID, Quantity: 1}, ErrItemUnavailable},
		{"variation", cart.Selection{MenuItemID: item.ID, Quantity: 1, VariationID: "x"}, ErrUnknownVariation},
		{"add-on", cart.Selection{MenuItemID: item.ID, Quantity: 1, AddOnIDs: []string{"x"}}, ErrUnknownAddOn},
		{"quantity", cart.Selection{MenuItemID: item.ID, Quantity: 0}, cart.ErrInvalidQuantity},
		{"quantity over cap", cart.Selection{MenuItemID: item.ID, Quantity: cart.MaxLineQuantity + 1}, cart.ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vendor := "vendor-1"
			if tt.name == "other vendor" {
				vendor = "vendor-2"
			}
			_, err := svc.Resolve(ctx, vendor, []cart.Selection{tt.sel})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

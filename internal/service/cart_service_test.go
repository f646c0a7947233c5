package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fracki1010/edu-cart-backend/internal/domain"
)

func newTestCartService() (*CartService, *fakeCartRepo, *noopCache) {
	catalog := &fakeCatalog{products: map[int64]*domain.Product{
		7: {ID: 7, Name: "Dune", Price: decimal.RequireFromString("9.99")},
		8: {ID: 8, Name: "Neuromancer", Price: decimal.RequireFromString("14.50")},
	}}
	repo := newFakeCartRepo(catalog)
	c := &noopCache{}
	return NewCartService(repo, catalog, c), repo, c
}

func TestGetCart_NoCart(t *testing.T) {
	svc, _, _ := newTestCartService()

	cart, err := svc.GetCart(context.Background(), 1)

	require.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestAddOrUpdateItem_CreatesCartAndItem(t *testing.T) {
	svc, _, _ := newTestCartService()

	cart, err := svc.AddOrUpdateItem(context.Background(), 1, 7, 2)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(7), cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, int64(1), cart.UserID)
	assert.True(t, cart.Total().Equal(decimal.RequireFromString("19.98")))
}

func TestAddOrUpdateItem_AdditiveSemantics(t *testing.T) {
	svc, _, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddOrUpdateItem(ctx, 1, 7, 2)
	require.NoError(t, err)

	cart, err := svc.AddOrUpdateItem(ctx, 1, 7, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestAddOrUpdateItem_UnknownProduct_NoCartSideEffect(t *testing.T) {
	svc, repo, _ := newTestCartService()

	_, err := svc.AddOrUpdateItem(context.Background(), 1, 999, 1)

	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, repo.carts, "no cart row may be created for a failed add")
}

func TestAddOrUpdateItem_NonPositiveQuantity(t *testing.T) {
	svc, _, _ := newTestCartService()

	_, err := svc.AddOrUpdateItem(context.Background(), 1, 7, 0)

	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddOrUpdateItem_InsertRaceFallsBackToIncrement(t *testing.T) {
	svc, repo, _ := newTestCartService()
	ctx := context.Background()

	repo.forceAddConflict = true
	cart, err := svc.AddOrUpdateItem(ctx, 1, 7, 2)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	// The concurrent winner held quantity 1; our 2 folded in on top.
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestSetItemQuantity_Overwrites(t *testing.T) {
	svc, _, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddOrUpdateItem(ctx, 1, 7, 5)
	require.NoError(t, err)

	cart, err := svc.SetItemQuantity(ctx, 1, 7, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestSetItemQuantity_ZeroRemovesItem(t *testing.T) {
	svc, _, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddOrUpdateItem(ctx, 1, 7, 5)
	require.NoError(t, err)

	cart, err := svc.SetItemQuantity(ctx, 1, 7, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestSetItemQuantity_NoCart(t *testing.T) {
	svc, _, _ := newTestCartService()

	_, err := svc.SetItemQuantity(context.Background(), 1, 7, 2)

	require.ErrorIs(t, err, ErrCartNotFound)
}

func TestSetItemQuantity_NoItem(t *testing.T) {
	svc, _, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddOrUpdateItem(ctx, 1, 7, 1)
	require.NoError(t, err)

	_, err = svc.SetItemQuantity(ctx, 1, 8, 2)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem_BooleanContract(t *testing.T) {
	svc, _, _ := newTestCartService()
	ctx := context.Background()

	removed, err := svc.RemoveItem(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, removed, "no cart yet")

	_, err = svc.AddOrUpdateItem(ctx, 1, 7, 1)
	require.NoError(t, err)

	removed, err = svc.RemoveItem(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveItem(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, removed, "already gone")
}

func TestEmptyCart_Idempotence(t *testing.T) {
	svc, _, _ := newTestCartService()
	ctx := context.Background()

	cleared, err := svc.EmptyCart(ctx, 1)
	require.NoError(t, err)
	assert.False(t, cleared, "no cart row yet")

	_, err = svc.AddOrUpdateItem(ctx, 1, 7, 2)
	require.NoError(t, err)

	cleared, err = svc.EmptyCart(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = svc.EmptyCart(ctx, 1)
	require.NoError(t, err)
	assert.False(t, cleared, "nothing left to clear")

	// The cart row persists empty for reuse.
	cart, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestMutationsInvalidateCache(t *testing.T) {
	svc, _, cacheSpy := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddOrUpdateItem(ctx, 1, 7, 2)
	require.NoError(t, err)
	_, err = svc.SetItemQuantity(ctx, 1, 7, 4)
	require.NoError(t, err)
	removed, err := svc.RemoveItem(ctx, 1, 7)
	require.NoError(t, err)
	require.True(t, removed)

	assert.Equal(t, 3, cacheSpy.deleteCount())
}

// Walks the full lifecycle: absent cart, add, increment, set-to-zero,
// remove-after-gone, clear twice.
func TestCartLifecycleScenario(t *testing.T) {
	svc, _, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.GetCart(ctx, 1)
	require.ErrorIs(t, err, ErrCartNotFound)

	cart, err := svc.AddOrUpdateItem(ctx, 1, 7, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	cart, err = svc.AddOrUpdateItem(ctx, 1, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	cart, err = svc.SetItemQuantity(ctx, 1, 7, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	removed, err := svc.RemoveItem(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = svc.AddOrUpdateItem(ctx, 1, 8, 1)
	require.NoError(t, err)

	cleared, err := svc.EmptyCart(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = svc.EmptyCart(ctx, 1)
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestGetCart_SlowCacheWriteDoesNotMaskMutation(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*domain.Product{
		7: {ID: 7, Name: "Dune", Price: decimal.RequireFromString("9.99")},
	}}
	repo := newFakeCartRepo(catalog)
	c := newGatedCache()
	svc := NewCartService(repo, catalog, c)
	ctx := context.Background()

	_, err := svc.AddOrUpdateItem(ctx, 1, 7, 2)
	require.NoError(t, err)

	// This read picks up quantity 2 and stalls while writing it to the cache.
	firstRead := make(chan struct{})
	go func() {
		defer close(firstRead)
		_, _ = svc.GetCart(ctx, 1)
	}()
	<-c.entered

	// The increment lands, and invalidates, while that write is in flight.
	_, err = svc.AddOrUpdateItem(ctx, 1, 7, 3)
	require.NoError(t, err)

	close(c.gate)
	<-firstRead

	cart, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity, "read after a mutation must reflect the mutation")
}

func TestCartTotal_DerivedFromLivePrices(t *testing.T) {
	svc, repo, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.AddOrUpdateItem(ctx, 1, 7, 2)
	require.NoError(t, err)

	// Catalog price change is reflected on the next read; nothing is cached
	// in the cart rows.
	repo.catalog.products[7].Price = decimal.RequireFromString("20.00")

	cart, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cart.Total().Equal(decimal.RequireFromString("40.00")))
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/fracki1010/edu-cart-backend/internal/cache"
	"github.com/fracki1010/edu-cart-backend/internal/domain"
	"github.com/fracki1010/edu-cart-backend/internal/repository"
)

// fakeCatalog implements ProductFinder over a fixed product map.
type fakeCatalog struct {
	products map[int64]*domain.Product
}

func (f *fakeCatalog) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

// fakeCartRepo is an in-memory CartRepository with the same contract as the
// postgres implementation, including the AddItem/ErrItemExists behavior.
type fakeCartRepo struct {
	mu      sync.Mutex
	nextID  int64
	carts   map[int64]*domain.Cart  // keyed by user id, Items not populated
	items   map[int64]map[int64]int // cart id -> product id -> quantity
	catalog *fakeCatalog

	// forceAddConflict makes AddItem report ErrItemExists once, simulating a
	// concurrent insert winning the race after our GetItem missed.
	forceAddConflict bool
}

func newFakeCartRepo(catalog *fakeCatalog) *fakeCartRepo {
	return &fakeCartRepo{
		carts:   make(map[int64]*domain.Cart),
		items:   make(map[int64]map[int64]int),
		catalog: catalog,
	}
}

func (f *fakeCartRepo) GetCartByUser(_ context.Context, userID int64) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cart, ok := f.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}

	out := domain.Cart{
		ID:        cart.ID,
		UserID:    cart.UserID,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for productID, qty := range f.items[cart.ID] {
		out.Items = append(out.Items, domain.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  qty,
			Product:   f.catalog.products[productID],
		})
	}
	return &out, nil
}

func (f *fakeCartRepo) GetOrCreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	if cart, err := f.GetCartByUser(ctx, userID); err == nil {
		return cart, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if cart, ok := f.carts[userID]; ok {
		return cart, nil
	}
	f.nextID++
	cart := &domain.Cart{
		ID:        f.nextID,
		UserID:    userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.carts[userID] = cart
	f.items[cart.ID] = make(map[int64]int)
	return cart, nil
}

func (f *fakeCartRepo) GetItem(_ context.Context, cartID, productID int64) (*domain.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	qty, ok := f.items[cartID][productID]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return &domain.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}, nil
}

func (f *fakeCartRepo) AddItem(_ context.Context, cartID, productID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.forceAddConflict {
		f.forceAddConflict = false
		if f.items[cartID] == nil {
			f.items[cartID] = make(map[int64]int)
		}
		f.items[cartID][productID] = 1 // the concurrent winner's row
		return repository.ErrItemExists
	}

	if _, ok := f.items[cartID][productID]; ok {
		return repository.ErrItemExists
	}
	if f.items[cartID] == nil {
		f.items[cartID] = make(map[int64]int)
	}
	f.items[cartID][productID] = quantity
	return nil
}

func (f *fakeCartRepo) IncrementItemQuantity(_ context.Context, cartID, productID int64, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[cartID][productID]; !ok {
		return repository.ErrItemNotFound
	}
	f.items[cartID][productID] += delta
	return nil
}

func (f *fakeCartRepo) SetItemQuantity(_ context.Context, cartID, productID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[cartID][productID]; !ok {
		return repository.ErrItemNotFound
	}
	f.items[cartID][productID] = quantity
	return nil
}

func (f *fakeCartRepo) RemoveItem(_ context.Context, cartID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[cartID][productID]; !ok {
		return repository.ErrItemNotFound
	}
	delete(f.items[cartID], productID)
	return nil
}

func (f *fakeCartRepo) ClearCart(_ context.Context, cartID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items[cartID] = make(map[int64]int)
	return nil
}

// noopCache always misses; it counts invalidations so tests can assert
// mutations bust the cache.
type noopCache struct {
	mu      sync.Mutex
	deletes int
}

func (n *noopCache) Get(context.Context, int64) (*domain.Cart, error) {
	return nil, cache.ErrCacheMiss
}

func (n *noopCache) Set(context.Context, int64, *domain.Cart) error { return nil }

func (n *noopCache) Delete(context.Context, int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deletes++
	return nil
}

func (n *noopCache) deleteCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deletes
}

// gatedCache stores entries like the redis cache but blocks every Set until
// the gate is opened, so tests can interleave a mutation with an in-flight
// cache write.
type gatedCache struct {
	mu      sync.Mutex
	entries map[int64]*domain.Cart
	entered chan struct{}
	gate    chan struct{}
}

func newGatedCache() *gatedCache {
	return &gatedCache{
		entries: make(map[int64]*domain.Cart),
		entered: make(chan struct{}, 8),
		gate:    make(chan struct{}),
	}
}

func (g *gatedCache) Get(_ context.Context, userID int64) (*domain.Cart, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cart, ok := g.entries[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (g *gatedCache) Set(_ context.Context, userID int64, cart *domain.Cart) error {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.gate

	g.mu.Lock()
	g.entries[userID] = cart
	g.mu.Unlock()
	return nil
}

func (g *gatedCache) Delete(_ context.Context, userID int64) error {
	g.mu.Lock()
	delete(g.entries, userID)
	g.mu.Unlock()
	return nil
}

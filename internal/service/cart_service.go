package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/fracki1010/edu-cart-backend/internal/cache"
	"github.com/fracki1010/edu-cart-backend/internal/domain"
	"github.com/fracki1010/edu-cart-backend/internal/repository"
)

// ProductFinder is the only catalog operation the cart core depends on.
type ProductFinder interface {
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
}

type CartService struct {
	repo    repository.CartRepository
	catalog ProductFinder
	cache   cache.CartCache
	sfg     singleflight.Group // Prevents cache stampede

	// epochs tracks invalidations per user so a cache write that raced with
	// a mutation can be detected and dropped instead of serving stale.
	mu     sync.Mutex
	epochs map[int64]uint64
}

func NewCartService(repo repository.CartRepository, catalog ProductFinder, cartCache cache.CartCache) *CartService {
	return &CartService{
		repo:    repo,
		catalog: catalog,
		cache:   cartCache,
		epochs:  make(map[int64]uint64),
	}
}

// GetCart returns the user's cart aggregate, reading through the cache.
// ErrCartNotFound means the user has never touched their cart; the transport
// layer decides what that absence means.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(fmt.Sprint(userID), func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Int64("user_id", userID).Msg("cart cache get failed")
		}

		epoch := s.epoch(userID)
		cart, errGet := s.repo.GetCartByUser(ctx, userID)
		if errGet != nil {
			if errors.Is(errGet, repository.ErrCartNotFound) {
				return nil, ErrCartNotFound
			}
			return nil, errGet
		}

		cacheCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if errSet := s.cache.Set(cacheCtx, userID, cart); errSet != nil {
			log.Warn().Err(errSet).Int64("user_id", userID).Msg("cart cache set failed")
		} else if s.epoch(userID) != epoch {
			// A mutation invalidated the cache while this aggregate was
			// being written; the entry is already stale, so drop it.
			s.invalidate(userID)
		}

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddOrUpdateItem adds quantity of the product to the user's cart, creating
// the cart on first access. An existing line item is incremented, never
// overwritten. The product is resolved before any cart side effect so an
// unknown product leaves no cart row behind.
func (s *CartService) AddOrUpdateItem(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.catalog.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) || errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.GetItem(ctx, cart.ID, productID)
	switch {
	case err == nil:
		// The increment happens inside the store so two concurrent adds
		// for the same product never lose an update.
		if errInc := s.repo.IncrementItemQuantity(ctx, cart.ID, productID, quantity); errInc != nil {
			return nil, errInc
		}
	case errors.Is(err, repository.ErrItemNotFound):
		errAdd := s.repo.AddItem(ctx, cart.ID, productID, quantity)
		if errors.Is(errAdd, repository.ErrItemExists) {
			// A concurrent add won the insert race; fold our quantity in.
			errAdd = s.repo.IncrementItemQuantity(ctx, cart.ID, productID, quantity)
		}
		if errAdd != nil {
			return nil, errAdd
		}
	default:
		return nil, err
	}

	return s.reload(ctx, userID)
}

// SetItemQuantity overwrites the quantity of an existing line item. A
// quantity of zero or less removes the item. The cart and the item must
// already exist.
func (s *CartService) SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error) {
	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	if quantity <= 0 {
		err = s.repo.RemoveItem(ctx, cart.ID, productID)
	} else {
		err = s.repo.SetItemQuantity(ctx, cart.ID, productID, quantity)
	}
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	return s.reload(ctx, userID)
}

// RemoveItem reports false when there is no cart or no such item.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64) (bool, error) {
	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.repo.RemoveItem(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return false, nil
		}
		return false, err
	}

	s.invalidate(userID)
	return true, nil
}

// EmptyCart deletes every item but keeps the cart row for reuse. Reports
// true only when items were actually removed, so clearing twice in a row
// yields true then false.
func (s *CartService) EmptyCart(ctx context.Context, userID int64) (bool, error) {
	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(cart.Items) == 0 {
		return false, nil
	}

	if err := s.repo.ClearCart(ctx, cart.ID); err != nil {
		return false, err
	}

	s.invalidate(userID)
	return true, nil
}

// reload invalidates the cache and returns the fresh aggregate straight from
// the store, so every mutating call answers with the same shape as GetCart.
func (s *CartService) reload(ctx context.Context, userID int64) (*domain.Cart, error) {
	s.invalidate(userID)
	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) invalidate(userID int64) {
	// The epoch bump must precede the delete: a concurrent read either sees
	// the bump and drops its own write, or wrote before the delete and the
	// delete removes it. Either way the stale aggregate never survives.
	s.bumpEpoch(userID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("cart cache invalidate failed")
	}
}

func (s *CartService) epoch(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epochs[userID]
}

func (s *CartService) bumpEpoch(userID int64) {
	s.mu.Lock()
	s.epochs[userID]++
	s.mu.Unlock()
}

package store

import (
	"context"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/domain"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage"
)

const cartStoreName = "cart"

// CartStore owns one visitor's cart. Every mutation goes through it and
// is followed by a save to the visitor's cart slot. Inputs are not
// validated here.
type CartStore struct {
	*slotStore[domain.CartState]
	newID func() string
}

func newCartStore(st storage.Storage, visitorID string, state domain.CartState, revision int64, opts Options) *CartStore {
	return &CartStore{
		slotStore: newSlotStore(cartStoreName, storage.CartSlot(visitorID), st, opts.Logger,
			domain.CartState.Clone, domain.CartState.Equal, state.Clone(), revision),
		newID: opts.NewID,
	}
}

// LoadCartStore rehydrates visitorID's cart. An absent or malformed slot
// yields an empty cart with a fresh session id; a storage failure is
// returned.
func LoadCartStore(ctx context.Context, st storage.Storage, visitorID string, opts Options) (*CartStore, error) {
	opts = opts.withDefaults()

	state, revision, ok, err := rehydrate[domain.CartState](ctx, st, cartStoreName, storage.CartSlot(visitorID), opts.Logger)
	if err != nil {
		return nil, err
	}
	if !ok {
		state = domain.NewCartState(opts.NewID())
	}
	if state.Items == nil {
		state.Items = []domain.LineItem{}
	}
	if state.SessionID == "" {
		state.SessionID = opts.NewID()
	}
	return newCartStore(st, visitorID, state, revision, opts), nil
}

// AddItem merges item into the cart.
func (c *CartStore) AddItem(ctx context.Context, item domain.NewLineItem) domain.CartState {
	return c.update(ctx, func(s domain.CartState) domain.CartState {
		return s.AddItem(item, c.newID)
	})
}

// RemoveItem removes line id, if present.
func (c *CartStore) RemoveItem(ctx context.Context, id string) domain.CartState {
	return c.update(ctx, func(s domain.CartState) domain.CartState {
		return s.RemoveItem(id)
	})
}

// UpdateQuantity sets the quantity of line id; zero or less removes it.
func (c *CartStore) UpdateQuantity(ctx context.Context, id string, quantity int) domain.CartState {
	return c.update(ctx, func(s domain.CartState) domain.CartState {
		return s.UpdateQuantity(id, quantity)
	})
}

// ClearCart empties the cart and issues a new session id.
func (c *CartStore) ClearCart(ctx context.Context) domain.CartState {
	return c.update(ctx, func(s domain.CartState) domain.CartState {
		return s.Clear(c.newID())
	})
}

func (c *CartStore) IsItemInCart(productID, variantID string) bool {
	return c.snapshot().IsItemInCart(productID, variantID)
}

func (c *CartStore) GetItem(productID, variantID string) (domain.LineItem, bool) {
	return c.snapshot().GetItem(productID, variantID)
}

func (c *CartStore) TotalItems() int {
	return c.snapshot().TotalItems()
}

func (c *CartStore) Subtotal() int64 {
	return c.snapshot().Subtotal()
}

// Items returns a copy of the line items.
func (c *CartStore) Items() []domain.LineItem {
	return c.snapshot().Items
}

func (c *CartStore) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.SessionID
}

// Snapshot returns a copy of the full cart state.
func (c *CartStore) Snapshot() domain.CartState {
	return c.snapshot()
}

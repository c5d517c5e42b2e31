package store

import (
	"context"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/domain"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage"
)

const wishlistStoreName = "wishlist"

// WishlistStore owns one visitor's wishlist.
type WishlistStore struct {
	*slotStore[domain.WishlistState]
	newID func() string
}

func newWishlistStore(st storage.Storage, visitorID string, state domain.WishlistState, revision int64, opts Options) *WishlistStore {
	return &WishlistStore{
		slotStore: newSlotStore(wishlistStoreName, storage.WishlistSlot(visitorID), st, opts.Logger,
			domain.WishlistState.Clone, domain.WishlistState.Equal, state.Clone(), revision),
		newID: opts.NewID,
	}
}

// LoadWishlistStore rehydrates visitorID's wishlist, falling back to an
// empty one when the slot is absent or malformed. A storage failure is
// returned.
func LoadWishlistStore(ctx context.Context, st storage.Storage, visitorID string, opts Options) (*WishlistStore, error) {
	opts = opts.withDefaults()

	state, revision, ok, err := rehydrate[domain.WishlistState](ctx, st, wishlistStoreName, storage.WishlistSlot(visitorID), opts.Logger)
	if err != nil {
		return nil, err
	}
	if !ok || state.Items == nil {
		state = domain.NewWishlistState()
	}
	return newWishlistStore(st, visitorID, state, revision, opts), nil
}

// AddItem saves entry unless its product is already in the wishlist.
func (w *WishlistStore) AddItem(ctx context.Context, entry domain.WishlistEntry) domain.WishlistState {
	return w.update(ctx, func(s domain.WishlistState) domain.WishlistState {
		return s.AddItem(entry, w.newID)
	})
}

// RemoveItem removes every entry for productID.
func (w *WishlistStore) RemoveItem(ctx context.Context, productID string) domain.WishlistState {
	return w.update(ctx, func(s domain.WishlistState) domain.WishlistState {
		return s.RemoveItem(productID)
	})
}

func (w *WishlistStore) ClearWishlist(ctx context.Context) domain.WishlistState {
	return w.update(ctx, func(s domain.WishlistState) domain.WishlistState {
		return s.Clear()
	})
}

func (w *WishlistStore) IsItemInWishlist(productID string) bool {
	return w.snapshot().IsItemInWishlist(productID)
}

// Items returns a copy of the entries.
func (w *WishlistStore) Items() []domain.WishlistEntry {
	return w.snapshot().Items
}

// Snapshot returns a copy of the full wishlist state.
func (w *WishlistStore) Snapshot() domain.WishlistState {
	return w.snapshot()
}

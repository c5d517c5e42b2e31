package storage

import "context"

// Slot name prefixes. A slot holds the persisted state of one store for
// one visitor.
const (
	CartSlotPrefix     = "cart-storage:"
	WishlistSlotPrefix = "wishlist-storage:"
)

// Entry is a slot payload together with its revision. Every successful
// write increments the revision; an absent slot has revision 0.
type Entry struct {
	Data     []byte
	Revision int64
}

// Storage persists opaque slot payloads with optimistic concurrency.
type Storage interface {
	// Get returns the entry stored under slot, or a NOT_FOUND app error
	// when the slot is absent or expired.
	Get(ctx context.Context, slot string) (Entry, error)

	// SetIfRevision stores data under slot only if the slot's current
	// revision equals expected (0 for an absent slot). ok is false when
	// another writer got there first; nothing is written then.
	SetIfRevision(ctx context.Context, slot string, data []byte, expected int64) (ok bool, err error)

	// Remove deletes slot. Removing an absent slot is not an error.
	Remove(ctx context.Context, slot string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// CartSlot returns the slot name of visitorID's cart.
func CartSlot(visitorID string) string {
	return CartSlotPrefix + visitorID
}

// WishlistSlot returns the slot name of visitorID's wishlist.
func WishlistSlot(visitorID string) string {
	return WishlistSlotPrefix + visitorID
}

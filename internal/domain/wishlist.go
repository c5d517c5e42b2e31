package domain

import "slices"

// WishlistEntry is a saved product. Display fields are a snapshot taken
// when the entry was added.
type WishlistEntry struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Category  string `json:"category,omitempty"`
}

// WishlistState is the full persisted state of a wishlist.
type WishlistState struct {
	Items []WishlistEntry `json:"items"`
}

// NewWishlistState returns an empty wishlist.
func NewWishlistState() WishlistState {
	return WishlistState{Items: []WishlistEntry{}}
}

// Clone returns a copy of w that shares no backing array with it.
func (w WishlistState) Clone() WishlistState {
	items := make([]WishlistEntry, len(w.Items))
	copy(items, w.Items)
	return WishlistState{Items: items}
}

// Equal reports whether w and o hold the same entries in the same order.
func (w WishlistState) Equal(o WishlistState) bool {
	return slices.Equal(w.Items, o.Items)
}

// AddItem inserts entry unless an entry for the same product already
// exists, in which case w is returned unchanged. An empty ID is filled
// from newID.
func (w WishlistState) AddItem(entry WishlistEntry, newID func() string) WishlistState {
	next := w.Clone()
	if w.IsItemInWishlist(entry.ProductID) {
		return next
	}
	if entry.ID == "" {
		entry.ID = newID()
	}
	next.Items = append(next.Items, entry)
	return next
}

// RemoveItem drops every entry for productID.
func (w WishlistState) RemoveItem(productID string) WishlistState {
	next := w.Clone()
	next.Items = slices.DeleteFunc(next.Items, func(e WishlistEntry) bool { return e.ProductID == productID })
	return next
}

// Clear empties the wishlist.
func (w WishlistState) Clear() WishlistState {
	return NewWishlistState()
}

// IsItemInWishlist reports whether productID is saved.
func (w WishlistState) IsItemInWishlist(productID string) bool {
	return slices.ContainsFunc(w.Items, func(e WishlistEntry) bool { return e.ProductID == productID })
}

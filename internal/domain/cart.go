package domain

import (
	"maps"
	"slices"
)

// LineItem is one row of a cart: a product/variant/options combination
// and its quantity. Name, Price and Image are a snapshot taken when the
// item was added and are never refreshed from the catalog.
type LineItem struct {
	ID        string            `json:"id"`
	ProductID string            `json:"productId"`
	VariantID string            `json:"variantId,omitempty"`
	Name      string            `json:"name"`
	Price     int64             `json:"price"`
	Image     string            `json:"image,omitempty"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
}

// NewLineItem is a LineItem before it has been assigned an id.
type NewLineItem struct {
	ProductID string
	VariantID string
	Name      string
	Price     int64
	Image     string
	Quantity  int
	Options   map[string]string
}

// CartState is the full persisted state of a cart. Transitions return a
// new CartState and leave the receiver untouched.
type CartState struct {
	Items     []LineItem `json:"items"`
	SessionID string     `json:"sessionId"`
}

// NewCartState returns an empty cart for sessionID.
func NewCartState(sessionID string) CartState {
	return CartState{Items: []LineItem{}, SessionID: sessionID}
}

// Clone returns a deep copy of c.
func (c CartState) Clone() CartState {
	items := make([]LineItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = it.clone()
	}
	return CartState{Items: items, SessionID: c.SessionID}
}

// Equal reports whether c and o hold the same session and lines in the
// same order.
func (c CartState) Equal(o CartState) bool {
	return c.SessionID == o.SessionID && slices.EqualFunc(c.Items, o.Items, LineItem.Equal)
}

// Equal compares every field of li and o, including options.
func (li LineItem) Equal(o LineItem) bool {
	return li.ID == o.ID &&
		li.ProductID == o.ProductID &&
		li.VariantID == o.VariantID &&
		li.Name == o.Name &&
		li.Price == o.Price &&
		li.Image == o.Image &&
		li.Quantity == o.Quantity &&
		maps.Equal(li.Options, o.Options)
}

func (li LineItem) clone() LineItem {
	li.Options = maps.Clone(li.Options)
	return li
}

// FindItemIndex returns the index of the line for productID/variantID, or -1.
func (c CartState) FindItemIndex(productID, variantID string) int {
	return slices.IndexFunc(c.Items, func(li LineItem) bool {
		return li.ProductID == productID && li.VariantID == variantID
	})
}

// AddItem merges item into the cart. An existing line with the same
// product and variant has its quantity increased; otherwise a new line
// is appended with an id from newID. Quantities are not validated here.
func (c CartState) AddItem(item NewLineItem, newID func() string) CartState {
	next := c.Clone()
	if idx := next.FindItemIndex(item.ProductID, item.VariantID); idx >= 0 {
		next.Items[idx].Quantity += item.Quantity
		return next
	}

	next.Items = append(next.Items, LineItem{
		ID:        newID(),
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Name:      item.Name,
		Price:     item.Price,
		Image:     item.Image,
		Quantity:  item.Quantity,
		Options:   maps.Clone(item.Options),
	})
	return next
}

// RemoveItem drops the line with id. Unknown ids are a no-op.
func (c CartState) RemoveItem(id string) CartState {
	next := c.Clone()
	next.Items = slices.DeleteFunc(next.Items, func(li LineItem) bool { return li.ID == id })
	return next
}

// UpdateQuantity sets the quantity of line id. A quantity of zero or less
// removes the line. Unknown ids are a no-op.
func (c CartState) UpdateQuantity(id string, quantity int) CartState {
	if quantity <= 0 {
		return c.RemoveItem(id)
	}
	next := c.Clone()
	for i := range next.Items {
		if next.Items[i].ID == id {
			next.Items[i].Quantity = quantity
			break
		}
	}
	return next
}

// Clear empties the cart and starts a new session.
func (c CartState) Clear(newSessionID string) CartState {
	return NewCartState(newSessionID)
}

// IsItemInCart reports whether a line exists for productID/variantID.
func (c CartState) IsItemInCart(productID, variantID string) bool {
	return c.FindItemIndex(productID, variantID) >= 0
}

// GetItem returns the line for productID/variantID.
func (c CartState) GetItem(productID, variantID string) (LineItem, bool) {
	idx := c.FindItemIndex(productID, variantID)
	if idx < 0 {
		return LineItem{}, false
	}
	return c.Items[idx].clone(), true
}

// ItemByID returns the line with the given id.
func (c CartState) ItemByID(id string) (LineItem, bool) {
	idx := slices.IndexFunc(c.Items, func(li LineItem) bool { return li.ID == id })
	if idx < 0 {
		return LineItem{}, false
	}
	return c.Items[idx].clone(), true
}

// TotalItems returns the sum of all quantities.
func (c CartState) TotalItems() int {
	var n int
	for _, li := range c.Items {
		n += li.Quantity
	}
	return n
}

// Subtotal returns the sum of price × quantity in minor currency units.
func (c CartState) Subtotal() int64 {
	var total int64
	for _, li := range c.Items {
		total += li.Price * int64(li.Quantity)
	}
	return total
}

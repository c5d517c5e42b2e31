package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/domain"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/store"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
)

// Limits applied to caller input. The stores themselves accept anything.
// The validate tags below repeat these values; keep them in step.
const (
	MaxQuantityPerItem = 100
	MaxItemsPerCart    = 50
	MaxPriceCents      = 100_000_00
	MaxOptionsPerItem  = 10
)

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	ProductID string            `json:"product_id" validate:"required,max=128"`
	VariantID string            `json:"variant_id" validate:"max=128"`
	Name      string            `json:"name" validate:"required,max=255"`
	Price     int64             `json:"price" validate:"gte=0,lte=10000000"`
	Quantity  int               `json:"quantity" validate:"gte=1,lte=100"`
	Image     string            `json:"image" validate:"omitempty,max=2048"`
	Options   map[string]string `json:"options" validate:"max=10"`
}

// UpdateQuantityInput holds the new quantity of a line. Zero or less
// removes the line.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"lte=100"`
}

// LineItemView is a cart line as returned to API callers.
type LineItemView struct {
	ID        string            `json:"id"`
	ProductID string            `json:"product_id"`
	VariantID string            `json:"variant_id,omitempty"`
	Name      string            `json:"name"`
	Price     int64             `json:"price"`
	Image     string            `json:"image,omitempty"`
	Quantity  int               `json:"quantity"`
	LineTotal int64             `json:"line_total"`
	Options   map[string]string `json:"options,omitempty"`
}

// CartView is a cart with its derived totals.
type CartView struct {
	SessionID  string         `json:"session_id"`
	Items      []LineItemView `json:"items"`
	TotalItems int            `json:"total_items"`
	Subtotal   int64          `json:"subtotal"`
}

// NewCartView builds the API view of state.
func NewCartView(state domain.CartState) *CartView {
	items := make([]LineItemView, len(state.Items))
	for i, li := range state.Items {
		items[i] = newLineItemView(li)
	}
	return &CartView{
		SessionID:  state.SessionID,
		Items:      items,
		TotalItems: state.TotalItems(),
		Subtotal:   state.Subtotal(),
	}
}

func newLineItemView(li domain.LineItem) LineItemView {
	return LineItemView{
		ID:        li.ID,
		ProductID: li.ProductID,
		VariantID: li.VariantID,
		Name:      li.Name,
		Price:     li.Price,
		Image:     li.Image,
		Quantity:  li.Quantity,
		LineTotal: li.Price * int64(li.Quantity),
		Options:   li.Options,
	}
}

// CartService implements the cart use cases on top of the store provider.
type CartService struct {
	stores *store.Provider
	events EventPublisher
	logger *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(stores *store.Provider, events EventPublisher, logger *slog.Logger) *CartService {
	return &CartService{stores: stores, events: events, logger: logger}
}

// GetCart returns the visitor's cart; a visitor without one gets an empty
// cart with a fresh session.
func (s *CartService) GetCart(ctx context.Context, visitorID string) (view *CartView, err error) {
	ctx, span := startSpan(ctx, "CartService.GetCart", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateVisitor(visitorID); err != nil {
		return nil, err
	}

	err = s.stores.WithCart(ctx, visitorID, func(c *store.CartStore) error {
		view = NewCartView(c.Snapshot())
		return nil
	})
	return view, err
}

// AddItem adds input to the cart, merging with an existing line for the
// same product and variant.
func (s *CartService) AddItem(ctx context.Context, visitorID string, input AddItemInput) (view *CartView, err error) {
	ctx, span := startSpan(ctx, "CartService.AddItem", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateVisitor(visitorID); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var state domain.CartState
	err = s.stores.WithCart(ctx, visitorID, func(c *store.CartStore) error {
		if existing, ok := c.GetItem(input.ProductID, input.VariantID); ok {
			if existing.Quantity+input.Quantity > MaxQuantityPerItem {
				return apperrors.InvalidInput(fmt.Sprintf("quantity for this item would exceed maximum of %d", MaxQuantityPerItem))
			}
		} else if len(c.Items()) >= MaxItemsPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("cart cannot have more than %d items", MaxItemsPerCart))
		}

		state = c.AddItem(ctx, domain.NewLineItem{
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Name:      input.Name,
			Price:     input.Price,
			Image:     input.Image,
			Quantity:  input.Quantity,
			Options:   input.Options,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, visitorID, state)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("visitor_id", visitorID),
		slog.String("product_id", input.ProductID),
		slog.String("variant_id", input.VariantID),
		slog.Int("quantity", input.Quantity),
	)

	return NewCartView(state), nil
}

// UpdateItemQuantity sets the quantity of line itemID. A quantity of zero
// or less removes the line; an unknown id leaves the cart unchanged and
// publishes nothing.
func (s *CartService) UpdateItemQuantity(ctx context.Context, visitorID, itemID string, quantity int) (view *CartView, err error) {
	ctx, span := startSpan(ctx, "CartService.UpdateItemQuantity", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateLineRef(visitorID, itemID); err != nil {
		return nil, err
	}
	if err := validateInput(UpdateQuantityInput{Quantity: quantity}); err != nil {
		return nil, err
	}

	var (
		state domain.CartState
		line  domain.LineItem
		found bool
	)
	err = s.stores.WithCart(ctx, visitorID, func(c *store.CartStore) error {
		state = c.Snapshot()
		if line, found = state.ItemByID(itemID); !found {
			return nil
		}
		state = c.UpdateQuantity(ctx, itemID, quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if found && line.Quantity != quantity {
		s.publishUpdated(ctx, visitorID, state)
		s.logger.InfoContext(ctx, "cart item quantity updated",
			slog.String("visitor_id", visitorID),
			slog.String("item_id", itemID),
			slog.String("product_id", line.ProductID),
			slog.Int("quantity", quantity),
		)
	}

	return NewCartView(state), nil
}

// RemoveItem removes line itemID. Unknown ids are a no-op.
func (s *CartService) RemoveItem(ctx context.Context, visitorID, itemID string) (view *CartView, err error) {
	ctx, span := startSpan(ctx, "CartService.RemoveItem", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateLineRef(visitorID, itemID); err != nil {
		return nil, err
	}

	var (
		state domain.CartState
		line  domain.LineItem
		found bool
	)
	err = s.stores.WithCart(ctx, visitorID, func(c *store.CartStore) error {
		state = c.Snapshot()
		if line, found = state.ItemByID(itemID); !found {
			return nil
		}
		state = c.RemoveItem(ctx, itemID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if found {
		s.publishUpdated(ctx, visitorID, state)
		s.logger.InfoContext(ctx, "item removed from cart",
			slog.String("visitor_id", visitorID),
			slog.String("item_id", itemID),
			slog.String("product_id", line.ProductID),
		)
	}

	return NewCartView(state), nil
}

// ClearCart empties the cart and starts a new session.
func (s *CartService) ClearCart(ctx context.Context, visitorID string) (view *CartView, err error) {
	ctx, span := startSpan(ctx, "CartService.ClearCart", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateVisitor(visitorID); err != nil {
		return nil, err
	}

	var previous string
	var state domain.CartState
	err = s.stores.WithCart(ctx, visitorID, func(c *store.CartStore) error {
		previous = c.SessionID()
		state = c.ClearCart(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishCartCleared(ctx, visitorID, previous, state.SessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("visitor_id", visitorID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("visitor_id", visitorID),
		slog.String("previous_session_id", previous),
		slog.String("session_id", state.SessionID),
	)

	return NewCartView(state), nil
}

// Contains reports whether the cart has a line for productID/variantID
// and returns it.
func (s *CartService) Contains(ctx context.Context, visitorID, productID, variantID string) (item *LineItemView, err error) {
	ctx, span := startSpan(ctx, "CartService.Contains", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateVisitor(visitorID); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	err = s.stores.WithCart(ctx, visitorID, func(c *store.CartStore) error {
		item = nil
		if li, ok := c.GetItem(productID, variantID); ok {
			v := newLineItemView(li)
			item = &v
		}
		return nil
	})
	return item, err
}

func validateLineRef(visitorID, itemID string) error {
	if err := validateVisitor(visitorID); err != nil {
		return err
	}
	if itemID == "" {
		return apperrors.InvalidInput("item id is required")
	}
	return nil
}

func (s *CartService) publishUpdated(ctx context.Context, visitorID string, state domain.CartState) {
	if err := s.events.PublishCartUpdated(ctx, visitorID, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("visitor_id", visitorID),
			slog.String("error", err.Error()),
		)
	}
}

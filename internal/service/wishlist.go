package service

import (
	"context"
	"log/slog"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/domain"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/store"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
	"github.com/Ai-Eli-ML/veliano-sub003/pkg/pagination"
	"github.com/Ai-Eli-ML/veliano-sub003/pkg/slug"
)

// AddWishlistItemInput holds the parameters for saving a product. Slug
// defaults to one generated from Name.
type AddWishlistItemInput struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	Name      string `json:"name" validate:"required,max=255"`
	Price     int64  `json:"price" validate:"gte=0,lte=10000000"`
	Image     string `json:"image" validate:"omitempty,max=2048"`
	Slug      string `json:"slug" validate:"omitempty,slug,max=255"`
	Category  string `json:"category" validate:"omitempty,max=128"`
}

// WishlistItemView is a wishlist entry as returned to API callers.
type WishlistItemView struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Category  string `json:"category,omitempty"`
}

// NewWishlistItemViews converts the saved entries to their API form.
func NewWishlistItemViews(state domain.WishlistState) []WishlistItemView {
	views := make([]WishlistItemView, len(state.Items))
	for i, e := range state.Items {
		views[i] = WishlistItemView(e)
	}
	return views
}

// WishlistService implements the wishlist use cases.
type WishlistService struct {
	stores *store.Provider
	events EventPublisher
	logger *slog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(stores *store.Provider, events EventPublisher, logger *slog.Logger) *WishlistService {
	return &WishlistService{stores: stores, events: events, logger: logger}
}

// ListItems returns one page of the visitor's wishlist in insertion order.
func (s *WishlistService) ListItems(ctx context.Context, visitorID string, params pagination.Params) (res pagination.Result[WishlistItemView], err error) {
	ctx, span := startSpan(ctx, "WishlistService.ListItems", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateVisitor(visitorID); err != nil {
		return res, err
	}

	err = s.stores.WithWishlist(ctx, visitorID, func(w *store.WishlistStore) error {
		res = pagination.Paginate(NewWishlistItemViews(w.Snapshot()), params)
		return nil
	})
	return res, err
}

// AddItem saves a product. added is false when the product was already
// in the wishlist, in which case nothing changes.
func (s *WishlistService) AddItem(ctx context.Context, visitorID string, input AddWishlistItemInput) (item *WishlistItemView, added bool, err error) {
	ctx, span := startSpan(ctx, "WishlistService.AddItem", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateVisitor(visitorID); err != nil {
		return nil, false, err
	}
	if err := validateInput(input); err != nil {
		return nil, false, err
	}

	entrySlug := input.Slug
	if entrySlug == "" {
		entrySlug = slug.Generate(input.Name)
	}

	var state domain.WishlistState
	err = s.stores.WithWishlist(ctx, visitorID, func(w *store.WishlistStore) error {
		added = false
		if w.IsItemInWishlist(input.ProductID) {
			state = w.Snapshot()
			return nil
		}
		added = true
		state = w.AddItem(ctx, domain.WishlistEntry{
			ProductID: input.ProductID,
			Name:      input.Name,
			Price:     input.Price,
			Image:     input.Image,
			Slug:      entrySlug,
			Category:  input.Category,
		})
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	for _, e := range state.Items {
		if e.ProductID == input.ProductID {
			v := WishlistItemView(e)
			item = &v
			break
		}
	}

	if added {
		s.publishUpdated(ctx, visitorID, state)
		s.logger.InfoContext(ctx, "item added to wishlist",
			slog.String("visitor_id", visitorID),
			slog.String("product_id", input.ProductID),
		)
	}

	return item, added, nil
}

// RemoveItem removes productID from the wishlist. Absent products are a
// no-op.
func (s *WishlistService) RemoveItem(ctx context.Context, visitorID, productID string) (err error) {
	ctx, span := startSpan(ctx, "WishlistService.RemoveItem", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateVisitor(visitorID); err != nil {
		return err
	}
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	var state domain.WishlistState
	var removed bool
	err = s.stores.WithWishlist(ctx, visitorID, func(w *store.WishlistStore) error {
		removed = w.IsItemInWishlist(productID)
		if removed {
			state = w.RemoveItem(ctx, productID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if removed {
		s.publishUpdated(ctx, visitorID, state)
		s.logger.InfoContext(ctx, "item removed from wishlist",
			slog.String("visitor_id", visitorID),
			slog.String("product_id", productID),
		)
	}
	return nil
}

// ClearWishlist empties the wishlist. Clearing an empty wishlist
// publishes nothing.
func (s *WishlistService) ClearWishlist(ctx context.Context, visitorID string) (err error) {
	ctx, span := startSpan(ctx, "WishlistService.ClearWishlist", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateVisitor(visitorID); err != nil {
		return err
	}

	var state domain.WishlistState
	var cleared bool
	err = s.stores.WithWishlist(ctx, visitorID, func(w *store.WishlistStore) error {
		cleared = len(w.Items()) > 0
		state = w.ClearWishlist(ctx)
		return nil
	})
	if err != nil {
		return err
	}

	if cleared {
		s.publishUpdated(ctx, visitorID, state)
		s.logger.InfoContext(ctx, "wishlist cleared", slog.String("visitor_id", visitorID))
	}
	return nil
}

// IsInWishlist reports whether productID is saved.
func (s *WishlistService) IsInWishlist(ctx context.Context, visitorID, productID string) (in bool, err error) {
	ctx, span := startSpan(ctx, "WishlistService.IsInWishlist", visitorID)
	defer func() { endSpan(span, err) }()

	if err := validateVisitor(visitorID); err != nil {
		return false, err
	}
	if productID == "" {
		return false, apperrors.InvalidInput("product id is required")
	}

	err = s.stores.WithWishlist(ctx, visitorID, func(w *store.WishlistStore) error {
		in = w.IsItemInWishlist(productID)
		return nil
	})
	return in, err
}

func (s *WishlistService) publishUpdated(ctx context.Context, visitorID string, state domain.WishlistState) {
	if err := s.events.PublishWishlistUpdated(ctx, visitorID, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.updated event",
			slog.String("visitor_id", visitorID),
			slog.String("error", err.Error()),
		)
	}
}

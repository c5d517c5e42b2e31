package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/domain"
	pkgkafka "github.com/Ai-Eli-ML/veliano-sub003/pkg/kafka"
	"github.com/Ai-Eli-ML/veliano-sub003/pkg/logger"
)

// Kafka topics for storefront events.
const (
	TopicCartUpdated     = "veliano.cart.updated"
	TopicCartCleared     = "veliano.cart.cleared"
	TopicWishlistUpdated = "veliano.wishlist.updated"
)

// Aggregate types.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeWishlist = "wishlist"
)

// SourceStorefront identifies events published by this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload of a cart.updated event.
type CartUpdatedData struct {
	VisitorID  string         `json:"visitor_id"`
	SessionID  string         `json:"session_id"`
	Items      []CartItemData `json:"items"`
	TotalItems int            `json:"total_items"`
	Subtotal   int64          `json:"subtotal"`
}

// CartItemData is a line item within cart events.
type CartItemData struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload of a cart.cleared event. Consumers group
// checkout analytics by session id.
type CartClearedData struct {
	VisitorID         string `json:"visitor_id"`
	PreviousSessionID string `json:"previous_session_id"`
	SessionID         string `json:"session_id"`
}

// WishlistUpdatedData is the payload of a wishlist.updated event.
type WishlistUpdatedData struct {
	VisitorID  string   `json:"visitor_id"`
	ProductIDs []string `json:"product_ids"`
	Count      int      `json:"count"`
}

// Publisher publishes storefront domain events.
type Publisher struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewPublisher creates a publisher on top of a Kafka publisher.
func NewPublisher(kafka pkgkafka.Publisher, logger *slog.Logger) *Publisher {
	return &Publisher{kafka: kafka, logger: logger}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Publisher) PublishCartUpdated(ctx context.Context, visitorID string, cart domain.CartState) error {
	items := make([]CartItemData, len(cart.Items))
	for i, li := range cart.Items {
		items[i] = CartItemData{
			ID:        li.ID,
			ProductID: li.ProductID,
			VariantID: li.VariantID,
			Name:      li.Name,
			Price:     li.Price,
			Quantity:  li.Quantity,
		}
	}

	return p.publish(ctx, TopicCartUpdated, "cart.updated", visitorID, AggregateTypeCart, CartUpdatedData{
		VisitorID:  visitorID,
		SessionID:  cart.SessionID,
		Items:      items,
		TotalItems: cart.TotalItems(),
		Subtotal:   cart.Subtotal(),
	})
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Publisher) PublishCartCleared(ctx context.Context, visitorID, previousSessionID, sessionID string) error {
	return p.publish(ctx, TopicCartCleared, "cart.cleared", visitorID, AggregateTypeCart, CartClearedData{
		VisitorID:         visitorID,
		PreviousSessionID: previousSessionID,
		SessionID:         sessionID,
	})
}

// PublishWishlistUpdated publishes a wishlist.updated event.
func (p *Publisher) PublishWishlistUpdated(ctx context.Context, visitorID string, wishlist domain.WishlistState) error {
	ids := make([]string, len(wishlist.Items))
	for i, e := range wishlist.Items {
		ids[i] = e.ProductID
	}
	return p.publish(ctx, TopicWishlistUpdated, "wishlist.updated", visitorID, AggregateTypeWishlist, WishlistUpdatedData{
		VisitorID:  visitorID,
		ProductIDs: ids,
		Count:      len(ids),
	})
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("event_type", eventType),
		slog.String("visitor_id", aggregateID),
	)
	return nil
}

// Discard is a kafka publisher that drops every event. It stands in for
// Kafka when events are disabled.
type Discard struct{}

func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/domain"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
	"github.com/Ai-Eli-ML/veliano-sub003/pkg/validator"
)

const tracerName = "github.com/Ai-Eli-ML/veliano-sub003/internal/service"

// EventPublisher publishes storefront domain events.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, visitorID string, cart domain.CartState) error
	PublishCartCleared(ctx context.Context, visitorID, previousSessionID, sessionID string) error
	PublishWishlistUpdated(ctx context.Context, visitorID string, wishlist domain.WishlistState) error
}

func startSpan(ctx context.Context, name, visitorID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithAttributes(attribute.String("storefront.visitor_id", visitorID)),
	)
}

// endSpan records err, if any, and ends span.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func validateVisitor(visitorID string) error {
	if visitorID == "" {
		return apperrors.InvalidInput("visitor id is required")
	}
	return nil
}

// validateInput applies the validate tags of input, the same rules the
// HTTP layer checks on decode.
func validateInput(input any) error {
	if err := validator.Validate(input); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Ai-Eli-ML/veliano-sub003/pkg/logger"
)

// HeaderVisitorID identifies the storefront visitor whose cart and wishlist
// a request operates on.
const HeaderVisitorID = "X-Visitor-ID"

// RequestLogger stores a logger enriched with correlation_id, visitor_id,
// trace_id and span_id in the request context. Mount it after
// RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if logger.VisitorIDFromContext(ctx) == "" {
				if id := r.Header.Get(HeaderVisitorID); id != "" {
					ctx = logger.WithVisitorID(ctx, id)
				}
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

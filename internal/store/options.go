package store

import (
	"log/slog"

	"github.com/google/uuid"
)

// Options configures how stores are built.
type Options struct {
	Logger *slog.Logger

	// NewID generates line item, wishlist entry and cart session ids.
	// Defaults to random UUIDs.
	NewID func() string
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

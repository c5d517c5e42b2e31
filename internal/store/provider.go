package store

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
)

const (
	lockStripes = 64

	// maxAttempts bounds how often a callback is re-run after its save
	// lost to a writer in another process.
	maxAttempts = 3
)

// Provider hands out per-visitor stores backed by one storage. It is
// built once at startup and shared by every request. Calls for the same
// visitor are serialized within this process; different visitors run
// concurrently. Writers in other processes are detected through the slot
// revision and the callback is re-run against fresh state.
type Provider struct {
	storage storage.Storage
	opts    Options
	locks   [lockStripes]sync.Mutex
}

// NewProvider creates a provider over st.
func NewProvider(st storage.Storage, opts Options) *Provider {
	return &Provider{storage: st, opts: opts.withDefaults()}
}

func (p *Provider) lockFor(visitorID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(visitorID))
	return &p.locks[h.Sum32()%lockStripes]
}

// WithCart rehydrates visitorID's cart and passes it to fn while holding
// the visitor's lock. fn's error is returned unchanged. fn may run more
// than once, so it must not have side effects outside the store.
func (p *Provider) WithCart(ctx context.Context, visitorID string, fn func(*CartStore) error) error {
	mu := p.lockFor(visitorID)
	mu.Lock()
	defer mu.Unlock()

	return withRetry(ctx, p.opts.Logger, cartStoreName, visitorID, func() (*CartStore, error) {
		return LoadCartStore(ctx, p.storage, visitorID, p.opts)
	}, fn)
}

// WithWishlist is WithCart for the wishlist.
func (p *Provider) WithWishlist(ctx context.Context, visitorID string, fn func(*WishlistStore) error) error {
	mu := p.lockFor(visitorID)
	mu.Lock()
	defer mu.Unlock()

	return withRetry(ctx, p.opts.Logger, wishlistStoreName, visitorID, func() (*WishlistStore, error) {
		return LoadWishlistStore(ctx, p.storage, visitorID, p.opts)
	}, fn)
}

type staleChecker interface {
	isStale() bool
}

func withRetry[T staleChecker](ctx context.Context, logger *slog.Logger, name, visitorID string, load func() (T, error), fn func(T) error) error {
	for attempt := 1; ; attempt++ {
		st, err := load()
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}
		if !st.isStale() {
			return nil
		}
		if attempt == maxAttempts {
			return apperrors.Conflict(name + " was modified concurrently, please retry")
		}
		logger.DebugContext(ctx, "store changed concurrently, retrying",
			slog.String("store", name),
			slog.String("visitor_id", visitorID),
			slog.Int("attempt", attempt),
		)
	}
}

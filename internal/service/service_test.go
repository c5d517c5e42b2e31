package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/domain"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage/memory"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/store"
)

// --- Mock EventPublisher ---

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishCartUpdated(ctx context.Context, visitorID string, cart domain.CartState) error {
	args := m.Called(ctx, visitorID, cart)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishCartCleared(ctx context.Context, visitorID, previousSessionID, sessionID string) error {
	args := m.Called(ctx, visitorID, previousSessionID, sessionID)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishWishlistUpdated(ctx context.Context, visitorID string, wishlist domain.WishlistState) error {
	args := m.Called(ctx, visitorID, wishlist)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProvider() *store.Provider {
	return newTestProviderOver(memory.New())
}

func newTestProviderOver(st storage.Storage) *store.Provider {
	var mu sync.Mutex
	n := 0
	return store.NewProvider(st, store.Options{
		Logger: newTestLogger(),
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
}

func newTestCartService() (*CartService, *mockEventPublisher) {
	events := new(mockEventPublisher)
	return NewCartService(newTestProvider(), events, newTestLogger()), events
}

func newTestWishlistService() (*WishlistService, *mockEventPublisher) {
	events := new(mockEventPublisher)
	return NewWishlistService(newTestProvider(), events, newTestLogger()), events
}

func newCartServiceOver(st storage.Storage) (*CartService, *mockEventPublisher) {
	events := new(mockEventPublisher)
	return NewCartService(newTestProviderOver(st), events, newTestLogger()), events
}

func newWishlistServiceOver(st storage.Storage) (*WishlistService, *mockEventPublisher) {
	events := new(mockEventPublisher)
	return NewWishlistService(newTestProviderOver(st), events, newTestLogger()), events
}

// --- Failing storages ---

// downStorage fails every read like an unreachable backend.
type downStorage struct {
	*memory.Storage
}

func (downStorage) Get(context.Context, string) (storage.Entry, error) {
	return storage.Entry{}, errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
}

// conflictingStorage loses every write to another writer.
type conflictingStorage struct {
	*memory.Storage
}

func (conflictingStorage) SetIfRevision(context.Context, string, []byte, int64) (bool, error) {
	return false, nil
}

var errBrokerDown = errors.New("broker down")

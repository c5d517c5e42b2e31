package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/app"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/config"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/domain"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/service"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/store"
)

func memoryBackend(t *testing.T) *app.Backend {
	t.Helper()
	cfg := &config.Config{StorageBackend: config.BackendMemory, SlotTTLHours: 1}
	b, err := app.OpenStorage(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return b
}

func run(t *testing.T, b *app.Backend, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	open := func(context.Context, string, *slog.Logger) (*app.Backend, error) { return b, nil }

	cmd := newRootCmd(&out, open)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, b *app.Backend, visitor string) {
	t.Helper()
	ctx := context.Background()
	p := store.NewProvider(b.Storage, store.Options{})

	require.NoError(t, p.WithCart(ctx, visitor, func(c *store.CartStore) error {
		c.AddItem(ctx, domain.NewLineItem{ProductID: "p1", Name: "Cuban Link", Price: 12000, Quantity: 2})
		return nil
	}))
	require.NoError(t, p.WithWishlist(ctx, visitor, func(w *store.WishlistStore) error {
		w.AddItem(ctx, domain.WishlistEntry{ProductID: "p9", Name: "Tennis Bracelet", Price: 50000})
		return nil
	}))
}

func TestCartShow(t *testing.T) {
	b := memoryBackend(t)
	seed(t, b, "v-1")

	out, err := run(t, b, "cart", "show", "v-1")
	require.NoError(t, err)

	var view service.CartView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.TotalItems)
	assert.Equal(t, int64(24000), view.Subtotal)
}

func TestCartClear(t *testing.T) {
	b := memoryBackend(t)
	seed(t, b, "v-1")

	out, err := run(t, b, "cart", "clear", "v-1")
	require.NoError(t, err)
	assert.Contains(t, out, "cart cleared for v-1")

	out, err = run(t, b, "cart", "show", "v-1")
	require.NoError(t, err)
	var view service.CartView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Empty(t, view.Items)
}

func TestWishlistShowAndClear(t *testing.T) {
	b := memoryBackend(t)
	seed(t, b, "v-1")

	out, err := run(t, b, "wishlist", "show", "v-1")
	require.NoError(t, err)
	var items []service.WishlistItemView
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "p9", items[0].ProductID)

	out, err = run(t, b, "wishlist", "clear", "v-1")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 removed)")

	out, err = run(t, b, "wishlist", "show", "v-1")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestPurgeExpired_UnsupportedBackend(t *testing.T) {
	b := memoryBackend(t)

	_, err := run(t, b, "purge-expired")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory")
}

func TestMissingVisitorArg(t *testing.T) {
	b := memoryBackend(t)

	_, err := run(t, b, "cart", "show")
	assert.Error(t, err)
}

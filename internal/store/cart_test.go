package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/domain"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage/memory"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testOptions() Options {
	var mu sync.Mutex
	n := 0
	return Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		},
	}
}

// flakyStorage wraps a memory storage and fails writes or reads on demand.
type flakyStorage struct {
	*memory.Storage
	setErr error
	getErr error
}

func (f *flakyStorage) SetIfRevision(ctx context.Context, slot string, data []byte, expected int64) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	return f.Storage.SetIfRevision(ctx, slot, data, expected)
}

func (f *flakyStorage) Get(ctx context.Context, slot string) (storage.Entry, error) {
	if f.getErr != nil {
		return storage.Entry{}, f.getErr
	}
	return f.Storage.Get(ctx, slot)
}

func mustLoadCart(t *testing.T, st storage.Storage, visitorID string) *CartStore {
	t.Helper()
	c, err := LoadCartStore(context.Background(), st, visitorID, testOptions())
	require.NoError(t, err)
	return c
}

func seedSlot(t *testing.T, st storage.Storage, slot, payload string) {
	t.Helper()
	ok, err := st.SetIfRevision(context.Background(), slot, []byte(payload), 0)
	require.NoError(t, err)
	require.True(t, ok)
}

func readSlot(t *testing.T, st storage.Storage, slot string) storage.Entry {
	t.Helper()
	entry, err := st.Get(context.Background(), slot)
	require.NoError(t, err)
	return entry
}

func necklace(productID string, price int64, qty int) domain.NewLineItem {
	return domain.NewLineItem{ProductID: productID, Name: "Necklace", Price: price, Quantity: qty}
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

func TestCartStore_AddItemMergesAndPersists(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	c := mustLoadCart(t, st, "v-1")

	c.AddItem(ctx, necklace("p1", 10, 1))
	got := c.AddItem(ctx, necklace("p1", 10, 2))

	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, c.TotalItems())
	assert.Equal(t, int64(30), c.Subtotal())

	entry := readSlot(t, st, storage.CartSlot("v-1"))
	assert.Contains(t, string(entry.Data), `"version":0`)
	assert.Contains(t, string(entry.Data), `"sessionId":"id-1"`)
	assert.Equal(t, int64(2), entry.Revision)
}

func TestCartStore_UnchangedStateIsNotSaved(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	c := mustLoadCart(t, st, "v-1")
	c.AddItem(ctx, necklace("p1", 10, 1))

	var notified int
	c.Subscribe(func(domain.CartState) { notified++ })

	c.RemoveItem(ctx, "missing")
	c.UpdateQuantity(ctx, "missing", 4)

	assert.Zero(t, notified)
	assert.Equal(t, int64(1), readSlot(t, st, storage.CartSlot("v-1")).Revision)
}

func TestCartStore_RemoveAndQueries(t *testing.T) {
	ctx := context.Background()
	c := mustLoadCart(t, memory.New(), "v-1")
	c.AddItem(ctx, necklace("p1", 1000, 2))
	c.AddItem(ctx, domain.NewLineItem{ProductID: "p2", VariantID: "gold", Price: 500, Quantity: 3})

	assert.True(t, c.IsItemInCart("p2", "gold"))
	assert.False(t, c.IsItemInCart("p2", ""))

	line, ok := c.GetItem("p2", "gold")
	require.True(t, ok)
	before := c.TotalItems()

	c.RemoveItem(ctx, line.ID)

	_, ok = c.GetItem("p2", "gold")
	assert.False(t, ok)
	assert.Equal(t, before-3, c.TotalItems())
}

func TestCartStore_UpdateQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	c := mustLoadCart(t, memory.New(), "v-1")
	state := c.AddItem(ctx, necklace("p1", 1000, 2))

	c.UpdateQuantity(ctx, state.Items[0].ID, 0)

	assert.Empty(t, c.Items())
}

func TestCartStore_ClearIssuesNewSession(t *testing.T) {
	ctx := context.Background()
	c := mustLoadCart(t, memory.New(), "v-1")
	c.AddItem(ctx, necklace("p1", 1000, 2))
	before := c.SessionID()

	c.ClearCart(ctx)

	assert.Equal(t, 0, c.TotalItems())
	assert.Equal(t, int64(0), c.Subtotal())
	assert.NotEqual(t, before, c.SessionID())
}

func TestCartStore_ItemsIsACopy(t *testing.T) {
	ctx := context.Background()
	c := mustLoadCart(t, memory.New(), "v-1")
	c.AddItem(ctx, necklace("p1", 1000, 2))

	items := c.Items()
	items[0].Quantity = 99

	assert.Equal(t, 2, c.TotalItems())
}

// ---------------------------------------------------------------------------
// Rehydration
// ---------------------------------------------------------------------------

func TestLoadCartStore_RestoresPreviousState(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	first := mustLoadCart(t, st, "v-1")
	first.AddItem(ctx, domain.NewLineItem{
		ProductID: "p1",
		Name:      "Cuban Link",
		Price:     25000,
		Quantity:  1,
		Options:   map[string]string{"engraving": "JR"},
	})

	second := mustLoadCart(t, st, "v-1")

	assert.Equal(t, first.Snapshot(), second.Snapshot())
	assert.Equal(t, first.SessionID(), second.SessionID())
}

func TestLoadCartStore_FallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"state":`},
		{"wrong shape", `{"state":{"items":"nope"},"version":0}`},
		{"unknown version", `{"state":{"items":[{"id":"a","productId":"p1","quantity":1}],"sessionId":"s"},"version":7}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := memory.New()
			seedSlot(t, st, storage.CartSlot("v-1"), tc.payload)

			c := mustLoadCart(t, st, "v-1")

			assert.Empty(t, c.Items())
			assert.Equal(t, "id-1", c.SessionID())

			// The next write replaces the undecodable payload.
			c.AddItem(context.Background(), necklace("p1", 10, 1))
			assert.Equal(t, int64(2), readSlot(t, st, storage.CartSlot("v-1")).Revision)
		})
	}
}

func TestLoadCartStore_StorageErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	st := &flakyStorage{Storage: memory.New(), getErr: errors.New("redis down")}
	failedBefore := testutil.ToFloat64(rehydrations.WithLabelValues(cartStoreName, rehydrateStorageFail))

	c, err := LoadCartStore(ctx, st, "v-1", testOptions())

	require.Error(t, err)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Contains(t, err.Error(), "redis down")
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(rehydrations.WithLabelValues(cartStoreName, rehydrateStorageFail)))
}

func TestLoadCartStore_MissingSessionIDIsFilled(t *testing.T) {
	st := memory.New()
	seedSlot(t, st, storage.CartSlot("v-1"), `{"state":{"items":null},"version":0}`)

	c := mustLoadCart(t, st, "v-1")

	assert.NotNil(t, c.Items())
	assert.Equal(t, "id-1", c.SessionID())
}

// ---------------------------------------------------------------------------
// Save / Subscribe
// ---------------------------------------------------------------------------

func TestCartStore_SaveFailureKeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	st := &flakyStorage{Storage: memory.New(), setErr: errors.New("disk full")}
	c := mustLoadCart(t, st, "v-1")
	failuresBefore := testutil.ToFloat64(persistFailures.WithLabelValues(cartStoreName))

	state := c.AddItem(ctx, necklace("p1", 1000, 2))

	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, c.TotalItems())
	assert.Equal(t, failuresBefore+1, testutil.ToFloat64(persistFailures.WithLabelValues(cartStoreName)))

	err := c.Save(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCartStore_SaveAfterConcurrentWriteConflicts(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	mine := mustLoadCart(t, st, "v-1")
	theirs := mustLoadCart(t, st, "v-1")
	conflictsBefore := testutil.ToFloat64(persistConflicts.WithLabelValues(cartStoreName))

	theirs.AddItem(ctx, necklace("p1", 1000, 1))
	mine.AddItem(ctx, necklace("p2", 500, 1))

	assert.False(t, theirs.isStale())
	assert.True(t, mine.isStale())
	assert.ErrorIs(t, mine.Save(ctx), apperrors.ErrConflict)
	assert.Equal(t, conflictsBefore+2, testutil.ToFloat64(persistConflicts.WithLabelValues(cartStoreName)))

	restored := mustLoadCart(t, st, "v-1")
	assert.True(t, restored.IsItemInCart("p1", ""))
	assert.False(t, restored.IsItemInCart("p2", ""))
}

func TestCartStore_SubscribeAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	c := mustLoadCart(t, memory.New(), "v-1")

	var seen []int
	unsubscribe := c.Subscribe(func(s domain.CartState) {
		seen = append(seen, s.TotalItems())
	})

	c.AddItem(ctx, necklace("p1", 1000, 2))
	c.AddItem(ctx, necklace("p1", 1000, 1))
	unsubscribe()
	c.ClearCart(ctx)

	assert.Equal(t, []int{2, 3}, seen)
}

func TestCartStore_SubscriberSeesStateBeforeSave(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	c := mustLoadCart(t, st, "v-1")

	var persistedAtNotify bool
	c.Subscribe(func(domain.CartState) {
		_, err := st.Get(ctx, storage.CartSlot("v-1"))
		persistedAtNotify = err == nil
	})
	c.AddItem(ctx, necklace("p1", 1000, 1))

	assert.False(t, persistedAtNotify)
	_, err := st.Get(ctx, storage.CartSlot("v-1"))
	assert.NoError(t, err)
}

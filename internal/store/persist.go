package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
)

// persistVersion is the only envelope version this build understands.
const persistVersion = 0

// Rehydration outcomes.
const (
	rehydrateRestored    = "restored"
	rehydrateEmpty       = "empty"
	rehydrateMalformed   = "malformed"
	rehydrateBadVersion  = "unsupported_version"
	rehydrateStorageFail = "storage_error"
)

var (
	rehydrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_store_rehydrations_total",
			Help: "Store loads from slot storage by outcome",
		},
		[]string{"store", "result"},
	)

	persistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_store_persist_failures_total",
			Help: "Failed writes of store state to slot storage",
		},
		[]string{"store"},
	)

	persistConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_store_persist_conflicts_total",
			Help: "Store writes rejected because the slot changed since it was read",
		},
		[]string{"store"},
	)

	persistDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_store_persist_duration_seconds",
			Help:    "Duration of store state writes to slot storage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store"},
	)
)

// envelope is the persisted layout of a slot.
type envelope[S any] struct {
	State   S   `json:"state"`
	Version int `json:"version"`
}

// slotStore holds the state shared by the cart and wishlist stores: the
// current value, the slot revision it was read at, and its subscribers.
type slotStore[S any] struct {
	name    string
	slot    string
	storage storage.Storage
	logger  *slog.Logger
	clone   func(S) S
	equal   func(S, S) bool

	mu       sync.RWMutex
	state    S
	revision int64
	stale    bool
	subs     map[uint64]func(S)
	nextSub  uint64
}

func newSlotStore[S any](name, slot string, st storage.Storage, logger *slog.Logger, clone func(S) S, equal func(S, S) bool, initial S, revision int64) *slotStore[S] {
	return &slotStore[S]{
		name:     name,
		slot:     slot,
		storage:  st,
		logger:   logger,
		clone:    clone,
		equal:    equal,
		state:    initial,
		revision: revision,
		subs:     make(map[uint64]func(S)),
	}
}

func (s *slotStore[S]) snapshot() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone(s.state)
}

// update replaces the state with next(state), notifies subscribers, then
// saves. When next leaves the state unchanged nothing is notified or
// saved. A failed save is logged and counted; the new state stands.
func (s *slotStore[S]) update(ctx context.Context, next func(S) S) S {
	s.mu.Lock()
	updated := next(s.state)
	if s.equal(s.state, updated) {
		current := s.clone(s.state)
		s.mu.Unlock()
		return current
	}
	s.state = updated
	current := s.clone(s.state)
	subs := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(s.clone(current))
	}

	if err := s.Save(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to persist store state",
			slog.String("store", s.name),
			slog.String("slot", s.slot),
			slog.String("error", err.Error()),
		)
	}
	return current
}

// Save writes the current state to the store's slot, provided the slot
// still holds the revision the store was loaded at. A lost race returns
// a CONFLICT error and marks the store stale.
func (s *slotStore[S]) Save(ctx context.Context) error {
	s.mu.RLock()
	state := s.clone(s.state)
	expected := s.revision
	s.mu.RUnlock()

	data, err := json.Marshal(envelope[S]{State: state, Version: persistVersion})
	if err != nil {
		persistFailures.WithLabelValues(s.name).Inc()
		return fmt.Errorf("marshal %s state: %w", s.name, err)
	}

	start := time.Now()
	ok, err := s.storage.SetIfRevision(ctx, s.slot, data, expected)
	persistDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
	if err != nil {
		persistFailures.WithLabelValues(s.name).Inc()
		return fmt.Errorf("save %s state: %w", s.name, err)
	}
	if !ok {
		persistConflicts.WithLabelValues(s.name).Inc()
		s.mu.Lock()
		s.stale = true
		s.mu.Unlock()
		return apperrors.Conflict(s.name + " was modified concurrently, please retry")
	}

	s.mu.Lock()
	s.revision = expected + 1
	s.mu.Unlock()
	return nil
}

// isStale reports whether a save lost to a concurrent writer.
func (s *slotStore[S]) isStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// Subscribe registers fn to receive a copy of the state after every
// change. The returned func removes the subscription.
func (s *slotStore[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Slot returns the storage slot the store persists to.
func (s *slotStore[S]) Slot() string {
	return s.slot
}

// rehydrate reads slot and decodes its state. An absent slot, or one
// holding data this build cannot decode, yields ok == false so the caller
// substitutes its empty default; the returned revision still lets the
// next save replace undecodable data. A storage failure is returned as a
// SERVICE_UNAVAILABLE error and never read as empty.
func rehydrate[S any](ctx context.Context, st storage.Storage, name, slot string, logger *slog.Logger) (state S, revision int64, ok bool, err error) {
	entry, err := st.Get(ctx, slot)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			rehydrations.WithLabelValues(name, rehydrateEmpty).Inc()
			return state, 0, false, nil
		}
		rehydrations.WithLabelValues(name, rehydrateStorageFail).Inc()
		logger.WarnContext(ctx, "failed to read persisted state",
			slog.String("store", name),
			slog.String("slot", slot),
			slog.String("error", err.Error()),
		)
		return state, 0, false, apperrors.Unavailable("slot storage", fmt.Errorf("load %s: %w", name, err))
	}

	var env envelope[S]
	if err := json.Unmarshal(entry.Data, &env); err != nil {
		rehydrations.WithLabelValues(name, rehydrateMalformed).Inc()
		logger.WarnContext(ctx, "discarding malformed persisted state",
			slog.String("store", name),
			slog.String("slot", slot),
			slog.String("error", err.Error()),
		)
		return state, entry.Revision, false, nil
	}
	if env.Version != persistVersion {
		rehydrations.WithLabelValues(name, rehydrateBadVersion).Inc()
		logger.WarnContext(ctx, "discarding persisted state with unknown version",
			slog.String("store", name),
			slog.String("slot", slot),
			slog.Int("version", env.Version),
		)
		return state, entry.Revision, false, nil
	}

	rehydrations.WithLabelValues(name, rehydrateRestored).Inc()
	return env.State, entry.Revision, true, nil
}

package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
)

// Storage keeps slots in process memory. Contents are lost on restart.
type Storage struct {
	mu    sync.RWMutex
	slots map[string]storage.Entry
}

// New returns an empty in-memory storage.
func New() *Storage {
	return &Storage{slots: make(map[string]storage.Entry)}
}

func (s *Storage) Get(_ context.Context, slot string) (storage.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.slots[slot]
	if !ok {
		return storage.Entry{}, apperrors.NotFound("slot", slot)
	}
	return storage.Entry{Data: slices.Clone(e.Data), Revision: e.Revision}, nil
}

func (s *Storage) SetIfRevision(_ context.Context, slot string, data []byte, expected int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slots[slot].Revision != expected {
		return false, nil
	}
	s.slots[slot] = storage.Entry{Data: slices.Clone(data), Revision: expected + 1}
	return true, nil
}

func (s *Storage) Remove(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, slot)
	return nil
}

func (s *Storage) Ping(context.Context) error { return nil }

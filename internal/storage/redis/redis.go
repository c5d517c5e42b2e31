package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
)

// KeyPrefix namespaces every slot key.
const KeyPrefix = "storefront:"

// Hash fields of a slot key.
const (
	fieldData     = "data"
	fieldRevision = "revision"
)

var errRevisionMismatch = errors.New("slot revision mismatch")

// Storage implements storage.Storage on Redis. Each slot is one hash key
// holding the payload and its revision; the TTL is refreshed on every
// write.
type Storage struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a Redis-backed slot storage. A ttl of 0 keeps keys forever.
func New(client redis.UniversalClient, ttl time.Duration) *Storage {
	return &Storage{client: client, ttl: ttl}
}

func key(slot string) string {
	return KeyPrefix + slot
}

// Get returns the entry stored under slot.
func (s *Storage) Get(ctx context.Context, slot string) (storage.Entry, error) {
	fields, err := s.client.HGetAll(ctx, key(slot)).Result()
	if err != nil {
		return storage.Entry{}, apperrors.Unavailable("redis", fmt.Errorf("redis get slot: %w", err))
	}
	if len(fields) == 0 {
		return storage.Entry{}, apperrors.NotFound("slot", slot)
	}

	rev, err := strconv.ParseInt(fields[fieldRevision], 10, 64)
	if err != nil {
		return storage.Entry{}, fmt.Errorf("parse revision of slot %s: %w", slot, err)
	}
	return storage.Entry{Data: []byte(fields[fieldData]), Revision: rev}, nil
}

// SetIfRevision writes data under slot inside a WATCH/MULTI transaction,
// so a concurrent writer on another instance makes it fail instead of
// being overwritten.
func (s *Storage) SetIfRevision(ctx context.Context, slot string, data []byte, expected int64) (bool, error) {
	k := key(slot)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, k, fieldRevision).Int64()
		switch {
		case errors.Is(err, redis.Nil):
			current = 0
		case err != nil:
			return err
		}
		if current != expected {
			return errRevisionMismatch
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, fieldData, data, fieldRevision, expected+1)
			if s.ttl > 0 {
				pipe.Expire(ctx, k, s.ttl)
			}
			return nil
		})
		return err
	}, k)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errRevisionMismatch), errors.Is(err, redis.TxFailedErr):
		return false, nil
	}
	return false, apperrors.Unavailable("redis", fmt.Errorf("redis set slot: %w", err))
}

// Remove deletes slot.
func (s *Storage) Remove(ctx context.Context, slot string) error {
	if err := s.client.Del(ctx, key(slot)).Err(); err != nil {
		return apperrors.Unavailable("redis", fmt.Errorf("redis del slot: %w", err))
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Storage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

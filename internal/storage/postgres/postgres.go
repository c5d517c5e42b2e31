package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage"
	"github.com/Ai-Eli-ML/veliano-sub003/pkg/database"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
)

// DB is the pool surface the storage needs.
type DB interface {
	database.DBTX
	Ping(ctx context.Context) error
}

const (
	getSlotSQL = `SELECT data, revision FROM storefront_slots
		WHERE slot = $1 AND (expires_at IS NULL OR expires_at > NOW())`

	// An expired row counts as absent, so a fresh insert may replace it.
	insertSlotSQL = `INSERT INTO storefront_slots (slot, data, revision, updated_at, expires_at)
		VALUES ($1, $2, 1, NOW(), $3)
		ON CONFLICT (slot) DO UPDATE
		SET data = EXCLUDED.data, revision = 1, updated_at = NOW(), expires_at = EXCLUDED.expires_at
		WHERE storefront_slots.expires_at IS NOT NULL AND storefront_slots.expires_at <= NOW()`

	updateSlotSQL = `UPDATE storefront_slots
		SET data = $2, revision = revision + 1, updated_at = NOW(), expires_at = $3
		WHERE slot = $1 AND revision = $4 AND (expires_at IS NULL OR expires_at > NOW())`

	deleteSlotSQL = `DELETE FROM storefront_slots WHERE slot = $1`

	purgeExpiredSQL = `DELETE FROM storefront_slots WHERE expires_at IS NOT NULL AND expires_at <= NOW()`
)

// Storage implements storage.Storage on a storefront_slots table. Rows
// past expires_at read as absent until PurgeExpired deletes them.
type Storage struct {
	db     DB
	ttl    time.Duration
	tracer database.QueryTracer
	now    func() time.Time
}

// New creates a PostgreSQL-backed slot storage. A ttl of 0 stores rows
// without expiry.
func New(db DB, ttl time.Duration, tracer database.QueryTracer) *Storage {
	return &Storage{db: db, ttl: ttl, tracer: tracer, now: time.Now}
}

// Get returns the entry stored under slot.
func (s *Storage) Get(ctx context.Context, slot string) (storage.Entry, error) {
	ctx, end := s.tracer.Start(ctx, "GetSlot", getSlotSQL)

	var e storage.Entry
	err := s.db.QueryRow(ctx, getSlotSQL, slot).Scan(&e.Data, &e.Revision)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		end(nil)
		return storage.Entry{}, apperrors.NotFound("slot", slot)
	case err != nil:
		end(err)
		return storage.Entry{}, fmt.Errorf("select slot: %w", err)
	}
	end(nil)
	return e, nil
}

// SetIfRevision inserts slot when expected is 0, otherwise updates the
// row only while its revision still equals expected.
func (s *Storage) SetIfRevision(ctx context.Context, slot string, data []byte, expected int64) (ok bool, err error) {
	var expiresAt *time.Time
	if s.ttl > 0 {
		t := s.now().Add(s.ttl).UTC()
		expiresAt = &t
	}

	name, query, args := "InsertSlot", insertSlotSQL, []any{slot, data, expiresAt}
	if expected > 0 {
		name, query, args = "UpdateSlot", updateSlotSQL, []any{slot, data, expiresAt, expected}
	}

	ctx, end := s.tracer.Start(ctx, name, query)
	defer func() { end(err) }()

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("write slot: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Remove deletes slot.
func (s *Storage) Remove(ctx context.Context, slot string) (err error) {
	ctx, end := s.tracer.Start(ctx, "DeleteSlot", deleteSlotSQL)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, deleteSlotSQL, slot); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *Storage) PurgeExpired(ctx context.Context) (n int64, err error) {
	ctx, end := s.tracer.Start(ctx, "PurgeExpiredSlots", purgeExpiredSQL)
	defer func() { end(err) }()

	tag, err := s.db.Exec(ctx, purgeExpiredSQL)
	if err != nil {
		return 0, fmt.Errorf("purge expired slots: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

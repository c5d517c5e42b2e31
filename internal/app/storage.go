package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/config"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage/memory"
	pgstorage "github.com/Ai-Eli-ML/veliano-sub003/internal/storage/postgres"
	redisstorage "github.com/Ai-Eli-ML/veliano-sub003/internal/storage/redis"
	"github.com/Ai-Eli-ML/veliano-sub003/migrations"
	"github.com/Ai-Eli-ML/veliano-sub003/pkg/database"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
)

const slowQueryThreshold = 200 * time.Millisecond

// Backend is an opened slot storage together with the connection that
// backs it.
type Backend struct {
	Storage storage.Storage

	name     string
	rdb      *redis.Client
	pool     *pgxpool.Pool
	postgres *pgstorage.Storage
}

// OpenStorage connects the backend selected by cfg.StorageBackend. Postgres
// migrations are applied before the storage is returned.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		rcfg := database.DefaultRedisConfig()
		rcfg.Host = cfg.RedisHost
		rcfg.Port = cfg.RedisPort
		rcfg.Password = cfg.RedisPassword
		rcfg.DB = cfg.RedisDB

		rdb, err := database.NewRedisClient(ctx, rcfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", rcfg.Addr()),
			slog.Int("db", rcfg.DB),
		)
		return &Backend{
			Storage: redisstorage.New(rdb, cfg.SlotTTL()),
			name:    config.BackendRedis,
			rdb:     rdb,
		}, nil

	case config.BackendPostgres:
		pcfg := database.DefaultPostgresConfig()
		pcfg.Host = cfg.PostgresHost
		pcfg.Port = cfg.PostgresPort
		pcfg.User = cfg.PostgresUser
		pcfg.Password = cfg.PostgresPassword
		pcfg.DBName = cfg.PostgresDB
		pcfg.SSLMode = cfg.PostgresSSLMode
		pcfg.MaxConns = cfg.PostgresMaxConns

		pool, err := database.NewPostgresPool(ctx, &pcfg, logger)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", pcfg.Host),
			slog.String("database", pcfg.DBName),
		)

		pg := pgstorage.New(pool, cfg.SlotTTL(), database.QueryTracer{
			SlowThreshold: slowQueryThreshold,
			Logger:        logger,
		})
		return &Backend{
			Storage:  pg,
			name:     config.BackendPostgres,
			pool:     pool,
			postgres: pg,
		}, nil

	case config.BackendMemory:
		logger.Warn("using in-memory slot storage, state is lost on restart")
		return &Backend{Storage: memory.New(), name: config.BackendMemory}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// Name returns the configured backend name.
func (b *Backend) Name() string { return b.name }

// Pool returns the Postgres pool, or nil for other backends.
func (b *Backend) Pool() *pgxpool.Pool { return b.pool }

// PurgeExpired deletes expired slots. Only the Postgres backend keeps
// expired rows around; Redis expires keys itself.
func (b *Backend) PurgeExpired(ctx context.Context) (int64, error) {
	if b.postgres == nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("purge is not supported by the %s backend", b.name))
	}
	return b.postgres.PurgeExpired(ctx)
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	switch {
	case b.rdb != nil:
		return b.rdb.Close()
	case b.pool != nil:
		b.pool.Close()
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/app"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/config"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/store"
	"github.com/Ai-Eli-ML/veliano-sub003/pkg/logger"
)

// opener connects to the slot storage. backend overrides STORAGE_BACKEND
// when non-empty.
type opener func(ctx context.Context, backend string, logger *slog.Logger) (*app.Backend, error)

func openFromEnv(ctx context.Context, backend string, log *slog.Logger) (*app.Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.StorageBackend = backend
	}
	return app.OpenStorage(ctx, cfg, log)
}

// cli carries the state shared by every subcommand.
type cli struct {
	out      io.Writer
	open     opener
	backend  string
	logLevel string

	logger  *slog.Logger
	storage *app.Backend
	stores  *store.Provider
}

func newRootCmd(out io.Writer, open opener) *cobra.Command {
	c := &cli{out: out, open: open}

	root := &cobra.Command{
		Use:   "storefrontctl",
		Short: "Inspect and reset storefront carts and wishlists",
		Long: `storefrontctl reads and writes visitor carts and wishlists in the
slot storage used by the storefront service.

Connection settings come from the same environment variables as the
service (STORAGE_BACKEND, REDIS_*, POSTGRES_*).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.logger = logger.NewWithWriter("storefrontctl", c.logLevel, os.Stderr)
			b, err := c.open(cmd.Context(), c.backend, c.logger)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			c.storage = b
			c.stores = store.NewProvider(b.Storage, store.Options{Logger: c.logger})
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.storage == nil {
				return nil
			}
			return c.storage.Close()
		},
	}

	root.PersistentFlags().StringVar(&c.backend, "backend", "", "storage backend (redis, postgres, memory); defaults to STORAGE_BACKEND")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level")

	root.AddCommand(c.cartCmd(), c.wishlistCmd(), c.purgeCmd())
	return root
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

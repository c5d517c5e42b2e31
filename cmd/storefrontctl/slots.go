package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/service"
	"github.com/Ai-Eli-ML/veliano-sub003/internal/store"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or clear a visitor's cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <visitor-id>",
		Short: "Print the cart with totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var view *service.CartView
			err := c.stores.WithCart(cmd.Context(), args[0], func(s *store.CartStore) error {
				view = service.NewCartView(s.Snapshot())
				return nil
			})
			if err != nil {
				return err
			}
			return c.printJSON(view)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <visitor-id>",
		Short: "Empty the cart and start a new session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var previous, next string
			err := c.stores.WithCart(cmd.Context(), args[0], func(s *store.CartStore) error {
				previous = s.SessionID()
				next = s.ClearCart(cmd.Context()).SessionID
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "cart cleared for %s (session %s -> %s)\n", args[0], previous, next)
			return nil
		},
	})

	return cmd
}

func (c *cli) wishlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Show or clear a visitor's wishlist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <visitor-id>",
		Short: "Print the saved products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []service.WishlistItemView
			err := c.stores.WithWishlist(cmd.Context(), args[0], func(s *store.WishlistStore) error {
				items = service.NewWishlistItemViews(s.Snapshot())
				return nil
			})
			if err != nil {
				return err
			}
			return c.printJSON(items)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <visitor-id>",
		Short: "Remove every saved product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed int
			err := c.stores.WithWishlist(cmd.Context(), args[0], func(s *store.WishlistStore) error {
				removed = len(s.Items())
				s.ClearWishlist(cmd.Context())
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "wishlist cleared for %s (%d removed)\n", args[0], removed)
			return nil
		},
	})

	return cmd
}

func (c *cli) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-expired",
		Short: "Delete expired slots (postgres backend only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := c.storage.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "purged %d expired slots\n", n)
			return nil
		},
	}
}

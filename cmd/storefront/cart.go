package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/MohitNegi1997/MoltenMotion/internal/cart"
	"github.com/MohitNegi1997/MoltenMotion/internal/catalog"
	"github.com/MohitNegi1997/MoltenMotion/internal/domain"
	"github.com/MohitNegi1997/MoltenMotion/internal/notify"
	"github.com/MohitNegi1997/MoltenMotion/internal/storage"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCartCmd(a *app) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change a cart in the configured storage",
	}
	cmd.PersistentFlags().StringVar(&session, "session", "", "session id of a server cart (default: the local cart)")

	// withStore opens the storage, runs fn against the cart and prints it.
	withStore := func(fn func(ctx context.Context, store *cart.Store, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			factory, closeStorage, err := openStorage(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer closeStorage()

			publisher, closePublisher := openPublisher(a.cfg, a.log)
			defer closePublisher()

			store := cart.New(factory(storage.SessionKey(session)), notify.NewBus(), a.log,
				cart.WithSession(session),
				cart.WithPublisher(publisher),
			)
			return fn(ctx, store, cmd.OutOrStdout())
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, store *cart.Store, out io.Writer) error {
			printCart(out, store.Cart(ctx))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a catalog product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity := 1
			if len(args) == 2 {
				q, err := parseQuantity(args[1], 1)
				if err != nil {
					return err
				}
				quantity = q
			}

			products, err := newCatalog(a.cfg, a.log).Products(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to load products")
			}
			product, ok := catalog.ProductByID(args[0], products)
			if !ok {
				return errors.Errorf("product %q not found", args[0])
			}

			return withStore(func(ctx context.Context, store *cart.Store, out io.Writer) error {
				store.Add(ctx, product, quantity)
				printCart(out, store.Cart(ctx))
				return nil
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := parseQuantity(args[1], 0)
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, store *cart.Store, out io.Writer) error {
				store.SetQuantity(ctx, args[0], quantity)
				printCart(out, store.Cart(ctx))
				return nil
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *cart.Store, out io.Writer) error {
				store.Remove(ctx, args[0])
				printCart(out, store.Cart(ctx))
				return nil
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, store *cart.Store, out io.Writer) error {
			store.Clear(ctx)
			printCart(out, store.Cart(ctx))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "checkout",
		Short: "Place a mock order and print the receipt",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, store *cart.Store, out io.Writer) error {
			receipt, err := store.Checkout(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(receipt)
		}),
	})

	return cmd
}

func parseQuantity(s string, min int) (int, error) {
	q, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("invalid quantity %q", s)
	}
	if q < min || q > 99 {
		return 0, errors.Errorf("quantity must be between %d and 99", min)
	}
	return q, nil
}

func formatPrice(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func printCart(out io.Writer, items []domain.LineItem) {
	if len(items) == 0 {
		fmt.Fprintln(out, "Your cart is empty.")
		return
	}

	count, total := 0, 0.0
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Name,
			formatPrice(item.Price),
			strconv.Itoa(item.Quantity),
			formatPrice(item.Subtotal()),
		})
		count += item.Quantity
		total += item.Subtotal()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "PRICE", "QTY", "SUBTOTAL").
		Rows(rows...)
	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "%d item(s), total %s\n", count, formatPrice(total))
}

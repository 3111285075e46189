package main

import (
	"fmt"

	"github.com/MohitNegi1997/MoltenMotion/internal/catalog"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Read the product catalog",
	}

	var category string
	products := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally of one category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := newCatalog(a.cfg, a.log).Products(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to load products")
			}

			filtered := catalog.ProductsByCategory(category, all)
			rows := make([][]string, 0, len(filtered))
			for _, p := range filtered {
				rows = append(rows, []string{p.ID, p.Name, p.CategoryID, formatPrice(p.Price)})
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "NAME", "CATEGORY", "PRICE").
				Rows(rows...)
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	products.Flags().StringVarP(&category, "category", "c", "", "only products of this category id")

	categories := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := newCatalog(a.cfg, a.log).Categories(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to load categories")
			}

			rows := make([][]string, 0, len(all))
			for _, c := range all {
				rows = append(rows, []string{c.ID, c.Name, c.Color})
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "NAME", "COLOR").
				Rows(rows...)
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cmd.AddCommand(products, categories)
	return cmd
}

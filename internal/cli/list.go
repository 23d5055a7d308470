package cli

import (
	"fmt"
	"io"

	"github.com/pizzeria-pos/waiter/internal/pos"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// newCategoriesCmd lists the menu categories.
func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List menu categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			categories, err := a.orders.Categories(cmdContext(cmd))
			if err != nil {
				return err
			}
			entries := make([]entry, 0, len(categories))
			for _, c := range categories {
				entries = append(entries, entry(c))
			}
			printEntries(cmd.OutOrStdout(), a.jsonOutput, "categories", entries)
			return nil
		},
	}
}

// newProductsCmd lists the products of a category, the first one by default.
func newProductsCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the products of a category",
		Long: `List the products of a category. The category is matched by id or name;
without --category the first category is used.

Example:
  waiter products --category Drinks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			categories, err := a.orders.Categories(ctx)
			if err != nil {
				return err
			}
			c, err := pos.SelectCategory(categories, category)
			if err != nil {
				return err
			}
			products, err := a.orders.Products(ctx, c.ID)
			if err != nil {
				return err
			}
			entries := make([]entry, 0, len(products))
			for _, p := range products {
				entries = append(entries, entry(p))
			}
			printEntries(cmd.OutOrStdout(), a.jsonOutput, c.Name, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category id or name")
	return cmd
}

type entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// printEntries prints a titled list of id/name pairs, or a JSON result object.
func printEntries(w io.Writer, jsonOutput bool, title string, entries []entry) {
	if jsonOutput {
		printJSON(w, map[string]any{
			"result": 1,
			"value":  entries,
		})
		return
	}
	fmt.Fprintf(w, "%s:\n", cases.Title(language.English).String(title))
	for _, e := range entries {
		fmt.Fprintf(w, "- %s (%s)\n", e.Name, e.ID)
	}
}

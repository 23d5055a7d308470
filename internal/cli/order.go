package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pizzeria-pos/waiter/internal/pos"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// newOrderCmd groups the commands that work on the open order.
func newOrderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Open, fill, send or cancel a table order",
		Long: `Work with the order of a table. One order is open at a time; it is kept
locally until it is finished or cancelled.

Examples:
  waiter order open 12
  waiter order add --pick
  waiter order remove i-42
  waiter order show -o yaml
  waiter order finish`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return a.requireSession()
		},
	}

	cmd.AddCommand(newOrderOpenCmd(a))
	cmd.AddCommand(newOrderAddCmd(a))
	cmd.AddCommand(newOrderRemoveCmd(a))
	cmd.AddCommand(newOrderShowCmd(a))
	cmd.AddCommand(newOrderCancelCmd(a))
	cmd.AddCommand(newOrderFinishCmd(a))
	return cmd
}

func newOrderOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open TABLE",
		Short: "Open an order for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.orders.OpenTable(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				printJSON(cmd.OutOrStdout(), d)
				return nil
			}
			okLabel.Fprintf(cmd.OutOrStdout(), "✓ Table %d opened (order %s)\n", d.Table, d.OrderID)
			return nil
		},
	}
}

func newOrderAddCmd(a *app) *cobra.Command {
	var (
		category string
		product  string
		amount   string
		usePick  bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the open order",
		Long: `Add a product to the open order. Category and product are matched by id or
name; when omitted the first of each is used. With --pick both are chosen from a
numbered list; an empty answer closes the list and nothing is added.

Examples:
  waiter order add --category Pizzas --product Calabresa --amount 2
  waiter order add --pick --amount 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if _, err := a.orders.Current(ctx); err != nil {
				return err
			}

			categories, err := a.orders.Categories(ctx)
			if err != nil {
				return err
			}
			var reader *bufio.Reader
			if usePick {
				reader = bufio.NewReader(cmd.InOrStdin())
			}

			c, err := choose(reader, cmd.ErrOrStderr(), "Category", categories, category,
				func(c pos.Category) string { return c.Name }, pos.SelectCategory)
			if err != nil {
				return pickResult(cmd, err)
			}
			products, err := a.orders.Products(ctx, c.ID)
			if err != nil {
				return err
			}
			p, err := choose(reader, cmd.ErrOrStderr(), "Product", products, product,
				func(p pos.Product) string { return p.Name }, pos.SelectProduct)
			if err != nil {
				return pickResult(cmd, err)
			}

			d, err := a.orders.AddItem(ctx, p, amount)
			if err != nil {
				return err
			}
			item := d.Items[len(d.Items)-1]
			if a.jsonOutput {
				printJSON(cmd.OutOrStdout(), item)
				return nil
			}
			okLabel.Fprintf(cmd.OutOrStdout(), "✓ Added %d x %s (item %s)\n", item.Amount, item.Name, item.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category id or name")
	cmd.Flags().StringVarP(&product, "product", "p", "", "Product id or name")
	cmd.Flags().StringVarP(&amount, "amount", "a", pos.DefaultAmount, "Amount to add")
	cmd.Flags().BoolVar(&usePick, "pick", false, "Choose category and product from a list")
	return cmd
}

// choose resolves ref with sel, or shows the picker when reader is set and ref is empty.
func choose[T any](reader *bufio.Reader, w io.Writer, title string, options []T, ref string,
	label func(T) string, sel func([]T, string) (T, error)) (T, error) {
	if reader == nil || ref != "" || len(options) == 0 {
		return sel(options, ref)
	}
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = label(o)
	}
	idx, err := pick(reader, w, title, labels)
	if err != nil {
		var zero T
		return zero, err
	}
	return options[idx], nil
}

// pickResult turns a closed picker into a quiet no-op.
func pickResult(cmd *cobra.Command, err error) error {
	if errors.Is(err, ErrPickerClosed) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Nothing selected")
		return nil
	}
	return err
}

func newOrderRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ITEM_ID",
		Short: "Remove an item from the open order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.orders.RemoveItem(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				printJSON(cmd.OutOrStdout(), d)
				return nil
			}
			okLabel.Fprintf(cmd.OutOrStdout(), "✓ Item %s removed\n", args[0])
			return nil
		},
	}
}

func newOrderShowCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the open order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.orders.Current(cmdContext(cmd))
			if err != nil {
				return err
			}
			if a.jsonOutput && output == "" {
				output = "json"
			}
			return printDraft(cmd.OutOrStdout(), d, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: yaml or json")
	return cmd
}

func newOrderCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the open order; only an order without items can be cancelled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.orders.CancelOrder(cmdContext(cmd)); err != nil {
				return err
			}
			if a.jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{"status": "cancelled"})
				return nil
			}
			okLabel.Fprintln(cmd.OutOrStdout(), "✓ Order cancelled")
			return nil
		},
	}
}

func newOrderFinishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "finish",
		Short: "Send the open order to the kitchen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.orders.FinishOrder(cmdContext(cmd))
			if err != nil {
				return err
			}
			if a.jsonOutput {
				printJSON(cmd.OutOrStdout(), d)
				return nil
			}
			okLabel.Fprintf(cmd.OutOrStdout(), "✓ Order for table %d sent (%d items)\n", d.Table, d.Total())
			return nil
		},
	}
}

// printDraft prints d as a table, or as yaml or json.
func printDraft(w io.Writer, d *pos.Draft, output string) error {
	switch output {
	case "json":
		printJSON(w, d)
		return nil
	case "yaml":
		jsonBytes, err := json.Marshal(d)
		if err != nil {
			return err
		}
		yamlBytes, err := yaml.JSONToYAML(jsonBytes)
		if err != nil {
			return fmt.Errorf("failed to format YAML output: %w", err)
		}
		fmt.Fprint(w, string(yamlBytes))
		return nil
	case "":
	default:
		return ErrUnknownOutput
	}

	fmt.Fprintf(w, "Table %d (order %s)\n", d.Table, d.OrderID)
	if !d.HasItems() {
		fmt.Fprintln(w, "No items yet")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPRODUCT\tAMOUNT")
	for _, it := range d.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", it.ID, it.Name, it.Amount)
	}
	tw.Flush()
	fmt.Fprintf(w, "Total items: %d\n", d.Total())
	return nil
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shopfront/app/models"
)

var (
	cartTitle string
	cartPrice float64
	cartImage string
	cartQty   int
)

func init() {
	cartAddCmd.Flags().StringVar(&cartTitle, "title", "", "product title")
	cartAddCmd.Flags().Float64Var(&cartPrice, "price", 0, "unit price")
	cartAddCmd.Flags().StringVar(&cartImage, "image", "", "product image URL")
	cartAddCmd.Flags().IntVar(&cartQty, "qty", 1, "quantity to add")
}

// shopfront cart:add — add a product (or bump its quantity).
var cartAddCmd = &cobra.Command{
	Use:   "cart:add <product-id>",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cart, err := boot(cmd.Context())
		if err != nil {
			return err
		}

		product := models.Product{ID: args[0], Title: cartTitle, Price: cartPrice, Image: cartImage}
		if product.Title == "" {
			product.Title = product.ID
		}

		cart.AddLine(product, cartQty)
		cart.Flush()
		fmt.Printf("Added %s. Cart holds %d item(s), total %.2f.\n", product.Title, cart.LineCount(), cart.Total())
		return nil
	},
}

// shopfront cart:rm — drop a product entirely.
var cartRmCmd = &cobra.Command{
	Use:   "cart:rm <product-id>",
	Short: "Remove a product from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cart, err := boot(cmd.Context())
		if err != nil {
			return err
		}

		cart.RemoveLine(args[0])
		cart.Flush()
		fmt.Printf("Cart holds %d item(s), total %.2f.\n", cart.LineCount(), cart.Total())
		return nil
	},
}

// shopfront cart:set — set a product's quantity; 0 removes it.
var cartSetCmd = &cobra.Command{
	Use:   "cart:set <product-id> <quantity>",
	Short: "Set the quantity of a product already in the cart",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity must be an integer: %w", err)
		}

		_, cart, err := boot(cmd.Context())
		if err != nil {
			return err
		}

		cart.UpdateQuantity(args[0], qty)
		cart.Flush()
		fmt.Printf("Cart holds %d item(s), total %.2f.\n", cart.LineCount(), cart.Total())
		return nil
	},
}

// shopfront cart:ls — print the cart.
var cartLsCmd = &cobra.Command{
	Use:   "cart:ls",
	Short: "List the cart contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, cart, err := boot(cmd.Context())
		if err != nil {
			return err
		}

		lines := cart.Lines()
		if len(lines) == 0 {
			fmt.Println("Cart is empty.")
			return nil
		}

		owner := "guest"
		if user, ok := session.Current(); ok {
			owner = user.Email
		}
		fmt.Printf("Cart (%s):\n", owner)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tQTY\tPRICE\tTOTAL")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\n", line.ID, line.Title, line.Quantity, line.Price, line.LineTotal())
		}
		fmt.Fprintf(w, "\t\t%d\t\t%.2f\n", cart.LineCount(), cart.Total())
		return w.Flush()
	},
}

// shopfront cart:clear — empty the cart.
var cartClearCmd = &cobra.Command{
	Use:   "cart:clear",
	Short: "Remove everything from the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cart, err := boot(cmd.Context())
		if err != nil {
			return err
		}

		cart.Clear()
		cart.Flush()
		fmt.Println("Cart cleared.")
		return nil
	},
}

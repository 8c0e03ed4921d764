package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/waflora/waflora/internal/domain"
)

func init() {
	rootCmd.AddCommand(productCmd)
	productCmd.AddCommand(productAddCmd)
	productCmd.AddCommand(productListCmd)

	productAddCmd.Flags().String("packing", "", "pack size, e.g. \"bale of 12\"")
	productAddCmd.Flags().String("retail", "0", "retail price")
	productAddCmd.Flags().String("wholesale", "0", "wholesale price")
	productAddCmd.Flags().String("barcode", "", "barcode")
	productListCmd.Flags().StringP("search", "s", "", "match name or barcode")
}

var productCmd = &cobra.Command{
	Use:     "product",
	Aliases: []string{"products"},
	Short:   "Manage the price list",
}

var productAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a product to the price list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		packing, _ := cmd.Flags().GetString("packing")
		barcode, _ := cmd.Flags().GetString("barcode")
		retailFlag, _ := cmd.Flags().GetString("retail")
		wholesaleFlag, _ := cmd.Flags().GetString("wholesale")
		retail, err := domain.ParseAmount(retailFlag)
		if err != nil {
			return fmt.Errorf("retail price: %w", err)
		}
		wholesale, err := domain.ParseAmount(wholesaleFlag)
		if err != nil {
			return fmt.Errorf("wholesale price: %w", err)
		}

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		p := &domain.Product{
			Name:           args[0],
			Packing:        packing,
			RetailPrice:    retail,
			WholesalePrice: wholesale,
			Barcode:        barcode,
		}
		if err := d.Catalog.AddProduct(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Product %d added: %s\n", p.ID, p.Name)
		return nil
	},
}

var productListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List or search the price list",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, _ := cmd.Flags().GetString("search")

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		list, err := d.Catalog.SearchProducts(cmd.Context(), q)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No products.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPACKING\tRETAIL\tWHOLESALE\tBARCODE")
		for _, p := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Packing,
				domain.FormatMoney(p.RetailPrice), domain.FormatMoney(p.WholesalePrice), p.Barcode)
		}
		return w.Flush()
	},
}

package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/waflora/waflora/internal/domain"
)

func init() {
	rootCmd.AddCommand(customerCmd)
	customerCmd.AddCommand(customerAddCmd)
	customerCmd.AddCommand(customerListCmd)
	customerCmd.AddCommand(customerShowCmd)
	customerCmd.AddCommand(customerDeleteCmd)

	customerAddCmd.Flags().StringP("location", "l", "", "delivery location")
	customerAddCmd.Flags().StringP("driver", "d", "", "driver who serves this customer")
}

var customerCmd = &cobra.Command{
	Use:     "customer",
	Aliases: []string{"customers"},
	Short:   "Manage customers",
}

// ─── customer add ───────────────────────────────────────────────────────────

var customerAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a customer with a zero balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")
		driver, _ := cmd.Flags().GetString("driver")

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		c, err := d.Ledger.CreateCustomer(cmd.Context(), args[0], location, driver)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Customer %d added: %s\n", c.ID, c.Name)
		return nil
	},
}

// ─── customer list ──────────────────────────────────────────────────────────

var customerListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List customers with balances",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		list, err := d.Ledger.ListCustomersWithBalance(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No customers.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLOCATION\tDRIVER\tBALANCE\t")
		for _, c := range list {
			flag := ""
			if c.InCredit {
				flag = "owes"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				c.ID, c.Name, c.Location, c.Driver, domain.FormatMoney(c.Balance), flag)
		}
		return w.Flush()
	},
}

// ─── customer show ──────────────────────────────────────────────────────────

var customerShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one customer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		c, err := d.Ledger.GetCustomer(cmd.Context(), id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %d\n", c.ID)
		fmt.Fprintf(out, "Name:      %s\n", c.Name)
		fmt.Fprintf(out, "Location:  %s\n", c.Location)
		fmt.Fprintf(out, "Driver:    %s\n", c.Driver)
		fmt.Fprintf(out, "Balance:   %s\n", domain.FormatMoney(c.Balance))
		fmt.Fprintf(out, "In credit: %t\n", c.InCredit())
		return nil
	},
}

// ─── customer delete ────────────────────────────────────────────────────────

var customerDeleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Delete a customer (history is kept)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Ledger.DeleteCustomer(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Customer %d deleted\n", id)
		return nil
	},
}

func parseIDArg(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrValidation, s)
	}
	return id, nil
}

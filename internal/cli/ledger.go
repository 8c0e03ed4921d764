package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/waflora/waflora/internal/domain"
)

func init() {
	rootCmd.AddCommand(saleCmd)
	saleCmd.AddCommand(saleRecordCmd)
	rootCmd.AddCommand(paymentCmd)
	paymentCmd.AddCommand(paymentRecordCmd)
	rootCmd.AddCommand(historyCmd)

	saleRecordCmd.Flags().StringP("method", "m", "Cash", "payment method: Cash, Mpesa or Credit")
	saleRecordCmd.Flags().String("ref", "", "Mpesa counterparty reference")
	historyCmd.Flags().Int64("customer", 0, "only show this customer's records")
}

var saleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Record sales",
}

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Record payments",
}

// ─── sale record ────────────────────────────────────────────────────────────

var saleRecordCmd = &cobra.Command{
	Use:   "record CUSTOMER_ID AMOUNT",
	Short: "Record a sale; Credit sales add to the customer's balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		amount, err := domain.ParseAmount(args[1])
		if err != nil {
			return err
		}
		methodFlag, _ := cmd.Flags().GetString("method")
		method, err := domain.ParsePaymentMethod(methodFlag)
		if err != nil {
			return err
		}
		ref, _ := cmd.Flags().GetString("ref")

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		rec, err := d.Ledger.RecordSale(cmd.Context(), id, amount, method, ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sale %d recorded: %s %s (%s)\n",
			rec.ID, domain.FormatMoney(rec.Amount), rec.PaymentMethod, rec.Status)
		return nil
	},
}

// ─── payment record ─────────────────────────────────────────────────────────

var paymentRecordCmd = &cobra.Command{
	Use:   "record CUSTOMER_ID AMOUNT",
	Short: "Record a payment against a customer's balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		amount, err := domain.ParseAmount(args[1])
		if err != nil {
			return err
		}

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		receipt, err := d.Ledger.RecordPayment(cmd.Context(), id, amount)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Payment %d recorded: %s\n", receipt.Sale.ID, domain.FormatMoney(amount))
		fmt.Fprintf(out, "Balance now %s\n", domain.FormatMoney(receipt.BalanceAfter))
		if receipt.Unapplied.IsPositive() {
			fmt.Fprintf(out, "Overpaid by %s (not carried forward)\n", domain.FormatMoney(receipt.Unapplied))
		}
		return nil
	},
}

// ─── history ────────────────────────────────────────────────────────────────

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show sales and payments, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var f domain.HistoryFilter
		if id, _ := cmd.Flags().GetInt64("customer"); id != 0 {
			f = domain.ForCustomer(id)
		}

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTIME\tKIND\tCUSTOMER\tAMOUNT\tMETHOD\tSTATUS\tREF")
		n := 0
		for e, err := range d.Ledger.History(cmd.Context(), f) {
			if err != nil {
				return err
			}
			kind := "sale"
			if e.IsPayment() {
				kind = "payment"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Timestamp.Local().Format("2006-01-02 15:04"), kind, e.CustomerName,
				domain.FormatMoney(e.Amount), e.PaymentMethod, e.Status, e.CounterpartyReference)
			n++
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No records.")
			return nil
		}
		return w.Flush()
	},
}

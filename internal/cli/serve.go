package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "listen port (overrides [api].port)")
	serveCmd.Flags().String("host", "", "listen host (overrides [api].host)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			d.Config.API.Port = port
		}
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			d.Config.API.Host = host
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return d.Run(ctx)
	},
}

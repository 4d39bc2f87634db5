package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP backend",
	Long:  `Serve the codeclip JSON API used by the web and remote terminal front ends.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			return err
		}
		noTokens, err := cmd.Flags().GetBool("no-tokens")
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(newService(logger, !noTokens), logger)
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			logger.Error("Server stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", envOr("CODECLIP_ADDR", ":5000"), "listen address (env CODECLIP_ADDR)")
	serveCmd.Flags().Bool("no-tokens", false, "do not count tokens in process results")
	RootCmd.AddCommand(serveCmd)
}

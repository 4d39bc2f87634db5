package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/client"
	"github.com/Alioninja/codeclip/internal/orchestrator"
	"github.com/Alioninja/codeclip/internal/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [path]",
	Short: "Open the terminal UI",
	Long: `Open the terminal UI on path, or prompt for a directory when no path is
given. With --server the UI talks to a running codeclip backend instead of
scanning in process.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func addTUIFlags(cmd *cobra.Command) {
	cmd.Flags().String("server", os.Getenv("CODECLIP_SERVER"), "base URL of a codeclip backend (env CODECLIP_SERVER)")
	cmd.Flags().Duration("poll", orchestrator.DefaultInterval, "progress polling interval")
}

func runTUI(cmd *cobra.Command, args []string) error {
	serverURL, err := cmd.Flags().GetString("server")
	if err != nil {
		return err
	}
	poll, err := cmd.Flags().GetDuration("poll")
	if err != nil {
		return err
	}
	var start string
	if len(args) == 1 {
		start = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	// The alternate screen owns the terminal; only log when the output
	// goes to a file.
	l := logger
	if os.Getenv("CODECLIP_LOG_FILE") == "" {
		l = zap.NewNop()
	}

	var backend ui.Backend
	if serverURL != "" {
		c := client.New(client.Config{BaseURL: serverURL})
		if err := c.Ping(ctx); err != nil {
			return fmt.Errorf("backend %s unreachable: %w", serverURL, err)
		}
		backend = c
	} else {
		backend = ui.Local(newService(l, true))
	}

	return ui.Run(ctx, ui.Config{
		Backend:      backend,
		Clipboard:    orchestrator.SystemClipboard{},
		Logger:       l,
		StartPath:    start,
		PollInterval: poll,
	})
}

func init() {
	addTUIFlags(RootCmd)
	addTUIFlags(tuiCmd)
	RootCmd.AddCommand(tuiCmd)
}

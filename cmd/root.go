package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/process"
	"github.com/Alioninja/codeclip/internal/service"
)

var logger = zap.NewNop()

// RootCmd is the base command when called without any subcommands. It
// starts the terminal UI.
var RootCmd = &cobra.Command{
	Use:   "codeclip [path]",
	Short: "codeclip copies a selection of a codebase to the clipboard",
	Long: `codeclip scans a project directory, lets you pick files and file types
in a tri-state tree, and copies the directory structure plus the selected
file contents to the clipboard as one prompt-ready text.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

// Execute runs the root command with l as the application logger.
func Execute(l *zap.Logger) error {
	if l != nil {
		logger = l
	}
	return RootCmd.Execute()
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// newService builds the in-process backend. Token counting is best effort:
// the encoding may need a download the first time.
func newService(l *zap.Logger, tokens bool) *service.Service {
	opts := []service.Option{service.WithLogger(l)}
	if tokens {
		tc, err := process.NewTiktoken(envOr("CODECLIP_TOKEN_ENCODING", process.DefaultEncoding))
		if err != nil {
			l.Warn("Token counting disabled", zap.Error(err))
		} else {
			opts = append(opts, service.WithTokenCounter(tc))
		}
	}
	return service.New(opts...)
}

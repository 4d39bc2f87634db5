package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/orchestrator"
	"github.com/Alioninja/codeclip/internal/selection"
)

var packCmd = &cobra.Command{
	Use:   "pack [dir]",
	Short: "Combine a directory without the UI",
	Long: `Scan dir (default ".") and combine every file, or only the files with the
given extensions, then copy the result to the clipboard. With --out the
result is also written to a file; with --no-clipboard and no --out it goes
to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exts, err := cmd.Flags().GetStringSlice("ext")
		if err != nil {
			return err
		}
		out, err := cmd.Flags().GetString("out")
		if err != nil {
			return err
		}
		noClipboard, err := cmd.Flags().GetBool("no-clipboard")
		if err != nil {
			return err
		}
		tokens, err := cmd.Flags().GetBool("tokens")
		if err != nil {
			return err
		}
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := newService(logger, tokens)
		project, err := svc.SelectDirectory(ctx, dir)
		if err != nil {
			return err
		}
		sel := selection.NewStore(project)
		if len(exts) > 0 {
			sel.DeselectAllExtensions()
			for _, ext := range exts {
				ext = normalizeExt(ext)
				if sel.HasExtension(ext) {
					continue
				}
				if !sel.ToggleExtension(ext) {
					logger.Warn("Extension not present in project", zap.String("extension", ext))
				}
			}
		}

		var clip orchestrator.Clipboard
		if !noClipboard {
			clip = orchestrator.SystemClipboard{}
		}
		orch := orchestrator.New(svc, clip, orchestrator.WithLogger(logger))
		if err := orch.Start(ctx, sel); err != nil {
			return err
		}
		snap, err := orch.Wait(ctx)
		if err != nil {
			_ = orch.Cancel()
		}
		orch.Drain()
		if err != nil {
			return err
		}

		switch snap.State {
		case orchestrator.Failed:
			return snap.Err
		case orchestrator.Cancelled:
			return errors.New("processing cancelled")
		}
		return writeResult(cmd, snap, out, noClipboard)
	},
}

func writeResult(cmd *cobra.Command, snap orchestrator.Snapshot, out string, noClipboard bool) error {
	res := snap.Result
	if out != "" {
		if err := os.WriteFile(out, []byte(res.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
	} else if noClipboard || snap.ClipboardErr != nil {
		fmt.Fprint(cmd.OutOrStdout(), res.Content)
	}

	summary := fmt.Sprintf("%d files, %s in %.2fs", res.FileCount, res.SizeDisplay, res.Duration)
	if res.TokenCount > 0 {
		summary += fmt.Sprintf(", ~%d tokens", res.TokenCount)
	}
	for _, e := range res.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), "skipped:", e)
	}
	switch {
	case snap.ClipboardErr != nil:
		fmt.Fprintf(cmd.ErrOrStderr(), "Processed %s; clipboard unavailable: %v\n", summary, snap.ClipboardErr)
	case !noClipboard:
		fmt.Fprintf(cmd.ErrOrStderr(), "Copied %s to clipboard\n", summary)
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "Processed %s\n", summary)
	}
	return nil
}

// normalizeExt accepts "go", ".go" and ".GO".
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func init() {
	packCmd.Flags().StringSliceP("ext", "e", nil, "file types to include, e.g. --ext go,md (default all)")
	packCmd.Flags().StringP("out", "o", "", "also write the result to this file")
	packCmd.Flags().Bool("no-clipboard", false, "do not copy to the clipboard")
	packCmd.Flags().Bool("tokens", false, "count tokens with tiktoken")
	RootCmd.AddCommand(packCmd)
}

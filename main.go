package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Alioninja/codeclip/cmd"
	"github.com/Alioninja/codeclip/internal/logging"
	"github.com/Alioninja/codeclip/internal/version"
)

func main() {
	logger, err := logging.Setup(logging.Config{
		Level:      os.Getenv("CODECLIP_LOG_LEVEL"),
		Format:     os.Getenv("CODECLIP_LOG_FORMAT"),
		OutputPath: os.Getenv("CODECLIP_LOG_FILE"),
	}, "codeclip", version.Version)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := cmd.Execute(logger); err != nil {
		logger.Debug("codeclip execution failed", zap.Error(err))
		syncLogger(logger)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	syncLogger(logger)
}

// syncLogger flushes the logger. Sync on a terminal or pipe returns EINVAL
// on some platforms, so only regular files and terminals are synced.
func syncLogger(logger *zap.Logger) {
	if term.IsTerminal(int(os.Stderr.Fd())) || isRegularFile(os.Stderr) {
		if syncErr := logger.Sync(); syncErr != nil {
			if !strings.Contains(strings.ToLower(syncErr.Error()), "invalid argument") {
				log.Printf("Logger sync failed: %v", syncErr)
			}
		}
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}

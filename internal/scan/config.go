// Package scan builds the folder tree and extension histogram of a project
// directory.
package scan

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Config controls which entries a scan visits and how large directories are
// truncated. JSON names match the config endpoints.
type Config struct {
	MaxFilesPerDirScan  int      `json:"MAX_FILES_PER_DIR_SCAN"`
	MaxInitialScanDepth int      `json:"MAX_INITIAL_SCAN_DEPTH"`
	LargeDirThreshold   int      `json:"LARGE_DIR_THRESHOLD"`
	MaxFilesToShowAll   int      `json:"MAX_FILES_TO_SHOW_ALL"`
	TreeShowFirstFiles  int      `json:"TREE_SHOW_FIRST_FILES"`
	TreeShowLastFiles   int      `json:"TREE_SHOW_LAST_FILES"`
	IgnoredDirs         []string `json:"IGNORED_DIRS"`
	IgnoredFiles        []string `json:"IGNORED_FILES"`
	IgnoredDirPrefixes  []string `json:"IGNORED_DIR_PREFIXES"`
	IgnoredFilePrefixes []string `json:"IGNORED_FILE_PREFIXES"`
	RespectGitignore    bool     `json:"RESPECT_GITIGNORE"`
}

// MaxTreeDepth is the depth below the project root at which BuildTree stops
// descending and marks folders for lazy loading.
const MaxTreeDepth = 3

// DefaultConfig returns the stock scan settings.
func DefaultConfig() Config {
	return Config{
		MaxFilesPerDirScan:  100,
		MaxInitialScanDepth: 2,
		LargeDirThreshold:   50,
		MaxFilesToShowAll:   25,
		TreeShowFirstFiles:  10,
		TreeShowLastFiles:   3,
		IgnoredDirs:         []string{"__pycache__", "venv", "env", "node_modules"},
		IgnoredFiles:        []string{},
		IgnoredDirPrefixes:  []string{".", "_"},
		IgnoredFilePrefixes: []string{"."},
		RespectGitignore:    true,
	}
}

var ErrInvalidConfig = errors.New("invalid scan config")

// Validate checks the numeric limits.
func (c Config) Validate() error {
	var errs []error
	positive := map[string]int{
		"MAX_FILES_PER_DIR_SCAN": c.MaxFilesPerDirScan,
		"MAX_FILES_TO_SHOW_ALL":  c.MaxFilesToShowAll,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	nonNegative := map[string]int{
		"MAX_INITIAL_SCAN_DEPTH": c.MaxInitialScanDepth,
		"LARGE_DIR_THRESHOLD":    c.LargeDirThreshold,
		"TREE_SHOW_FIRST_FILES":  c.TreeShowFirstFiles,
		"TREE_SHOW_LAST_FILES":   c.TreeShowLastFiles,
	}
	for name, v := range nonNegative {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	c.IgnoredDirs = slices.Clone(c.IgnoredDirs)
	c.IgnoredFiles = slices.Clone(c.IgnoredFiles)
	c.IgnoredDirPrefixes = slices.Clone(c.IgnoredDirPrefixes)
	c.IgnoredFilePrefixes = slices.Clone(c.IgnoredFilePrefixes)
	return c
}

// IgnoredDir reports whether a directory named name is skipped.
func (c Config) IgnoredDir(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	lower := strings.ToLower(name)
	for _, d := range c.IgnoredDirs {
		if strings.ToLower(d) == lower {
			return true
		}
	}
	return hasAnyPrefix(name, c.IgnoredDirPrefixes)
}

// IgnoredFile reports whether a file named name is skipped.
func (c Config) IgnoredFile(name string) bool {
	lower := strings.ToLower(name)
	for _, f := range c.IgnoredFiles {
		if strings.ToLower(f) == lower {
			return true
		}
	}
	return hasAnyPrefix(name, c.IgnoredFilePrefixes)
}

// PathIgnored reports whether any segment of a slash-separated path is an
// ignored directory name.
func (c Config) PathIgnored(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		for _, d := range c.IgnoredDirs {
			if strings.ToLower(d) == lower {
				return true
			}
		}
	}
	return false
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

package service

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/protocol"
)

const maxFoundPaths = 10

// CurrentDirectory returns the working directory of the process.
func (s *Service) CurrentDirectory() (protocol.CurrentDirectory, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return protocol.CurrentDirectory{}, fmt.Errorf("get working directory: %w", err)
	}
	return protocol.CurrentDirectory{Name: filepath.Base(cwd), Path: cwd}, nil
}

// Browse lists the visible subdirectories of path, sorted by name without
// regard to case. An empty path browses the working directory.
func (s *Service) Browse(path string) (*protocol.BrowseResponse, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		path = cwd
	}
	path = filepath.Clean(path)
	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDirectory, path)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := s.Config()
	resp := &protocol.BrowseResponse{CurrentPath: path, Directories: []protocol.DirectoryEntry{}}
	for _, e := range entries {
		if !e.IsDir() || cfg.IgnoredDir(e.Name()) {
			continue
		}
		resp.Directories = append(resp.Directories, protocol.DirectoryEntry{
			Name:  e.Name(),
			Path:  filepath.Join(path, e.Name()),
			IsDir: true,
		})
	}
	slices.SortFunc(resp.Directories, func(a, b protocol.DirectoryEntry) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	if parent := filepath.Dir(path); parent != path {
		resp.ParentPath = &parent
	}
	return resp, nil
}

// BrowseNative would open the host's folder picker. A terminal host has
// none, so it always reports failure and clients fall back to Browse.
func (s *Service) BrowseNative() protocol.NativeBrowseResponse {
	return protocol.NativeBrowseResponse{Error: "native directory picker is not available on this host"}
}

// FindDirectory looks for directories called name directly inside the
// common locations, returning at most ten distinct paths.
func (s *Service) FindDirectory(name string) (*protocol.FindResponse, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	var found []string
	for _, parent := range s.searchRoots() {
		target := filepath.Join(parent, name)
		if fi, err := os.Stat(target); err == nil && fi.IsDir() && !slices.Contains(found, target) {
			found = append(found, target)
		}
	}
	if len(found) > maxFoundPaths {
		found = found[:maxFoundPaths]
	}
	s.logger.Debug("Find directory", zap.String("name", name), zap.Int("found", len(found)))
	return &protocol.FindResponse{Success: true, FoundPaths: nonNil(found), DirectoryName: name}, nil
}

// CommonDirectories lists the usual starting points for browsing that exist
// and can be read.
func (s *Service) CommonDirectories() protocol.CommonDirectories {
	var dirs []string
	for _, d := range commonDirectories() {
		if _, err := os.ReadDir(d); err == nil && !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	return protocol.CommonDirectories{Success: true, Directories: nonNil(dirs)}
}

// HomeDirectories lists quick-access folders: the working directory first,
// then the home directory and its Desktop, Documents and Downloads folders
// when they exist.
func (s *Service) HomeDirectories() []protocol.DirectoryShortcut {
	dirs := []protocol.DirectoryShortcut{}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, protocol.DirectoryShortcut{
			Name: fmt.Sprintf("Current Directory (%s)", filepath.Base(cwd)),
			Path: cwd,
		})
	}
	home, err := os.UserHomeDir()
	if err != nil {
		s.logger.Debug("No home directory", zap.Error(err))
		return dirs
	}
	for _, d := range []string{
		home,
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Downloads"),
	} {
		if fi, err := os.Stat(d); err == nil && fi.IsDir() {
			dirs = append(dirs, protocol.DirectoryShortcut{Name: filepath.Base(d), Path: d})
		}
	}
	return dirs
}

func (s *Service) searchRoots() []string {
	if s.roots != nil {
		return s.roots()
	}
	var roots []string
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, home,
			filepath.Join(home, "Documents"),
			filepath.Join(home, "Desktop"),
			filepath.Join(home, "Downloads"))
	}
	switch runtime.GOOS {
	case "windows":
		roots = append(roots, `C:\Projects`, `C:\`, `D:\`)
	case "darwin":
		roots = append(roots, "/opt", "/usr/local", "/Applications")
	default:
		roots = append(roots, "/opt", "/usr/local", "/usr/share")
	}
	return roots
}

func commonDirectories() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home,
			filepath.Join(home, "Documents"),
			filepath.Join(home, "Desktop"),
			filepath.Join(home, "Downloads"))
	}
	switch runtime.GOOS {
	case "windows":
		dirs = append(dirs, `C:\`, `D:\`, `C:\Users`, `C:\Program Files`, `C:\Program Files (x86)`)
	case "darwin":
		dirs = append(dirs, "/Applications", "/Users", "/Volumes")
	default:
		dirs = append(dirs, "/home", "/opt", "/usr", "/var")
	}
	return dirs
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

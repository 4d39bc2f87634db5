// Package service implements the backend operations in process: directory
// browsing, project scanning, scan configuration and file processing. The
// HTTP server exposes it and the TUI can drive it directly.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/process"
	"github.com/Alioninja/codeclip/internal/protocol"
	"github.com/Alioninja/codeclip/internal/scan"
	"github.com/Alioninja/codeclip/internal/tree"
)

var (
	ErrEmptyPath        = errors.New("no directory path provided")
	ErrEmptyName        = errors.New("no directory name provided")
	ErrInvalidDirectory = errors.New("invalid directory path")
	ErrNoProject        = errors.New("no project directory selected")
)

// Service holds the selected project and the scan configuration.
type Service struct {
	logger *zap.Logger
	tokens process.TokenCounter
	openFS func(root string) billy.Filesystem
	roots  func() []string

	progress process.Progress

	mu      sync.Mutex
	cfg     scan.Config
	project *protocol.Project
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTokenCounter adds a token count to every process result.
func WithTokenCounter(tc process.TokenCounter) Option {
	return func(s *Service) { s.tokens = tc }
}

func WithConfig(cfg scan.Config) Option {
	return func(s *Service) { s.cfg = cfg.Clone() }
}

func New(opts ...Option) *Service {
	s := &Service{
		logger: zap.NewNop(),
		openFS: func(root string) billy.Filesystem { return osfs.New(root) },
		cfg:    scan.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectDirectory scans path and makes it the current project. The
// extension histogram also covers every extension present in the tree.
func (s *Service) SelectDirectory(ctx context.Context, path string) (*protocol.Project, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDirectory, err)
	}
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDirectory, path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, counts, err := s.scan(abs)
	if err != nil {
		return nil, err
	}

	p := &protocol.Project{
		Success:     true,
		ProjectName: filepath.Base(abs),
		Path:        abs,
		Tree:        root,
		Extensions:  counts,
	}
	s.mu.Lock()
	s.project = p
	s.mu.Unlock()

	files, folders := tree.Count(root)
	s.logger.Info("Selected project",
		zap.String("path", abs),
		zap.Int("files", files),
		zap.Int("folders", folders),
		zap.Int("extensions", len(counts)))
	return p, nil
}

// scan builds the tree and extension histogram of abs. A project that lies
// inside an ignored directory, such as a package under node_modules, is
// empty.
func (s *Service) scan(abs string) (*tree.Node, map[string]int, error) {
	cfg := s.Config()
	if cfg.PathIgnored(filepath.ToSlash(abs)) {
		s.logger.Info("Project is inside an ignored directory", zap.String("path", abs))
		return tree.New(), map[string]int{}, nil
	}
	scanner, err := scan.New(s.openFS(abs), cfg, s.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", abs, err)
	}
	s.logger.Debug("Scanning project", zap.String("path", abs))
	counts := scanner.ScanExtensions()
	root := scanner.BuildTree()
	scan.MergeTreeExtensions(counts, root)
	return root, counts, nil
}

// Project returns the current project, or nil.
func (s *Service) Project() *protocol.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

// Process combines the requested files of the current project.
func (s *Service) Process(ctx context.Context, req protocol.ProcessRequest) (*protocol.ProcessResponse, error) {
	s.mu.Lock()
	p, cfg := s.project, s.cfg.Clone()
	s.mu.Unlock()
	if p == nil {
		return nil, ErrNoProject
	}

	opts := []process.Option{
		process.WithConfig(cfg),
		process.WithLogger(s.logger),
		process.WithProgress(&s.progress),
	}
	if s.tokens != nil {
		opts = append(opts, process.WithTokenCounter(s.tokens))
	}
	resp, err := process.New(s.openFS(p.Path), p.Path, opts...).Run(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, e := range resp.Errors {
		s.logger.Warn("File skipped", zap.String("detail", e))
	}
	return resp, nil
}

// Progress reports the percentage done of the running process call.
func (s *Service) Progress(context.Context) (float64, error) {
	return s.progress.Value(), nil
}

// Config returns a copy of the scan configuration.
func (s *Service) Config() scan.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the scan configuration. It applies to the next
// SelectDirectory call.
func (s *Service) UpdateConfig(cfg scan.Config) (scan.Config, error) {
	if err := cfg.Validate(); err != nil {
		return scan.Config{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.Clone()
	return s.cfg.Clone(), nil
}

// ResetConfig restores the default scan configuration.
func (s *Service) ResetConfig() scan.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = scan.DefaultConfig()
	return s.cfg.Clone()
}

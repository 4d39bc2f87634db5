// Package process concatenates the selected files of a project into one
// prompt-ready text.
package process

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Alioninja/codeclip/internal/protocol"
	"github.com/Alioninja/codeclip/internal/scan"
	"github.com/Alioninja/codeclip/internal/tree"
)

var (
	ErrNoFiles         = errors.New("no files selected")
	ErrNoMatchingFiles = errors.New("no files match selected file types")
	ErrOutsideProject  = errors.New("path is outside the project directory")
	ErrBinaryFile      = errors.New("binary file skipped")
)

const contentsBanner = "==================== FILE CONTENTS ===================="

// Processor reads files of one project.
type Processor struct {
	fs       billy.Filesystem
	root     string
	cfg      scan.Config
	logger   *zap.Logger
	tokens   TokenCounter
	progress *Progress
	workers  int
}

type Option func(*Processor)

func WithConfig(cfg scan.Config) Option {
	return func(p *Processor) { p.cfg = cfg }
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithTokenCounter makes Run fill in TokenCount.
func WithTokenCounter(tc TokenCounter) Option {
	return func(p *Processor) { p.tokens = tc }
}

// WithProgress reports per-file progress to pr.
func WithProgress(pr *Progress) Option {
	return func(p *Processor) { p.progress = pr }
}

// WithConcurrency bounds the number of files read at once.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New returns a processor for the project at root. fs must be rooted at the
// same directory.
func New(fs billy.Filesystem, root string, opts ...Option) *Processor {
	p := &Processor{
		fs:       fs,
		root:     root,
		cfg:      scan.DefaultConfig(),
		logger:   zap.NewNop(),
		progress: &Progress{},
		workers:  8,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type fileResult struct {
	rel     string
	content string
	size    int64
	err     error
}

// Run builds the combined text for req. Files are filtered by
// req.SelectedExtensions with the same rule the selection engine uses; an
// empty extension list keeps every file. Per-file failures are reported in
// the response's Errors and do not fail the run.
func (p *Processor) Run(ctx context.Context, req protocol.ProcessRequest) (*protocol.ProcessResponse, error) {
	if len(req.SelectedFiles) == 0 {
		return nil, ErrNoFiles
	}
	files := FilterByExtension(req.SelectedFiles, req.SelectedExtensions)
	if len(files) == 0 {
		return nil, ErrNoMatchingFiles
	}

	start := time.Now()
	p.progress.reset()
	defer p.progress.reset()

	scanner, err := scan.New(p.fs, p.cfg, p.logger)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("PROJECT DIRECTORY STRUCTURE:\n")
	b.WriteString(scanner.TreeString(nil))
	b.WriteString("\n\n" + contentsBanner + "\n\n")

	results := make([]fileResult, len(files))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, abs := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.read(abs)
			p.progress.set(int(done.Add(1)), len(files))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &protocol.ProcessResponse{Success: true, Errors: []string{}}
	for i, r := range results {
		if r.err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("Error reading %s: %v", files[i], r.err))
			continue
		}
		fmt.Fprintf(&b, "FILE: %s\n```%s\n%s\n```\n\n", r.rel, Language(tree.Extension(r.rel)), r.content)
		resp.FileCount++
		resp.TotalSize += r.size
	}
	resp.Content = b.String()
	resp.SizeDisplay = FormatSize(resp.TotalSize)
	resp.Duration = time.Since(start).Seconds()
	if p.tokens != nil {
		resp.TokenCount = p.tokens.Count(resp.Content)
	}

	p.logger.Info("Processed files",
		zap.String("root", p.root),
		zap.Int("requested", len(req.SelectedFiles)),
		zap.Int("processed", resp.FileCount),
		zap.Int("errors", len(resp.Errors)),
		zap.String("size", resp.SizeDisplay),
		zap.Float64("duration", resp.Duration))
	return resp, nil
}

func (p *Processor) read(abs string) fileResult {
	rel, err := p.relative(abs)
	if err != nil {
		return fileResult{err: err}
	}
	data, err := util.ReadFile(p.fs, p.fs.Join(strings.Split(rel, "/")...))
	if err != nil {
		return fileResult{rel: rel, err: err}
	}
	if looksBinary(data) {
		return fileResult{rel: rel, err: ErrBinaryFile}
	}
	content := strings.ToValidUTF8(string(data), "")
	return fileResult{rel: rel, content: content, size: int64(len(content))}
}

// relative maps an absolute request path onto a slash-separated path below
// the project root.
func (p *Processor) relative(abs string) (string, error) {
	rel, err := filepath.Rel(p.root, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutsideProject, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) {
		return "", ErrOutsideProject
	}
	return rel, nil
}

// FilterByExtension keeps the paths whose extension is in exts. An empty
// exts keeps everything.
func FilterByExtension(paths, exts []string) []string {
	if len(exts) == 0 {
		return paths
	}
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[e] = true
	}
	var out []string
	for _, path := range paths {
		if allowed[tree.Extension(path)] {
			out = append(out, path)
		}
	}
	return out
}

// FormatSize renders a byte count as MB with two decimals from 1 MB up and
// as KB with one decimal below.
func FormatSize(n int64) string {
	kb := float64(n) / 1024
	if mb := kb / 1024; mb >= 1 {
		return fmt.Sprintf("%.2f MB", mb)
	}
	return fmt.Sprintf("%.1f KB", kb)
}

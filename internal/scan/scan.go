package scan

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/tree"
)

// Scanner walks one project directory.
type Scanner struct {
	fs      billy.Filesystem
	cfg     Config
	matcher gitignore.Matcher
	logger  *zap.Logger
}

// New returns a scanner over fs, which must be rooted at the project
// directory. When cfg.RespectGitignore is set the .gitignore files of the
// project are loaded up front.
func New(fs billy.Filesystem, cfg Config, logger *zap.Logger) (*Scanner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scanner{fs: fs, cfg: cfg, logger: logger}
	if cfg.RespectGitignore {
		patterns, err := gitignore.ReadPatterns(fs, nil)
		if err != nil {
			return nil, fmt.Errorf("read .gitignore patterns: %w", err)
		}
		if len(patterns) > 0 {
			logger.Debug("Loaded gitignore patterns", zap.Int("count", len(patterns)))
			s.matcher = gitignore.NewMatcher(patterns)
		}
	}
	return s, nil
}

// listing is the filtered content of one directory.
type listing struct {
	dirs      []string
	files     []string
	fileCount int
}

// list reads the directory at parts, dropping ignored entries. maxFiles
// bounds the number of files kept; fileCount still counts every visible
// file up to maxFiles+1.
func (s *Scanner) list(parts []string, maxFiles int) (listing, error) {
	var l listing
	infos, err := s.fs.ReadDir(s.fs.Join(parts...))
	if err != nil {
		return l, err
	}
	for _, fi := range infos {
		name := fi.Name()
		child := append(parts[:len(parts):len(parts)], name)
		switch {
		case fi.IsDir():
			if s.cfg.IgnoredDir(name) || s.gitignored(child, true) {
				continue
			}
			l.dirs = append(l.dirs, name)
		case fi.Mode().IsRegular():
			if s.cfg.IgnoredFile(name) || s.gitignored(child, false) {
				continue
			}
			if l.fileCount > maxFiles {
				continue
			}
			l.fileCount++
			if l.fileCount <= maxFiles {
				l.files = append(l.files, name)
			}
		}
	}
	sortFold(l.dirs)
	sortFold(l.files)
	return l, nil
}

func (s *Scanner) gitignored(parts []string, isDir bool) bool {
	return s.matcher != nil && s.matcher.Match(parts, isDir)
}

// BuildTree scans the project into a tree. Directories MaxTreeDepth levels
// below the root are returned empty with LazyLoad set; directories holding
// more than MaxFilesPerDirScan files keep the first ones and set IsLarge.
// Unreadable directories are returned empty.
func (s *Scanner) BuildTree() *tree.Node {
	return s.buildTree(nil, 0)
}

func (s *Scanner) buildTree(parts []string, depth int) *tree.Node {
	n := tree.New()
	if depth >= MaxTreeDepth {
		n.LazyLoad = true
		return n
	}
	l, err := s.list(parts, s.cfg.MaxFilesPerDirScan)
	if err != nil {
		s.logger.Warn("Failed to read directory", zap.String("dir", s.fs.Join(parts...)), zap.Error(err))
		return n
	}
	if len(l.files) > 0 {
		n.Files = l.files
	}
	n.IsLarge = l.fileCount > s.cfg.MaxFilesPerDirScan
	for _, d := range l.dirs {
		n.Subfolders[d] = s.buildTree(append(parts[:len(parts):len(parts)], d), depth+1)
	}
	return n
}

// ScanExtensions counts file extensions down to MaxInitialScanDepth.
// Directories with more than MaxFilesPerDirScan files are sampled (first
// and last halves) and the counts scaled up accordingly.
func (s *Scanner) ScanExtensions() map[string]int {
	counts := make(map[string]int)
	s.scanExtensions(nil, 0, counts)
	return counts
}

func (s *Scanner) scanExtensions(parts []string, depth int, counts map[string]int) {
	if depth > s.cfg.MaxInitialScanDepth {
		return
	}
	l, err := s.list(parts, math.MaxInt)
	if err != nil {
		s.logger.Debug("Skipping unreadable directory", zap.String("dir", s.fs.Join(parts...)), zap.Error(err))
		return
	}

	files, weight := l.files, 1
	if limit := s.cfg.MaxFilesPerDirScan; len(files) > limit {
		half := limit / 2
		sampled := append(files[:half:half], files[len(files)-half:]...)
		if len(sampled) > 0 {
			weight = len(files) / len(sampled)
		}
		files = sampled
	}
	for _, f := range files {
		if ext := tree.Extension(f); ext != "" {
			counts[ext] += weight
		}
	}
	for _, d := range l.dirs {
		s.scanExtensions(append(parts[:len(parts):len(parts)], d), depth+1, counts)
	}
}

// MergeTreeExtensions adds to counts every extension that occurs in root but
// was not seen by the extension scan, counted from the tree itself. This
// keeps every listed file selectable by extension.
func MergeTreeExtensions(counts map[string]int, root *tree.Node) map[string]int {
	seen := make(map[string]int)
	for p, isFile := range tree.Walk(root) {
		if !isFile {
			continue
		}
		if ext := tree.Extension(p); ext != "" {
			seen[ext]++
		}
	}
	for ext, n := range seen {
		if _, ok := counts[ext]; !ok {
			counts[ext] = n
		}
	}
	return counts
}

// SortedExtensions returns the keys of counts by descending count, ties by
// name.
func SortedExtensions(counts map[string]int) []string {
	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if counts[exts[i]] != counts[exts[j]] {
			return counts[exts[i]] > counts[exts[j]]
		}
		return exts[i] < exts[j]
	})
	return exts
}

func sortFold(names []string) {
	sort.Slice(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
}

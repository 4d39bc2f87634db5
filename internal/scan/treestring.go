package scan

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/tree"
)

const (
	pointerMid  = "├── "
	pointerLast = "└── "
	extendMid   = "│   "
	extendLast  = "    "
)

// TreeString renders the project as an indented tree, directories first.
// When allowed is non-nil only files whose extension is in it are listed.
// Directories with more than MaxFilesToShowAll files show the first
// TreeShowFirstFiles and last TreeShowLastFiles with an omission marker.
func (s *Scanner) TreeString(allowed map[string]bool) string {
	return strings.Join(s.treeLines(nil, "", allowed), "\n")
}

func (s *Scanner) treeLines(parts []string, prefix string, allowed map[string]bool) []string {
	l, err := s.list(parts, s.cfg.MaxFilesPerDirScan)
	if err != nil {
		s.logger.Debug("Skipping unreadable directory in tree", zap.String("dir", s.fs.Join(parts...)), zap.Error(err))
		return nil
	}
	tooMany := l.fileCount > s.cfg.MaxFilesPerDirScan

	files := l.files
	if allowed != nil {
		files = files[:0:0]
		for _, f := range l.files {
			if allowed[tree.Extension(f)] {
				files = append(files, f)
			}
		}
	}

	shown, omitted := files, 0
	first, last := s.cfg.TreeShowFirstFiles, s.cfg.TreeShowLastFiles
	if len(files) > s.cfg.MaxFilesToShowAll && first+last < len(files) {
		shown = append(files[:first:first], files[len(files)-last:]...)
		omitted = len(files) - len(shown)
	}

	var lines []string
	if tooMany && len(shown) > 0 {
		var msg string
		if omitted > 0 {
			msg = fmt.Sprintf("... (directory too large, showing first %d and last %d of %d+ files) ...", first, last, l.fileCount)
		} else {
			msg = fmt.Sprintf("... (directory too large, showing first %d of %d+ files) ...", len(shown), l.fileCount)
		}
		lines = append(lines, prefix+pointerMid+msg)
	}

	total := len(l.dirs) + len(shown)
	for i, d := range l.dirs {
		pointer, extend := pointers(i == total-1)
		lines = append(lines, prefix+pointer+d+"/")
		lines = append(lines, s.treeLines(append(parts[:len(parts):len(parts)], d), prefix+extend, allowed)...)
	}
	for j, f := range shown {
		if omitted > 0 && j == first {
			lines = append(lines, fmt.Sprintf("%s%s... (%d files omitted) ...", prefix, pointerMid, omitted))
		}
		pointer, _ := pointers(len(l.dirs)+j == total-1)
		lines = append(lines, prefix+pointer+f)
	}
	return lines
}

func pointers(last bool) (string, string) {
	if last {
		return pointerLast, extendLast
	}
	return pointerMid, extendMid
}

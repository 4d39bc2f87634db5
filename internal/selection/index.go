package selection

import (
	"github.com/Alioninja/codeclip/internal/tree"
)

// span is a half-open run [start, end) of file ordinals.
type span struct {
	start, end uint32
}

func (s span) len() uint64 { return uint64(s.end - s.start) }

// index assigns every file of a tree its ordinal in walk order and records,
// per folder, the run of ordinals holding that folder's recursive files.
// It depends only on the tree and is built once per load.
type index struct {
	paths   []string
	ordinal map[string]uint32
	folders map[string]span
}

func buildIndex(root *tree.Node) *index {
	idx := &index{
		ordinal: make(map[string]uint32),
		folders: make(map[string]span),
	}

	// Folders still being visited, outermost first.
	var open []string
	closeUntil := func(path string) {
		for len(open) > 0 {
			top := open[len(open)-1]
			if path != "" && tree.Contains(top, path) {
				return
			}
			s := idx.folders[top]
			s.end = uint32(len(idx.paths))
			idx.folders[top] = s
			open = open[:len(open)-1]
		}
	}

	for p, isFile := range tree.Walk(root) {
		if isFile {
			idx.ordinal[p] = uint32(len(idx.paths))
			idx.paths = append(idx.paths, p)
			continue
		}
		if p != "" {
			closeUntil(p)
		}
		idx.folders[p] = span{start: uint32(len(idx.paths))}
		open = append(open, p)
	}
	closeUntil("")
	return idx
}

// folderSpan returns the file run of folder, or an empty span when the
// folder does not exist.
func (idx *index) folderSpan(folder string) span {
	return idx.folders[folder]
}

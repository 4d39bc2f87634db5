// Package tree holds the scanned directory model shared by the selection
// engine, the scanner and the processor.
package tree

import (
	"iter"
	"sort"
	"strings"
)

// Separator is the canonical in-model path separator, independent of the
// host OS.
const Separator = "/"

// Node is one directory level as returned by a directory scan.
type Node struct {
	Files      []string         `json:"files"`
	Subfolders map[string]*Node `json:"subfolders"`
	IsLarge    bool             `json:"is_large"`
	LazyLoad   bool             `json:"lazy_load,omitempty"`
}

// New returns an empty directory node.
func New() *Node {
	return &Node{Files: []string{}, Subfolders: map[string]*Node{}}
}

// Join appends name to a tree path. The root path is "".
func Join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + Separator + name
}

// FolderNames returns the subfolder names in walk order: case-insensitive,
// ties broken by the exact name so the order is total.
func (n *Node) FolderNames() []string {
	if n == nil || len(n.Subfolders) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.Subfolders))
	for name := range n.Subfolders {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
	return names
}

// Walk yields every folder and file below n, depth first. A folder is
// yielded (isFile false) before its own files, which come before its
// subfolders. The root itself is yielded first with the empty path.
//
// All files under a folder therefore form one contiguous run of the walk.
func Walk(n *Node) iter.Seq2[string, bool] {
	return func(yield func(path string, isFile bool) bool) {
		walk(n, "", yield)
	}
}

func walk(n *Node, prefix string, yield func(string, bool) bool) bool {
	if n == nil {
		return true
	}
	if !yield(prefix, false) {
		return false
	}
	for _, f := range n.Files {
		if !yield(Join(prefix, f), true) {
			return false
		}
	}
	for _, name := range n.FolderNames() {
		if !walk(n.Subfolders[name], Join(prefix, name), yield) {
			return false
		}
	}
	return true
}

// CollectFiles returns the path of every file under n, each prefixed with
// prefix, in walk order.
func CollectFiles(n *Node, prefix string) []string {
	var files []string
	for p, isFile := range Walk(n) {
		if isFile {
			files = append(files, Join(prefix, p))
		}
	}
	return files
}

// Contains reports whether path lies inside folder. Every path is inside
// the root folder "".
func Contains(folder, path string) bool {
	return folder == "" || strings.HasPrefix(path, folder+Separator)
}

// Extension returns the lower-cased, dot-prefixed suffix of the last path
// segment, or "" when the segment has no suffix. Both '/' and '\' count as
// segment separators so absolute host paths work too.
func Extension(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	i := strings.LastIndexByte(base, '.')
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i:])
}

// Count returns the number of files and folders below n, excluding n.
func Count(n *Node) (files, folders int) {
	for p, isFile := range Walk(n) {
		switch {
		case isFile:
			files++
		case p != "":
			folders++
		}
	}
	return files, folders
}

// Package selection keeps the tri-state file selection of a loaded project
// and projects it into a process request.
package selection

import (
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/Alioninja/codeclip/internal/protocol"
)

// Store holds the selected files and extensions of the loaded project.
// It is not safe for concurrent use; the UI loop owns it.
type Store struct {
	project *protocol.Project
	idx     *index
	files   *roaring.Bitmap
	exts    map[string]struct{}
}

// NewStore returns a store for p with every file and extension selected.
// A nil project yields an empty store on which every operation is a no-op.
func NewStore(p *protocol.Project) *Store {
	s := &Store{}
	s.Load(p)
	s.SelectAllFiles()
	s.SelectAllExtensions()
	return s
}

// Load replaces the project and clears both selections.
func (s *Store) Load(p *protocol.Project) {
	s.project = p
	s.files = roaring.New()
	s.exts = make(map[string]struct{})
	s.idx = nil
	if p != nil {
		s.idx = buildIndex(p.Tree)
	}
}

// Project returns the loaded project, or nil.
func (s *Store) Project() *protocol.Project { return s.project }

// Loaded reports whether a project is loaded.
func (s *Store) Loaded() bool { return s.project != nil && s.idx != nil }

// ToggleFile flips the membership of path and reports the new membership.
// Paths that are not files of the loaded tree are ignored.
func (s *Store) ToggleFile(path string) bool {
	if !s.Loaded() {
		return false
	}
	ord, ok := s.idx.ordinal[path]
	if !ok {
		return false
	}
	if s.files.CheckedAdd(ord) {
		return true
	}
	s.files.Remove(ord)
	return false
}

// ToggleExtension flips the membership of ext and reports the new
// membership. Extensions absent from the project histogram are ignored.
func (s *Store) ToggleExtension(ext string) bool {
	if !s.Loaded() {
		return false
	}
	if _, known := s.project.Extensions[ext]; !known {
		return false
	}
	if _, ok := s.exts[ext]; ok {
		delete(s.exts, ext)
		return false
	}
	s.exts[ext] = struct{}{}
	return true
}

// SelectAllFiles selects every file of the tree.
func (s *Store) SelectAllFiles() {
	if !s.Loaded() {
		return
	}
	s.files.Clear()
	s.files.AddRange(0, uint64(len(s.idx.paths)))
}

// DeselectAllFiles clears the file selection.
func (s *Store) DeselectAllFiles() {
	if !s.Loaded() {
		return
	}
	s.files.Clear()
}

// SelectAllExtensions selects every extension of the project histogram.
func (s *Store) SelectAllExtensions() {
	if !s.Loaded() {
		return
	}
	s.exts = make(map[string]struct{}, len(s.project.Extensions))
	for ext := range s.project.Extensions {
		s.exts[ext] = struct{}{}
	}
}

// DeselectAllExtensions clears the extension selection.
func (s *Store) DeselectAllExtensions() {
	if !s.Loaded() {
		return
	}
	s.exts = make(map[string]struct{})
}

// ToggleFolder selects (check) or deselects every file under folder. The
// root folder is "". Files outside the folder are untouched.
func (s *Store) ToggleFolder(folder string, check bool) {
	if !s.Loaded() {
		return
	}
	sp := s.idx.folderSpan(folder)
	if sp.len() == 0 {
		return
	}
	if check {
		s.files.AddRange(uint64(sp.start), uint64(sp.end))
	} else {
		s.files.RemoveRange(uint64(sp.start), uint64(sp.end))
	}
}

// HasFile reports whether path is selected.
func (s *Store) HasFile(path string) bool {
	if !s.Loaded() {
		return false
	}
	ord, ok := s.idx.ordinal[path]
	return ok && s.files.Contains(ord)
}

// HasExtension reports whether ext is selected.
func (s *Store) HasExtension(ext string) bool {
	_, ok := s.exts[ext]
	return ok
}

// SelectedFiles returns the selected paths in tree walk order.
func (s *Store) SelectedFiles() []string {
	if !s.Loaded() {
		return nil
	}
	out := make([]string, 0, s.files.GetCardinality())
	it := s.files.Iterator()
	for it.HasNext() {
		out = append(out, s.idx.paths[it.Next()])
	}
	return out
}

// SelectedExtensions returns the selected extensions, sorted.
func (s *Store) SelectedExtensions() []string {
	out := make([]string, 0, len(s.exts))
	for ext := range s.exts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// FileCount returns the number of selected files.
func (s *Store) FileCount() int {
	if s.files == nil {
		return 0
	}
	return int(s.files.GetCardinality())
}

// TotalFiles returns the number of files in the loaded tree.
func (s *Store) TotalFiles() int {
	if !s.Loaded() {
		return 0
	}
	return len(s.idx.paths)
}

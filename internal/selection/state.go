package selection

// FolderState is the derived tri-state of a folder checkbox.
type FolderState int

const (
	Unchecked FolderState = iota
	Checked
	Indeterminate
)

func (s FolderState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// FolderState computes the state of folder from the current file selection.
// A folder with no files in its subtree, or one that does not exist, is
// Unchecked.
func (s *Store) FolderState(folder string) FolderState {
	if !s.Loaded() {
		return Unchecked
	}
	sp := s.idx.folderSpan(folder)
	total := sp.len()
	if total == 0 {
		return Unchecked
	}

	// Rank(x) counts selected ordinals <= x.
	selected := s.files.Rank(sp.end - 1)
	if sp.start > 0 {
		selected -= s.files.Rank(sp.start - 1)
	}

	switch selected {
	case 0:
		return Unchecked
	case total:
		return Checked
	default:
		return Indeterminate
	}
}

// ClickFolder applies a checkbox click to folder: an unchecked folder gets
// all its files selected, a checked or indeterminate one gets them all
// deselected. It returns the resulting state.
func (s *Store) ClickFolder(folder string) FolderState {
	s.ToggleFolder(folder, s.FolderState(folder) == Unchecked)
	return s.FolderState(folder)
}

package selection

import (
	"errors"
	"sort"
	"strings"

	"github.com/Alioninja/codeclip/internal/protocol"
	"github.com/Alioninja/codeclip/internal/tree"
)

var (
	ErrEmptySelection       = errors.New("please select files to process")
	ErrNoExtensionsSelected = errors.New("please select file types to process")
	ErrNoMatchingFiles      = errors.New("no files match selected file types")
	ErrNoProject            = errors.New("no project directory selected")
)

// Request is the payload handed to the processing backend.
type Request struct {
	AbsolutePaths []string
	Extensions    []string
	// MatchedCount is the number of selected files whose extension is
	// selected, i.e. the number the backend will process.
	MatchedCount int
}

// Payload converts r into the wire request.
func (r Request) Payload() protocol.ProcessRequest {
	return protocol.ProcessRequest{
		SelectedFiles:      r.AbsolutePaths,
		SelectedExtensions: r.Extensions,
	}
}

// BuildProcessRequest projects a selection onto the process request for p.
// Only files whose extension is selected are resolved; the full extension
// list is sent as well so the backend applies the same filter.
func BuildProcessRequest(p *protocol.Project, files, extensions []string) (Request, error) {
	if p == nil {
		return Request{}, ErrNoProject
	}
	if len(files) == 0 {
		return Request{}, ErrEmptySelection
	}
	if len(extensions) == 0 {
		return Request{}, ErrNoExtensionsSelected
	}

	selected := make(map[string]struct{}, len(extensions))
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if _, dup := selected[ext]; dup {
			continue
		}
		selected[ext] = struct{}{}
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	req := Request{Extensions: exts}
	for _, f := range files {
		if _, ok := selected[tree.Extension(f)]; !ok {
			continue
		}
		req.MatchedCount++
		req.AbsolutePaths = append(req.AbsolutePaths, ResolvePath(p.Path, f))
	}
	if req.MatchedCount == 0 {
		return req, ErrNoMatchingFiles
	}
	return req, nil
}

// ResolvePath joins a canonical tree path onto the absolute project root,
// using the separator convention of the root.
func ResolvePath(root, rel string) string {
	sep := "/"
	if strings.Contains(root, `\`) {
		sep = `\`
	}
	rel = strings.NewReplacer("/", sep, `\`, sep).Replace(rel)
	return strings.TrimRight(root, sep) + sep + rel
}

// BuildRequest projects the store's current selection.
func (s *Store) BuildRequest() (Request, error) {
	if !s.Loaded() {
		return Request{}, ErrNoProject
	}
	return BuildProcessRequest(s.project, s.SelectedFiles(), s.SelectedExtensions())
}

// MatchedCount returns how many selected files have a selected extension.
func (s *Store) MatchedCount() int {
	n := 0
	for _, f := range s.SelectedFiles() {
		if s.HasExtension(tree.Extension(f)) {
			n++
		}
	}
	return n
}

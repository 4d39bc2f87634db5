// Package protocol defines the backend API request/response types. Field
// names follow the JSON contract used by the web front ends.
package protocol

import (
	"github.com/Alioninja/codeclip/internal/scan"
	"github.com/Alioninja/codeclip/internal/tree"
)

// Project is returned by POST /api/select-directory.
type Project struct {
	Success     bool           `json:"success"`
	ProjectName string         `json:"project_name"`
	Path        string         `json:"path"`
	Tree        *tree.Node     `json:"tree"`
	Extensions  map[string]int `json:"extensions"`
}

// PathRequest is the body of the browse and select endpoints.
type PathRequest struct {
	Path string `json:"path"`
}

// CurrentDirectory is returned by GET /api/get-current-directory.
type CurrentDirectory struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// DirectoryEntry is one subdirectory in a browse listing.
type DirectoryEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// BrowseResponse is returned by POST /api/browse-directory. ParentPath is
// nil at a filesystem root.
type BrowseResponse struct {
	CurrentPath string           `json:"current_path"`
	ParentPath  *string          `json:"parent_path"`
	Directories []DirectoryEntry `json:"directories"`
}

// NativeBrowseResponse is returned by POST /api/browse-native.
type NativeBrowseResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FindRequest is the body of POST /api/find-directory.
type FindRequest struct {
	Name string `json:"name"`
}

// FindResponse is returned by POST /api/find-directory.
type FindResponse struct {
	Success       bool     `json:"success"`
	FoundPaths    []string `json:"found_paths"`
	DirectoryName string   `json:"directory_name"`
}

// CommonDirectories is returned by GET /api/get-common-directories.
type CommonDirectories struct {
	Success     bool     `json:"success"`
	Directories []string `json:"directories"`
}

// DirectoryShortcut is one quick-access entry of
// GET /api/get-home-directories.
type DirectoryShortcut struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ProcessRequest is the body of POST /api/process.
type ProcessRequest struct {
	SelectedFiles      []string `json:"selected_files"`
	SelectedExtensions []string `json:"selected_extensions"`
}

// ProcessResponse is returned by POST /api/process.
type ProcessResponse struct {
	Success     bool     `json:"success"`
	Content     string   `json:"content"`
	FileCount   int      `json:"file_count"`
	TotalSize   int64    `json:"total_size"`
	SizeDisplay string   `json:"size_display"`
	Duration    float64  `json:"duration"`
	Errors      []string `json:"errors"`
	TokenCount  int      `json:"token_count,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// ProgressResponse is returned by GET /api/progress.
type ProgressResponse struct {
	Progress float64 `json:"progress"`
}

// ConfigRequest is the body of POST /api/update-config.
type ConfigRequest struct {
	Config scan.Config `json:"config"`
}

// ConfigResponse is returned by the get, update and reset config endpoints.
type ConfigResponse struct {
	Success bool         `json:"success"`
	Config  *scan.Config `json:"config,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

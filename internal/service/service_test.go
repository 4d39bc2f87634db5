package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alioninja/codeclip/internal/process"
	"github.com/Alioninja/codeclip/internal/protocol"
	"github.com/Alioninja/codeclip/internal/scan"
	"github.com/Alioninja/codeclip/internal/selection"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestSelectDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"readme.md":         "# r",
		"src/a.py":          "a",
		"src/b.py":          "b",
		"node_modules/x.js": "x",
		"a/b/c/d/deep.rs":   "d",
	})

	s := New()
	p, err := s.SelectDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.True(t, p.Success)
	assert.Equal(t, filepath.Base(dir), p.ProjectName)
	assert.Equal(t, dir, p.Path)
	assert.Equal(t, []string{"readme.md"}, p.Tree.Files)
	assert.Equal(t, []string{"a", "src"}, p.Tree.FolderNames())
	assert.Equal(t, map[string]int{".md": 1, ".py": 2}, p.Extensions)
	assert.Same(t, p, s.Project())
}

func TestSelectDirectoryInsideIgnoredDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"node_modules/left-pad/index.js":    "x",
		"node_modules/left-pad/lib/util.js": "y",
	})

	s := New()
	p, err := s.SelectDirectory(context.Background(), filepath.Join(dir, "node_modules", "left-pad"))
	require.NoError(t, err)
	assert.True(t, p.Success)
	assert.Equal(t, "left-pad", p.ProjectName)
	assert.Empty(t, p.Tree.Files)
	assert.Empty(t, p.Tree.Subfolders)
	assert.Empty(t, p.Extensions)
}

func TestSelectDirectoryErrors(t *testing.T) {
	s := New()
	_, err := s.SelectDirectory(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = s.SelectDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrInvalidDirectory)
	assert.Nil(t, s.Project())
}

func TestProcessRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"readme.md": "# r",
		"src/a.py":  "print(1)",
		"src/b.py":  "print(2)",
	})
	s := New()
	_, err := s.Process(context.Background(), protocol.ProcessRequest{SelectedFiles: []string{"x"}})
	assert.ErrorIs(t, err, ErrNoProject)

	p, err := s.SelectDirectory(context.Background(), dir)
	require.NoError(t, err)

	store := selection.NewStore(p)
	store.ToggleExtension(".md")
	req, err := store.BuildRequest()
	require.NoError(t, err)

	resp, err := s.Process(context.Background(), req.Payload())
	require.NoError(t, err)
	assert.Equal(t, req.MatchedCount, resp.FileCount)
	assert.Contains(t, resp.Content, "FILE: src/a.py\n```python\nprint(1)\n```")
	assert.NotContains(t, resp.Content, "FILE: readme.md")

	progress, err := s.Progress(context.Background())
	require.NoError(t, err)
	assert.Zero(t, progress)
}

func TestProcessUnfilteredRequestMatchesClientCount(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.go": "package a", "b.txt": "b", "Makefile": "all:"})
	s := New()
	p, err := s.SelectDirectory(context.Background(), dir)
	require.NoError(t, err)

	store := selection.NewStore(p)
	store.ToggleExtension(".txt")
	files := store.SelectedFiles()
	abs := make([]string, len(files))
	for i, f := range files {
		abs[i] = selection.ResolvePath(p.Path, f)
	}

	resp, err := s.Process(context.Background(), protocol.ProcessRequest{
		SelectedFiles:      abs,
		SelectedExtensions: store.SelectedExtensions(),
	})
	require.NoError(t, err)
	assert.Equal(t, store.MatchedCount(), resp.FileCount)
}

type fixedCounter int

func (c fixedCounter) Count(string) int { return int(c) }

func TestProcessTokenCount(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.go": "package a"})
	s := New(WithTokenCounter(fixedCounter(42)))
	_, err := s.SelectDirectory(context.Background(), dir)
	require.NoError(t, err)

	resp, err := s.Process(context.Background(), protocol.ProcessRequest{
		SelectedFiles: []string{filepath.Join(dir, "a.go")},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, resp.TokenCount)
}

func TestProcessNoMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.go": "package a"})
	s := New()
	_, err := s.SelectDirectory(context.Background(), dir)
	require.NoError(t, err)

	_, err = s.Process(context.Background(), protocol.ProcessRequest{
		SelectedFiles:      []string{filepath.Join(dir, "a.go")},
		SelectedExtensions: []string{".rs"},
	})
	assert.ErrorIs(t, err, process.ErrNoMatchingFiles)
}

func TestConfigLifecycle(t *testing.T) {
	s := New()
	assert.Equal(t, scan.DefaultConfig(), s.Config())

	cfg := s.Config()
	cfg.MaxFilesPerDirScan = 7
	cfg.IgnoredDirs = append(cfg.IgnoredDirs, "vendor")
	got, err := s.UpdateConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 7, got.MaxFilesPerDirScan)
	assert.Contains(t, s.Config().IgnoredDirs, "vendor")

	cfg.MaxFilesToShowAll = 0
	_, err = s.UpdateConfig(cfg)
	assert.ErrorIs(t, err, scan.ErrInvalidConfig)
	assert.Equal(t, 25, s.Config().MaxFilesToShowAll)

	assert.Equal(t, scan.DefaultConfig(), s.ResetConfig())
	assert.Equal(t, scan.DefaultConfig(), s.Config())
}

func TestConfigAppliesToNextScan(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"vendor/v.go": "v", "main.go": "m"})
	cfg := scan.DefaultConfig()
	cfg.IgnoredDirs = []string{"vendor"}
	s := New(WithConfig(cfg))

	p, err := s.SelectDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, p.Tree.Subfolders)
}

func TestBrowse(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"beta", "Alpha", "node_modules", ".git", "gamma"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
	}
	writeTree(t, dir, map[string]string{"file.txt": "x"})

	resp, err := New().Browse(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, resp.CurrentPath)
	require.NotNil(t, resp.ParentPath)
	assert.Equal(t, filepath.Dir(dir), *resp.ParentPath)

	var names []string
	for _, d := range resp.Directories {
		names = append(names, d.Name)
		assert.True(t, d.IsDir)
		assert.Equal(t, filepath.Join(dir, d.Name), d.Path)
	}
	assert.Equal(t, []string{"Alpha", "beta", "gamma"}, names)

	_, err = New().Browse(filepath.Join(dir, "file.txt"))
	assert.ErrorIs(t, err, ErrInvalidDirectory)
}

func TestBrowseRootHasNoParent(t *testing.T) {
	root := filepath.VolumeName(os.TempDir()) + string(filepath.Separator)
	resp, err := New().Browse(root)
	require.NoError(t, err)
	assert.Nil(t, resp.ParentPath)
}

func TestFindDirectory(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(a, "proj"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(b, "proj"), 0o755))
	writeTree(t, b, map[string]string{"other": "not a dir"})

	s := New()
	s.roots = func() []string { return []string{a, b, a, filepath.Join(a, "missing")} }

	resp, err := s.FindDirectory("proj")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "proj", resp.DirectoryName)
	assert.Equal(t, []string{filepath.Join(a, "proj"), filepath.Join(b, "proj")}, resp.FoundPaths)

	resp, err = s.FindDirectory("other")
	require.NoError(t, err)
	assert.Equal(t, []string{}, resp.FoundPaths)

	_, err = s.FindDirectory("")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestBrowseNativeUnavailable(t *testing.T) {
	resp := New().BrowseNative()
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestHomeDirectories(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	require.NoError(t, os.Mkdir(filepath.Join(home, "Desktop"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "Documents"), []byte("not a dir"), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)

	dirs := New().HomeDirectories()
	assert.Equal(t, []protocol.DirectoryShortcut{
		{Name: "Current Directory (" + filepath.Base(cwd) + ")", Path: cwd},
		{Name: filepath.Base(home), Path: home},
		{Name: "Desktop", Path: filepath.Join(home, "Desktop")},
	}, dirs)
}

func TestCommonDirectoriesExist(t *testing.T) {
	resp := New().CommonDirectories()
	assert.True(t, resp.Success)
	for _, d := range resp.Directories {
		fi, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
	}
}

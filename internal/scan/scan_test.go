package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alioninja/codeclip/internal/tree"
)

func writeFiles(t *testing.T, fs billy.Filesystem, files ...string) {
	t.Helper()
	for _, f := range files {
		require.NoError(t, util.WriteFile(fs, f, []byte("x"), 0o644))
	}
}

func newScanner(t *testing.T, fs billy.Filesystem, cfg Config) *Scanner {
	t.Helper()
	s, err := New(fs, cfg, nil)
	require.NoError(t, err)
	return s
}

func TestBuildTreeIgnoresAndSorts(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs,
		"README.md", "app.py", "Zeta.txt",
		"src/main.py", "src/Util.py",
		"node_modules/pkg/index.js",
		".git/config", "_build/out.txt", ".env",
		"Docs/guide.md",
	)

	root := newScanner(t, fs, DefaultConfig()).BuildTree()

	assert.Equal(t, []string{"app.py", "README.md", "Zeta.txt"}, root.Files)
	assert.Equal(t, []string{"Docs", "src"}, root.FolderNames())
	assert.Equal(t, []string{"main.py", "Util.py"}, root.Subfolders["src"].Files)
	assert.False(t, root.IsLarge)
}

func TestBuildTreeDepthLimit(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, "a/b/c/d/deep.go", "a/b/mid.go")

	root := newScanner(t, fs, DefaultConfig()).BuildTree()
	require.Contains(t, root.Subfolders, "a")
	b := root.Subfolders["a"].Subfolders["b"]
	require.NotNil(t, b)
	assert.Equal(t, []string{"mid.go"}, b.Files)

	c := b.Subfolders["c"]
	require.NotNil(t, c)
	assert.True(t, c.LazyLoad)
	assert.Empty(t, c.Files)
	assert.Empty(t, c.Subfolders)
}

func TestBuildTreeLargeDirectory(t *testing.T) {
	fs := memfs.New()
	for i := 0; i < 12; i++ {
		writeFiles(t, fs, fmt.Sprintf("big/f%02d.txt", i))
	}
	cfg := DefaultConfig()
	cfg.MaxFilesPerDirScan = 5

	big := newScanner(t, fs, cfg).BuildTree().Subfolders["big"]
	require.NotNil(t, big)
	assert.True(t, big.IsLarge)
	assert.Len(t, big.Files, 5)
}

func TestGitignoreRespected(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, "main.go", "debug.log", "build/out.go", "pkg/keep.go", "pkg/gen.pb.go")
	require.NoError(t, util.WriteFile(fs, ".gitignore", []byte("*.log\nbuild/\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "pkg/.gitignore", []byte("*.pb.go\n"), 0o644))

	cfg := DefaultConfig()
	root := newScanner(t, fs, cfg).BuildTree()
	assert.Equal(t, []string{"main.go"}, root.Files)
	assert.Equal(t, []string{"pkg"}, root.FolderNames())
	assert.Equal(t, []string{"keep.go"}, root.Subfolders["pkg"].Files)

	cfg.RespectGitignore = false
	root = newScanner(t, fs, cfg).BuildTree()
	assert.Equal(t, []string{"debug.log", "main.go"}, root.Files)
	assert.Equal(t, []string{"build", "pkg"}, root.FolderNames())
}

func TestScanExtensions(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, "a.GO", "b.go", "Makefile", "docs/x.md", "l1/l2/l3/deep.rs", "l1/l2/ok.py")

	counts := newScanner(t, fs, DefaultConfig()).ScanExtensions()
	assert.Equal(t, map[string]int{".go": 2, ".md": 1, ".py": 1}, counts)
}

func TestScanExtensionsSampling(t *testing.T) {
	fs := memfs.New()
	for i := 0; i < 20; i++ {
		writeFiles(t, fs, fmt.Sprintf("f%02d.txt", i))
	}
	cfg := DefaultConfig()
	cfg.MaxFilesPerDirScan = 10

	counts := newScanner(t, fs, cfg).ScanExtensions()
	assert.Equal(t, 20, counts[".txt"])
}

func TestMergeTreeExtensions(t *testing.T) {
	root := &tree.Node{
		Files: []string{"a.go"},
		Subfolders: map[string]*tree.Node{
			"x": {Files: []string{"b.rs", "c.rs", "README"}},
		},
	}
	counts := MergeTreeExtensions(map[string]int{".go": 7}, root)
	assert.Equal(t, map[string]int{".go": 7, ".rs": 2}, counts)
}

func TestSortedExtensions(t *testing.T) {
	assert.Equal(t, []string{".py", ".go", ".md"}, SortedExtensions(map[string]int{".md": 1, ".go": 3, ".py": 5}))
	assert.Equal(t, []string{".a", ".b"}, SortedExtensions(map[string]int{".b": 1, ".a": 1}))
}

func TestTreeString(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, "main.go", "go.mod", "internal/x/x.go", "internal/y.go")

	got := newScanner(t, fs, DefaultConfig()).TreeString(nil)
	want := strings.Join([]string{
		"├── internal/",
		"│   ├── x/",
		"│   │   └── x.go",
		"│   └── y.go",
		"├── go.mod",
		"└── main.go",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestTreeStringFilterAndTruncation(t *testing.T) {
	fs := memfs.New()
	for i := 0; i < 8; i++ {
		writeFiles(t, fs, fmt.Sprintf("f%d.go", i))
	}
	writeFiles(t, fs, "notes.txt")

	cfg := DefaultConfig()
	cfg.MaxFilesToShowAll = 4
	cfg.TreeShowFirstFiles = 2
	cfg.TreeShowLastFiles = 1

	got := newScanner(t, fs, cfg).TreeString(map[string]bool{".go": true})
	want := strings.Join([]string{
		"├── f0.go",
		"├── f1.go",
		"├── ... (5 files omitted) ...",
		"└── f7.go",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestScannerOnDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cmd"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmd", "main.go"), []byte("package main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp.log"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\n"), 0o644))

	s := newScanner(t, osfs.New(dir), DefaultConfig())
	root := s.BuildTree()
	assert.Empty(t, root.Files)
	assert.Equal(t, []string{"main.go"}, root.Subfolders["cmd"].Files)
	assert.Equal(t, map[string]int{".go": 1}, s.ScanExtensions())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MaxFilesPerDirScan = 0
	cfg.TreeShowLastFiles = -1
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "MAX_FILES_PER_DIR_SCAN")
	assert.Contains(t, err.Error(), "TREE_SHOW_LAST_FILES")
}

func TestConfigIgnoreRules(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.IgnoredDir("Node_Modules"))
	assert.True(t, cfg.IgnoredDir(".venv"))
	assert.True(t, cfg.IgnoredDir("_private"))
	assert.False(t, cfg.IgnoredDir("."))
	assert.False(t, cfg.IgnoredDir("src"))

	assert.True(t, cfg.IgnoredFile(".DS_Store"))
	assert.False(t, cfg.IgnoredFile("main.go"))
	cfg.IgnoredFiles = []string{"Thumbs.db"}
	assert.True(t, cfg.IgnoredFile("thumbs.DB"))

	assert.True(t, cfg.PathIgnored("a/node_modules/b.js"))
	assert.False(t, cfg.PathIgnored("a/modules/b.js"))
}

func TestConfigClone(t *testing.T) {
	a := DefaultConfig()
	b := a.Clone()
	b.IgnoredDirs[0] = "changed"
	assert.Equal(t, "__pycache__", a.IgnoredDirs[0])
}

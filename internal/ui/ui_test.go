package ui

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alioninja/codeclip/internal/orchestrator"
	"github.com/Alioninja/codeclip/internal/protocol"
	"github.com/Alioninja/codeclip/internal/scan"
	"github.com/Alioninja/codeclip/internal/selection"
	"github.com/Alioninja/codeclip/internal/service"
	"github.com/Alioninja/codeclip/internal/tree"
)

type fakeBackend struct {
	project *protocol.Project
	loadErr error
	resp    *protocol.ProcessResponse
	calls   atomic.Int32

	mu      sync.Mutex
	lastReq protocol.ProcessRequest
	cfg     scan.Config
	loads   []string
}

func (b *fakeBackend) SelectDirectory(ctx context.Context, path string) (*protocol.Project, error) {
	b.mu.Lock()
	b.loads = append(b.loads, path)
	b.mu.Unlock()
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.project, nil
}

func (b *fakeBackend) Process(ctx context.Context, req protocol.ProcessRequest) (*protocol.ProcessResponse, error) {
	b.calls.Add(1)
	b.mu.Lock()
	b.lastReq = req
	b.mu.Unlock()
	return b.resp, nil
}

func (b *fakeBackend) Progress(ctx context.Context) (float64, error) {
	return 0, nil
}

func (b *fakeBackend) Config(ctx context.Context) (*scan.Config, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cfg := b.cfg.Clone()
	return &cfg, nil
}

func (b *fakeBackend) UpdateConfig(ctx context.Context, cfg scan.Config) (*scan.Config, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg = cfg.Clone()
	return &cfg, nil
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func testProject() *protocol.Project {
	return &protocol.Project{
		Success:     true,
		ProjectName: "proj",
		Path:        "/work/proj",
		Tree: &tree.Node{
			Files: []string{"readme.md"},
			Subfolders: map[string]*tree.Node{
				"src": {Files: []string{"a.py", "b.go"}, Subfolders: map[string]*tree.Node{}},
			},
		},
		Extensions: map[string]int{".md": 1, ".py": 1, ".go": 1},
	}
}

func newTestModel(t *testing.T, b *fakeBackend, clip orchestrator.Clipboard) *treeModel {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := newSession(ctx, Config{Backend: b, Clipboard: clip, PollInterval: time.Millisecond})
	t.Cleanup(func() {
		cancel()
		s.orch.Drain()
	})
	return newTreeModel(s, b.project)
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+j":
		return tea.KeyMsg{Type: tea.KeyCtrlJ}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *treeModel, keys ...string) (tea.Model, tea.Cmd) {
	var (
		model tea.Model = m
		cmd   tea.Cmd
	)
	for _, k := range keys {
		model, cmd = model.Update(key(k))
	}
	return model, cmd
}

func TestTreeModelLayout(t *testing.T) {
	m := newTestModel(t, &fakeBackend{project: testProject()}, nil)

	require.Len(t, m.visible, 3, "the root starts expanded")
	assert.False(t, m.visible[1].expanded)
	require.Len(t, m.root.children, 2)
	assert.Equal(t, "src", m.root.children[0].name, "folders come before files")
	assert.Equal(t, "readme.md", m.root.children[1].path)
	assert.Equal(t, []string{".go", ".md", ".py"}, m.exts)
}

func TestTreeModelNavigation(t *testing.T) {
	m := newTestModel(t, &fakeBackend{project: testProject()}, nil)

	press(m, "down")
	assert.Equal(t, "src", m.current().path)

	press(m, "l")
	assert.True(t, m.current().expanded)
	assert.Len(t, m.visible, 5)

	press(m, "j")
	assert.Equal(t, "src/a.py", m.current().path)

	press(m, "h")
	assert.Equal(t, "src", m.current().path, "left on a file moves to its parent")
	assert.Len(t, m.visible, 3)

	press(m, "k", "k")
	assert.Equal(t, 0, m.cursor)
}

func TestTreeModelFolderToggle(t *testing.T) {
	m := newTestModel(t, &fakeBackend{project: testProject()}, nil)
	require.Equal(t, 3, m.store.FileCount())

	press(m, "down", " ")
	assert.Equal(t, selection.Unchecked, m.store.FolderState("src"))
	assert.Equal(t, selection.Indeterminate, m.store.FolderState(""))

	press(m, "l", "j", " ")
	assert.True(t, m.store.HasFile("src/a.py"))
	assert.Equal(t, selection.Indeterminate, m.store.FolderState("src"))

	view := m.View()
	assert.Contains(t, view, "[-]   ▾ src/")
	assert.Contains(t, view, "Selected: 2 of 3 files")
}

func TestTreeModelSelectAll(t *testing.T) {
	m := newTestModel(t, &fakeBackend{project: testProject()}, nil)

	press(m, "a")
	assert.Equal(t, 0, m.store.FileCount(), "a deselects when anything is selected")

	press(m, "a")
	assert.Equal(t, 3, m.store.FileCount())

	press(m, "A")
	assert.Empty(t, m.store.SelectedExtensions())
	press(m, "A")
	assert.Len(t, m.store.SelectedExtensions(), 3)
}

func TestTreeModelExtensionPanel(t *testing.T) {
	m := newTestModel(t, &fakeBackend{project: testProject()}, nil)

	press(m, "e")
	assert.Equal(t, extensionsPanel, m.focus)

	press(m, "down", " ")
	assert.False(t, m.store.HasExtension(".md"))
	assert.Equal(t, 2, m.store.MatchedCount())
	assert.Equal(t, 0, m.cursor, "tree cursor stays put while the panel has focus")

	press(m, "e")
	assert.Equal(t, filesPanel, m.focus)
}

func TestTreeModelValidationSkipsBackend(t *testing.T) {
	b := &fakeBackend{project: testProject()}
	m := newTestModel(t, b, nil)

	press(m, "a")
	_, cmd := press(m, "g")
	assert.Nil(t, cmd)
	assert.Equal(t, selection.ErrEmptySelection.Error(), m.errMsg)
	assert.Equal(t, orchestrator.Idle, m.snap.State)

	press(m, "a", "A")
	press(m, "g")
	assert.Equal(t, selection.ErrNoExtensionsSelected.Error(), m.errMsg)
	assert.Zero(t, b.calls.Load())
}

func TestTreeModelProcess(t *testing.T) {
	b := &fakeBackend{
		project: testProject(),
		resp: &protocol.ProcessResponse{
			Success:     true,
			Content:     "digest",
			FileCount:   2,
			SizeDisplay: "0.1 KB",
			Duration:    0.25,
			Errors:      []string{},
		},
	}
	clip := &fakeClipboard{}
	m := newTestModel(t, b, clip)

	press(m, "e", "down", " ")
	_, cmd := press(m, "ctrl+j")
	require.NotNil(t, cmd)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := m.s.orch.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, orchestrator.Completed, snap.State)

	model, _ := m.Update(snapshotMsg{})
	m = model.(*treeModel)
	assert.Equal(t, "Copied 2 files, 0.1 KB in 0.25s to clipboard", m.status)
	assert.Equal(t, "digest", clip.text)
	require.NotNil(t, m.result)

	b.mu.Lock()
	assert.ElementsMatch(t, []string{"/work/proj/src/a.py", "/work/proj/src/b.go"}, b.lastReq.SelectedFiles)
	assert.Equal(t, []string{".go", ".py"}, b.lastReq.SelectedExtensions)
	b.mu.Unlock()

	press(m, "p")
	assert.True(t, m.previewing)
	press(m, "esc")
	assert.False(t, m.previewing)
}

func TestTreeModelFailure(t *testing.T) {
	b := &fakeBackend{project: testProject(), resp: &protocol.ProcessResponse{Error: "disk on fire"}}
	m := newTestModel(t, b, nil)

	press(m, "g")
	_, err := m.s.orch.Wait(context.Background())
	require.NoError(t, err)
	m.Update(snapshotMsg{})
	assert.Contains(t, m.errMsg, "disk on fire")
	assert.Nil(t, m.result)

	press(m, "p")
	assert.False(t, m.previewing)
	assert.Equal(t, errNoResult.Error(), m.errMsg)
}

func TestTreeModelCancelWhenIdle(t *testing.T) {
	m := newTestModel(t, &fakeBackend{project: testProject()}, nil)
	press(m, "c")
	assert.Equal(t, orchestrator.ErrNotRunning.Error(), m.errMsg)
}

func TestTreeModelReload(t *testing.T) {
	b := &fakeBackend{project: testProject()}
	m := newTestModel(t, b, nil)

	press(m, "down")
	_, cmd := press(m, "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, "/work/proj/src", m.loading)

	next, _ := m.Update(projectLoadedMsg{project: testProject()})
	assert.IsType(t, &treeModel{}, next)
	assert.NotSame(t, m, next)

	m.Update(loadFailedMsg{path: "/gone", err: errors.New("no such directory")})
	assert.Contains(t, m.errMsg, "cannot open /gone")
	assert.Empty(t, m.loading)
}

func TestTreeModelToggleGitignore(t *testing.T) {
	b := &fakeBackend{project: testProject(), cfg: scan.DefaultConfig()}
	m := newTestModel(t, b, nil)
	require.True(t, b.cfg.RespectGitignore)

	_, cmd := press(m, "i")
	require.NotNil(t, cmd)
	assert.Equal(t, "/work/proj", m.loading)

	msg := m.s.toggleGitignore(m.project.Path)()
	require.IsType(t, projectLoadedMsg{}, msg)
	assert.False(t, b.cfg.RespectGitignore)
	assert.Equal(t, []string{"/work/proj"}, b.loads)

	m.s.toggleGitignore(m.project.Path)()
	assert.True(t, b.cfg.RespectGitignore)
}

func TestLocalBackendConfig(t *testing.T) {
	lb := Local(service.New())
	ctx := context.Background()

	cfg, err := lb.Config(ctx)
	require.NoError(t, err)
	require.True(t, cfg.RespectGitignore)

	cfg.RespectGitignore = false
	_, err = lb.UpdateConfig(ctx, *cfg)
	require.NoError(t, err)

	cfg, err = lb.Config(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.RespectGitignore)

	cfg.MaxFilesPerDirScan = -1
	_, err = lb.UpdateConfig(ctx, *cfg)
	assert.Error(t, err)
}

func TestPathPromptLoadsProject(t *testing.T) {
	b := &fakeBackend{project: testProject()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newSession(ctx, Config{Backend: b})

	p := newPathPrompt(s, "")
	p.ti.SetValue("/work/proj")
	_, cmd := p.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, "/work/proj", p.loading)

	msg := s.load(p.loading)()
	require.IsType(t, projectLoadedMsg{}, msg)

	next, cmd := p.Update(msg)
	require.IsType(t, &treeModel{}, next)
	assert.NotNil(t, cmd)
	assert.True(t, s.listening)
}

func TestPathPromptLoadError(t *testing.T) {
	b := &fakeBackend{loadErr: errors.New("invalid directory path")}
	s := newSession(context.Background(), Config{Backend: b})

	p := newPathPrompt(s, "/nope")
	require.NotNil(t, p.Init())

	next, _ := p.Update(s.load("/nope")())
	assert.Same(t, p, next)
	assert.Contains(t, p.View(), "invalid directory path")
}

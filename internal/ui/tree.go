package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/orchestrator"
	"github.com/Alioninja/codeclip/internal/protocol"
	"github.com/Alioninja/codeclip/internal/scan"
	"github.com/Alioninja/codeclip/internal/selection"
	"github.com/Alioninja/codeclip/internal/tree"
)

type panel int

const (
	filesPanel panel = iota
	extensionsPanel
)

type node struct {
	name     string
	path     string // tree path, "" for the root
	isDir    bool
	depth    int
	expanded bool
	parent   *node
	children []*node
	large    bool
	lazy     bool
}

// buildNode mirrors a scanned folder: subfolders first, then files.
func buildNode(tn *tree.Node, name, path string, depth int, parent *node) *node {
	n := &node{
		name:   name,
		path:   path,
		isDir:  true,
		depth:  depth,
		parent: parent,
		large:  tn.IsLarge,
		lazy:   tn.LazyLoad,
	}
	for _, sub := range tn.FolderNames() {
		n.children = append(n.children, buildNode(tn.Subfolders[sub], sub, tree.Join(path, sub), depth+1, n))
	}
	for _, f := range tn.Files {
		n.children = append(n.children, &node{name: f, path: tree.Join(path, f), depth: depth + 1, parent: n})
	}
	return n
}

func flattenVisible(n *node) []*node {
	var visible []*node
	visible = append(visible, n)
	if n.expanded {
		for _, child := range n.children {
			visible = append(visible, flattenVisible(child)...)
		}
	}
	return visible
}

type treeModel struct {
	s       *session
	project *protocol.Project
	store   *selection.Store

	root    *node
	visible []*node
	cursor  int

	exts      []string
	extCursor int
	focus     panel

	snap     orchestrator.Snapshot
	result   *protocol.ProcessResponse
	status   string
	errMsg   string
	loading  string
	spinner  spinner.Model
	progress progress.Model

	preview           viewport.Model
	previewing        bool
	textInput         textinput.Model
	inputtingFilename bool
	showHelp          bool
	width, height     int
}

func newTreeModel(s *session, p *protocol.Project) *treeModel {
	root := buildNode(p.Tree, p.ProjectName, "", 0, nil)
	root.expanded = true

	ti := textinput.New()
	ti.Placeholder = "digest.txt"
	ti.CharLimit = 1024
	ti.Width = 40

	m := &treeModel{
		s:         s,
		project:   p,
		store:     selection.NewStore(p),
		root:      root,
		exts:      scan.SortedExtensions(p.Extensions),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		preview:   viewport.New(80, 20),
		textInput: ti,
		snap:      s.orch.Snapshot(),
	}
	m.rebuildVisible()
	m.status = fmt.Sprintf("Loaded %s", p.Path)
	return m
}

func (m *treeModel) Init() tea.Cmd {
	return nil
}

// rebuildVisible regenerates the visible slice after expanding or
// collapsing a directory.
func (m *treeModel) rebuildVisible() {
	m.visible = flattenVisible(m.root)
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
}

func (m *treeModel) moveCursorTo(n *node) {
	for i, v := range m.visible {
		if v == n {
			m.cursor = i
			return
		}
	}
}

func (m *treeModel) current() *node {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

func (m *treeModel) running() bool {
	return m.snap.State.Running()
}

func (m *treeModel) setError(err error) {
	m.errMsg = err.Error()
	m.status = ""
}

func (m *treeModel) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.errMsg = ""
}

func (m *treeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.preview.Width = msg.Width
		m.preview.Height = max(msg.Height-2, 1)
		return m, nil
	case snapshotMsg:
		m.applySnapshot(m.s.orch.Snapshot())
		return m, m.s.listen()
	case spinner.TickMsg:
		if !m.running() && m.loading == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case projectLoadedMsg:
		t := newTreeModel(m.s, msg.project)
		return t, t.Init()
	case loadFailedMsg:
		m.loading = ""
		m.setError(fmt.Errorf("cannot open %s: %w", msg.path, msg.err))
		return m, nil
	}

	if m.inputtingFilename {
		return m.updateFilename(msg)
	}
	if m.previewing {
		return m.updatePreview(msg)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		if m.running() {
			_ = m.s.orch.Cancel()
		}
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "e", "tab":
		if m.focus == filesPanel {
			m.focus = extensionsPanel
		} else {
			m.focus = filesPanel
		}
	case "up", "k":
		m.moveUp()
	case "down", "j":
		m.moveDown()
	case "right", "l":
		if n := m.current(); m.focus == filesPanel && n != nil && n.isDir && !n.expanded {
			n.expanded = true
			m.rebuildVisible()
			m.moveCursorTo(n)
		}
	case "left", "h":
		if m.focus == filesPanel {
			m.collapse()
		}
	case " ":
		m.toggleCurrent()
	case "a":
		// Anything selected means deselect all.
		if m.store.FileCount() > 0 {
			m.store.DeselectAllFiles()
			m.setStatus("Deselected all files")
		} else {
			m.store.SelectAllFiles()
			m.setStatus("Selected all files")
		}
	case "A":
		if len(m.store.SelectedExtensions()) > 0 {
			m.store.DeselectAllExtensions()
			m.setStatus("Deselected all file types")
		} else {
			m.store.SelectAllExtensions()
			m.setStatus("Selected all file types")
		}
	case "ctrl+j", "g":
		return m, m.startProcessing()
	case "c":
		if err := m.s.orch.Cancel(); err != nil {
			m.setError(err)
		}
	case "p":
		if m.result == nil {
			m.setError(errNoResult)
			return m, nil
		}
		m.preview.SetContent(m.result.Content)
		m.preview.GotoTop()
		m.previewing = true
	case "o":
		if m.result == nil {
			m.setError(errNoResult)
			return m, nil
		}
		m.inputtingFilename = true
		m.textInput.Focus()
		return m, textinput.Blink
	case "enter":
		// Re-root the project at the folder under the cursor.
		if n := m.current(); m.focus == filesPanel && n != nil && n.isDir && n.path != "" {
			return m, m.reload(filepath.Join(m.project.Path, filepath.FromSlash(n.path)))
		}
	case "backspace":
		if parent := filepath.Dir(m.project.Path); parent != m.project.Path {
			return m, m.reload(parent)
		}
	case "r":
		return m, m.reload(m.project.Path)
	case "i":
		if m.running() {
			m.setError(errBusy)
			return m, nil
		}
		m.loading = m.project.Path
		m.setStatus("Toggling .gitignore rules and rescanning...")
		return m, tea.Batch(m.s.toggleGitignore(m.project.Path), m.spinner.Tick)
	}
	return m, nil
}

var (
	errNoResult = errors.New("nothing processed yet: press g to process")
	errBusy     = errors.New("processing in progress: press c to cancel first")
)

func (m *treeModel) moveUp() {
	if m.focus == extensionsPanel {
		if m.extCursor > 0 {
			m.extCursor--
		}
		return
	}
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *treeModel) moveDown() {
	if m.focus == extensionsPanel {
		if m.extCursor < len(m.exts)-1 {
			m.extCursor++
		}
		return
	}
	if m.cursor < len(m.visible)-1 {
		m.cursor++
	}
}

func (m *treeModel) collapse() {
	n := m.current()
	if n == nil {
		return
	}
	if n.isDir && n.expanded && n.parent != nil {
		n.expanded = false
		m.rebuildVisible()
		m.moveCursorTo(n)
	} else if n.parent != nil {
		parent := n.parent
		if parent.parent != nil {
			parent.expanded = false
		}
		m.rebuildVisible()
		m.moveCursorTo(parent)
	}
}

func (m *treeModel) toggleCurrent() {
	if m.focus == extensionsPanel {
		if m.extCursor < len(m.exts) {
			m.store.ToggleExtension(m.exts[m.extCursor])
		}
		return
	}
	n := m.current()
	if n == nil {
		return
	}
	if n.isDir {
		m.store.ClickFolder(n.path)
	} else {
		m.store.ToggleFile(n.path)
	}
}

func (m *treeModel) startProcessing() tea.Cmd {
	if err := m.s.orch.Start(m.s.ctx, m.store); err != nil {
		m.setError(err)
		return nil
	}
	m.result = nil
	m.applySnapshot(m.s.orch.Snapshot())
	return m.spinner.Tick
}

func (m *treeModel) reload(path string) tea.Cmd {
	if m.running() {
		m.setError(errBusy)
		return nil
	}
	m.loading = path
	m.setStatus("Scanning %s...", path)
	return tea.Batch(m.s.load(path), m.spinner.Tick)
}

func (m *treeModel) applySnapshot(snap orchestrator.Snapshot) {
	m.snap = snap
	switch snap.State {
	case orchestrator.Submitting, orchestrator.Polling:
		m.setStatus("Processing %d files...", snap.MatchedCount)
	case orchestrator.Completed:
		m.result = snap.Result
		r := snap.Result
		summary := fmt.Sprintf("%d files, %s in %.2fs", r.FileCount, r.SizeDisplay, r.Duration)
		if r.TokenCount > 0 {
			summary += fmt.Sprintf(", ~%d tokens", r.TokenCount)
		}
		if len(r.Errors) > 0 {
			summary += fmt.Sprintf(" (%d skipped)", len(r.Errors))
		}
		if snap.ClipboardErr != nil {
			m.errMsg = fmt.Sprintf("Processed %s but could not copy to clipboard: %v. Press p to preview or o to save.", summary, snap.ClipboardErr)
			m.status = ""
			return
		}
		m.setStatus("Copied %s to clipboard", summary)
	case orchestrator.Cancelled:
		m.setStatus("Processing cancelled")
	case orchestrator.Failed:
		m.setError(fmt.Errorf("processing failed: %w", snap.Err))
	}
}

func (m *treeModel) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q", "enter", "p":
			m.previewing = false
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m *treeModel) updateFilename(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			name := m.textInput.Value()
			if name == "" {
				name = m.textInput.Placeholder
			}
			m.inputtingFilename = false
			m.textInput.Blur()
			if err := os.WriteFile(name, []byte(m.result.Content), 0o644); err != nil {
				m.setError(fmt.Errorf("write %s: %w", name, err))
				return m, nil
			}
			m.s.logger.Info("Wrote output file", zap.String("path", name))
			m.setStatus("Wrote %s", name)
			return m, nil
		case tea.KeyEsc:
			m.inputtingFilename = false
			m.textInput.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *treeModel) View() string {
	if m.inputtingFilename {
		return fmt.Sprintf("Enter output filename:\n%s\n\n(esc to cancel)", m.textInput.View())
	}
	if m.previewing {
		return m.preview.View() + "\n" + dimStyle.Render("esc/q: back  ↑/↓: scroll")
	}
	if m.showHelp {
		return helpText
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.project.ProjectName) + " " + dimStyle.Render(m.project.Path) + "\n\n")

	filesBox, extBox := panelStyle, panelStyle
	if m.focus == filesPanel {
		filesBox = focusedPanel
	} else {
		extBox = focusedPanel
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		filesBox.Render(m.renderFiles()),
		extBox.Render(m.renderExtensions())))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Selected: %d of %d files | Matched: %d | File types: %d of %d\n",
		m.store.FileCount(), m.store.TotalFiles(), m.store.MatchedCount(),
		len(m.store.SelectedExtensions()), len(m.exts)))

	if m.running() {
		b.WriteString(m.spinner.View() + " " + m.progress.ViewAs(m.snap.Progress/100) + "\n")
	} else if m.loading != "" {
		b.WriteString(m.spinner.View() + " ")
	}
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg) + "\n")
	} else if m.status != "" {
		b.WriteString(successStyle.Render(m.status) + "\n")
	}
	b.WriteString(dimStyle.Render("\n[space] toggle | [a]ll files | [e] file types | [g]/ctrl+enter process | [c]ancel | [i] .gitignore | [p]review | [o]utput file | [q]uit | [?] help"))
	return b.String()
}

func (m *treeModel) renderFiles() string {
	var b strings.Builder
	for i, n := range m.visible {
		cursor := " "
		if m.focus == filesPanel && m.cursor == i {
			cursor = cursorStyle.Render(">")
		}

		var checked string
		label := n.name
		if n.isDir {
			switch m.store.FolderState(n.path) {
			case selection.Checked:
				checked = "x"
			case selection.Indeterminate:
				checked = "-"
			default:
				checked = " "
			}
			prefix := "▸ "
			if n.expanded {
				prefix = "▾ "
			}
			label = prefix + label + "/"
			if n.large {
				label += dimStyle.Render(" (large, truncated)")
			}
			if n.lazy {
				label += dimStyle.Render(" (not scanned, enter to open)")
			}
		} else {
			checked = " "
			if m.store.HasFile(n.path) {
				checked = "x"
			}
			label = "  " + label
			if !m.store.HasExtension(tree.Extension(n.path)) {
				label = dimStyle.Render(label)
			}
		}
		fmt.Fprintf(&b, "%s [%s] %s%s\n", cursor, checked, strings.Repeat("  ", n.depth), label)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *treeModel) renderExtensions() string {
	var b strings.Builder
	b.WriteString("File types\n")
	for i, ext := range m.exts {
		cursor := " "
		if m.focus == extensionsPanel && m.extCursor == i {
			cursor = cursorStyle.Render(">")
		}
		checked := " "
		if m.store.HasExtension(ext) {
			checked = "x"
		}
		fmt.Fprintf(&b, "%s [%s] %s %s\n", cursor, checked, ext, dimStyle.Render(fmt.Sprintf("(%d)", m.project.Extensions[ext])))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

const helpText = `
codeclip help:

Navigation:
  ↑/k: Up
  ↓/j: Down
  ←/h: Collapse directory / Go to parent
  →/l: Expand directory
  enter: Open the folder under the cursor as the project
  backspace: Open the parent directory as the project
  r: Rescan
  i: Toggle .gitignore rules and rescan

Selection:
  <space>: Toggle the file, folder or file type under the cursor
  a: Select or deselect all files
  e/tab: Switch between the file tree and the file types panel
  A: Select or deselect all file types

Actions:
  g, ctrl+enter: Process and copy to clipboard
  c: Cancel processing
  p: Preview the last result
  o: Write the last result to a file

Other:
  q: Quit
  ?: Toggle help (this screen)
`

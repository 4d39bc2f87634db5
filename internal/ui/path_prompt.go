package ui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// pathPrompt is the initial model that asks for the project directory. Once
// the backend has scanned it, it replaces itself with a *treeModel.
type pathPrompt struct {
	s       *session
	ti      textinput.Model
	spinner spinner.Model
	loading string
	errMsg  string
}

func newPathPrompt(s *session, start string) *pathPrompt {
	ti := textinput.New()
	ti.Placeholder = "." // default to current directory
	ti.Focus()
	ti.CharLimit = 2048
	ti.Width = 40
	ti.SetValue(start)
	p := &pathPrompt{s: s, ti: ti, spinner: spinner.New(spinner.WithSpinner(spinner.Dot))}
	if start != "" {
		p.loading = start
	}
	return p
}

func (p *pathPrompt) Init() tea.Cmd {
	if p.loading != "" {
		return tea.Batch(p.s.load(p.resolve(p.loading)), p.spinner.Tick)
	}
	return textinput.Blink
}

// resolve makes path absolute for the status and error messages.
func (p *pathPrompt) resolve(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func (p *pathPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case projectLoadedMsg:
		t := newTreeModel(p.s, msg.project)
		return t, tea.Batch(t.Init(), p.s.listenOnce())
	case loadFailedMsg:
		p.loading = ""
		p.errMsg = fmt.Sprintf("cannot open %s: %v", msg.path, msg.err)
		p.s.logger.Warn("Failed to load project", zap.String("path", msg.path), zap.Error(msg.err))
		return p, nil
	case spinner.TickMsg:
		if p.loading == "" {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return p, tea.Quit
		case tea.KeyEnter:
			if p.loading != "" {
				return p, nil
			}
			path := p.ti.Value()
			if path == "" {
				path = "."
			}
			p.loading = p.resolve(path)
			p.errMsg = ""
			return p, tea.Batch(p.s.load(p.loading), p.spinner.Tick)
		}
	}
	var cmd tea.Cmd
	p.ti, cmd = p.ti.Update(msg)
	return p, cmd
}

func (p *pathPrompt) View() string {
	prompt := titleStyle.Render("codeclip") + "\n\nEnter directory to process (Enter to confirm):\n" + p.ti.View()
	if p.loading != "" {
		prompt += "\n\n" + p.spinner.View() + " Scanning " + p.loading + "..."
	}
	if p.errMsg != "" {
		prompt += "\n\n" + errorStyle.Render(p.errMsg)
	}
	return prompt
}

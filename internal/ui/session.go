// Package ui is the terminal front end: a directory prompt followed by a
// tri-state file tree, an extension panel and the processing status.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/orchestrator"
	"github.com/Alioninja/codeclip/internal/protocol"
)

// Config wires the UI.
type Config struct {
	Backend   Backend
	Clipboard orchestrator.Clipboard
	Logger    *zap.Logger
	// StartPath, when set, is scanned right away instead of prompting.
	StartPath string
	// PollInterval overrides the progress polling period.
	PollInterval time.Duration
}

// session is shared by every model of one program run.
type session struct {
	ctx     context.Context
	backend Backend
	orch    *orchestrator.Orchestrator
	logger  *zap.Logger

	// notify coalesces orchestrator changes; the model re-reads the
	// snapshot whenever it fires.
	notify    chan struct{}
	listening bool
}

func newSession(ctx context.Context, cfg Config) *session {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &session{
		ctx:     ctx,
		backend: cfg.Backend,
		logger:  logger,
		notify:  make(chan struct{}, 1),
	}
	s.orch = orchestrator.New(cfg.Backend, cfg.Clipboard,
		orchestrator.WithLogger(logger),
		orchestrator.WithInterval(cfg.PollInterval),
		orchestrator.WithObserver(func(orchestrator.Snapshot) {
			select {
			case s.notify <- struct{}{}:
			default:
			}
		}))
	return s
}

type snapshotMsg struct{}

type projectLoadedMsg struct {
	project *protocol.Project
}

type loadFailedMsg struct {
	path string
	err  error
}

// listen returns the command waiting for the next orchestrator change.
func (s *session) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.notify:
			return snapshotMsg{}
		case <-s.ctx.Done():
			return nil
		}
	}
}

// listenOnce starts the listener unless one is already outstanding.
func (s *session) listenOnce() tea.Cmd {
	if s.listening {
		return nil
	}
	s.listening = true
	return s.listen()
}

// toggleGitignore flips the scan's .gitignore setting and rescans path.
func (s *session) toggleGitignore(path string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := s.backend.Config(s.ctx)
		if err != nil {
			return loadFailedMsg{path: path, err: err}
		}
		next := cfg.Clone()
		next.RespectGitignore = !next.RespectGitignore
		if _, err := s.backend.UpdateConfig(s.ctx, next); err != nil {
			return loadFailedMsg{path: path, err: err}
		}
		s.logger.Info("Toggled .gitignore rules", zap.Bool("respect", next.RespectGitignore))
		return s.load(path)()
	}
}

func (s *session) load(path string) tea.Cmd {
	return func() tea.Msg {
		p, err := s.backend.SelectDirectory(s.ctx, path)
		if err != nil {
			return loadFailedMsg{path: path, err: err}
		}
		return projectLoadedMsg{project: p}
	}
}

// New returns the initial model.
func New(ctx context.Context, cfg Config) tea.Model {
	return newPathPrompt(newSession(ctx, cfg), cfg.StartPath)
}

// Run starts the program and blocks until the user quits. A running
// process call is cancelled and waited for before Run returns.
func Run(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s := newSession(ctx, cfg)
	p := tea.NewProgram(newPathPrompt(s, cfg.StartPath), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	_ = s.orch.Cancel()
	cancel()
	s.orch.Drain()
	return err
}

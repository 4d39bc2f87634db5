package ui

import (
	"context"

	"github.com/Alioninja/codeclip/internal/orchestrator"
	"github.com/Alioninja/codeclip/internal/protocol"
	"github.com/Alioninja/codeclip/internal/scan"
	"github.com/Alioninja/codeclip/internal/service"
)

// Backend is what the UI needs from the backend: project scans, the scan
// configuration and processing. The HTTP client satisfies it; Local adapts
// the in-process service.
type Backend interface {
	orchestrator.Backend
	SelectDirectory(ctx context.Context, path string) (*protocol.Project, error)
	Config(ctx context.Context) (*scan.Config, error)
	UpdateConfig(ctx context.Context, cfg scan.Config) (*scan.Config, error)
}

// Local returns a Backend running in process on svc.
func Local(svc *service.Service) Backend {
	return localBackend{svc: svc}
}

type localBackend struct {
	svc *service.Service
}

func (b localBackend) SelectDirectory(ctx context.Context, path string) (*protocol.Project, error) {
	return b.svc.SelectDirectory(ctx, path)
}

func (b localBackend) Process(ctx context.Context, req protocol.ProcessRequest) (*protocol.ProcessResponse, error) {
	return b.svc.Process(ctx, req)
}

func (b localBackend) Progress(ctx context.Context) (float64, error) {
	return b.svc.Progress(ctx)
}

func (b localBackend) Config(context.Context) (*scan.Config, error) {
	cfg := b.svc.Config()
	return &cfg, nil
}

func (b localBackend) UpdateConfig(_ context.Context, cfg scan.Config) (*scan.Config, error) {
	updated, err := b.svc.UpdateConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

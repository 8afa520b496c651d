package core

import (
	"context"

	"unibio.dev/workbench/internal/backend"
)

type DashboardView struct {
	Health      *backend.HealthResponse
	Models      *backend.ModelsResponse
	ModelsError string
	Error       string
}

// DashboardPanel shows backend health and the chat models on offer.
type DashboardPanel struct {
	panelBase
	backend Backend
	view    DashboardView
}

func NewDashboardPanel(b Backend) *DashboardPanel {
	return &DashboardPanel{panelBase: panelBase{name: "dashboard"}, backend: b}
}

func (p *DashboardPanel) View() DashboardView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Error = p.err
	return v
}

type backendStatus struct {
	health    *backend.HealthResponse
	models    *backend.ModelsResponse
	modelsErr error
}

// Refresh queries health first; a model list failure does not hide a healthy backend.
func (p *DashboardPanel) Refresh(ctx context.Context) error {
	return submit(ctx, &p.panelBase, "refresh",
		func(ctx context.Context) (backendStatus, error) {
			h, err := p.backend.Health(ctx)
			if err != nil {
				return backendStatus{}, err
			}
			m, mErr := p.backend.ListModels(ctx)
			return backendStatus{health: h, models: m, modelsErr: mErr}, nil
		},
		func(s backendStatus) {
			p.view.Health = s.health
			if s.modelsErr != nil {
				p.view.ModelsError = UserMessage(s.modelsErr)
				return
			}
			p.view.Models = s.models
			p.view.ModelsError = ""
		})
}

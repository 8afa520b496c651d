package core

import (
	"context"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/chart"
	"unibio.dev/workbench/internal/sequence"
	"unibio.dev/workbench/internal/toolcalls"
)

// PrimerParts splits a Gibson primer into its vector overlap (5') and insert binding (3')
// pieces for highlighting.
type PrimerParts struct {
	Overlap string
	Binding string
}

type GibsonView struct {
	Result  *backend.GibsonResponse
	Forward PrimerParts
	Reverse PrimerParts
	Charts  []chart.Chart
	Error   string
}

type GibsonPanel struct {
	panelBase
	backend Backend
	view    GibsonView
}

func NewGibsonPanel(b Backend) *GibsonPanel {
	return &GibsonPanel{panelBase: panelBase{name: "gibson"}, backend: b}
}

func (p *GibsonPanel) View() GibsonView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Error = p.err
	return v
}

func (p *GibsonPanel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidate()
	p.view = GibsonView{}
}

func (p *GibsonPanel) Design(ctx context.Context, f GibsonForm) error {
	vector, insert := sequence.Sanitize(f.VectorSeq), sequence.Sanitize(f.InsertSeq)
	if err := sequence.RequireGibson(vector, insert, f.OverlapLength); err != nil {
		return p.reject(err)
	}

	req := backend.GibsonRequest{VectorSeq: vector, InsertSeq: insert, OverlapLength: f.OverlapLength}
	return submit(ctx, &p.panelBase, "design",
		func(ctx context.Context) (*backend.GibsonResponse, error) {
			return p.backend.DesignGibson(ctx, req)
		},
		func(resp *backend.GibsonResponse) {
			p.view = GibsonView{
				Result:  resp,
				Forward: PrimerParts{Overlap: resp.VectorOverlapFwd, Binding: resp.InsertBindingFwd},
				Reverse: PrimerParts{Overlap: resp.VectorOverlapRev, Binding: resp.InsertBindingRev},
			}
			p.view.Charts, _ = toolcalls.ChartsFor(toolcalls.ToolDesignGibson, req, resp)
		})
}

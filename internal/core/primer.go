package core

import (
	"context"
	"strconv"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/chart"
	"unibio.dev/workbench/internal/sequence"
	"unibio.dev/workbench/internal/toolcalls"
)

const heatmapMaxPairs = 5

type PrimerView struct {
	Pairs          []backend.PrimerPair
	DesignMessage  string
	DesignCharts   []chart.Chart
	Analysis       *backend.PrimerAnalysisResponse
	AnalysisCharts []chart.Chart
	Compatibility  *backend.CompatibilityResponse
	Specificity    *backend.SpecificityResponse
	Error          string
}

// PrimerPanel designs primer pairs and runs the single-primer checks.
type PrimerPanel struct {
	panelBase
	backend Backend
	view    PrimerView
}

func NewPrimerPanel(b Backend) *PrimerPanel {
	return &PrimerPanel{panelBase: panelBase{name: "primer"}, backend: b}
}

func (p *PrimerPanel) View() PrimerView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Error = p.err
	return v
}

// Reset clears results after a form change.
func (p *PrimerPanel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidate()
	p.view = PrimerView{}
}

func (p *PrimerPanel) Design(ctx context.Context, f PrimerForm) error {
	seq := sequence.Sanitize(f.Sequence)
	if err := firstError(
		sequence.RequireMinLength("sequence", seq, sequence.MinPrimerDesignLength),
		sequence.RequireTmRange(f.MinTm, f.MaxTm),
		sequence.RequireProductRange(f.ProdMin, f.ProdMax),
	); err != nil {
		return p.reject(err)
	}

	req := backend.PrimerDesignRequest{Sequence: seq, MinTm: f.MinTm, MaxTm: f.MaxTm, ProdMin: f.ProdMin, ProdMax: f.ProdMax}
	return submit(ctx, &p.panelBase, "design",
		func(ctx context.Context) (*backend.PrimerDesignResponse, error) {
			resp, err := p.backend.DesignPrimers(ctx, req)
			if err == nil && !resp.Success {
				return nil, resultError(resp.Message, "Primer design failed")
			}
			return resp, err
		},
		func(resp *backend.PrimerDesignResponse) {
			p.view.Pairs = resp.PrimerPairs
			p.view.DesignMessage = resp.Message
			p.view.DesignCharts = nil
			if len(resp.PrimerPairs) == 0 {
				if p.view.DesignMessage == "" {
					p.view.DesignMessage = "No primer pairs found for these parameters."
				}
				return
			}
			p.view.DesignCharts, _ = toolcalls.ChartsFor(toolcalls.ToolDesignPrimers, req, resp)
			p.view.DesignCharts = append(p.view.DesignCharts, pairHeatmap(resp.PrimerPairs))
		})
}

func (p *PrimerPanel) Analyze(ctx context.Context, f PrimerForm) error {
	seq := sequence.Sanitize(f.AnalyzeSequence)
	if err := sequence.RequirePrimerLength("analyze_sequence", seq); err != nil {
		return p.reject(err)
	}

	req := backend.PrimerAnalysisRequest{Sequence: seq}
	return submit(ctx, &p.panelBase, "analyze",
		func(ctx context.Context) (*backend.PrimerAnalysisResponse, error) {
			return p.backend.AnalyzePrimer(ctx, req)
		},
		func(resp *backend.PrimerAnalysisResponse) {
			p.view.Analysis = resp
			p.view.AnalysisCharts, _ = toolcalls.ChartsFor(toolcalls.ToolAnalyzePrimer, req, resp)
		})
}

func (p *PrimerPanel) CheckCompatibility(ctx context.Context, f PrimerForm) error {
	fwd, rev := sequence.Sanitize(f.ForwardSeq), sequence.Sanitize(f.ReverseSeq)
	if fwd == "" || rev == "" {
		return p.reject(sequence.Required("forward_seq", "", "Both primer sequences are required"))
	}

	req := backend.CompatibilityRequest{ForwardSeq: fwd, ReverseSeq: rev}
	return submit(ctx, &p.panelBase, "compatibility",
		func(ctx context.Context) (*backend.CompatibilityResponse, error) {
			return p.backend.CheckCompatibility(ctx, req)
		},
		func(resp *backend.CompatibilityResponse) {
			p.view.Compatibility = resp
		})
}

func (p *PrimerPanel) CheckSpecificity(ctx context.Context, f PrimerForm) error {
	primer, template := sequence.Sanitize(f.SpecificityPrimer), sequence.Sanitize(f.SpecificityTemplate)
	if primer == "" || template == "" {
		return p.reject(sequence.Required("specificity_primer", "", "Primer and template sequences are required"))
	}

	req := backend.SpecificityRequest{PrimerSeq: primer, TemplateSeq: template}
	return submit(ctx, &p.panelBase, "specificity",
		func(ctx context.Context) (*backend.SpecificityResponse, error) {
			return p.backend.CheckSpecificity(ctx, req)
		},
		func(resp *backend.SpecificityResponse) {
			p.view.Specificity = resp
		})
}

// pairHeatmap shades each metric column independently so Tm, GC and penalty are
// comparable across pairs.
func pairHeatmap(pairs []backend.PrimerPair) chart.Chart {
	if len(pairs) > heatmapMaxPairs {
		pairs = pairs[:heatmapMaxPairs]
	}
	rows := make([]string, len(pairs))
	values := make([][]float64, len(pairs))
	for i, pp := range pairs {
		rows[i] = "Pair " + strconv.Itoa(i+1)
		values[i] = []float64{pp.LeftTm, pp.RightTm, pp.LeftGC, pp.RightGC, float64(pp.ProductSize), pp.Penalty}
	}
	cols := []string{"Fwd Tm", "Rev Tm", "Fwd GC%", "Rev GC%", "Product", "Penalty"}
	return chart.NewHeatmap("Primer Pair Metrics", rows, cols, values, true, chart.DefaultLayout())
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

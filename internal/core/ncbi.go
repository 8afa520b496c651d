package core

import (
	"context"
	"strings"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/chart"
	"unibio.dev/workbench/internal/sequence"
	"unibio.dev/workbench/internal/toolcalls"
)

const (
	minRetmax = 1
	maxRetmax = 20
)

type NCBIView struct {
	Results       []backend.NCBIRecord
	SearchMessage string
	Sequence      *backend.NCBISequence
	Composition   sequence.Composition
	GCPercent     float64
	Charts        []chart.Chart
	Error         string
}

type NCBIPanel struct {
	panelBase
	backend Backend
	view    NCBIView
}

func NewNCBIPanel(b Backend) *NCBIPanel {
	return &NCBIPanel{panelBase: panelBase{name: "ncbi"}, backend: b}
}

func (p *NCBIPanel) View() NCBIView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Error = p.err
	return v
}

func (p *NCBIPanel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidate()
	p.view = NCBIView{}
}

func (p *NCBIPanel) Search(ctx context.Context, f NCBIForm) error {
	query := strings.TrimSpace(f.Query)
	if err := sequence.Required("query", query, "Enter a search query"); err != nil {
		return p.reject(err)
	}

	req := backend.NCBISearchRequest{Query: query, Retmax: clamp(f.Retmax, minRetmax, maxRetmax)}
	return submit(ctx, &p.panelBase, "search",
		func(ctx context.Context) (*backend.NCBISearchResponse, error) {
			resp, err := p.backend.SearchNCBI(ctx, req)
			if err == nil && !resp.Success {
				return nil, resultError(resp.Message, "NCBI search failed")
			}
			return resp, err
		},
		func(resp *backend.NCBISearchResponse) {
			p.view.Results = resp.Results
			p.view.SearchMessage = ""
			if len(resp.Results) == 0 {
				p.view.SearchMessage = "No sequences found for this query."
			}
		})
}

// Fetch downloads one record and charts its composition.
func (p *NCBIPanel) Fetch(ctx context.Context, f NCBIForm) error {
	accession := strings.TrimSpace(f.AccessionID)
	if err := sequence.Required("accession_id", accession, "Enter an accession ID"); err != nil {
		return p.reject(err)
	}

	req := backend.NCBIFetchRequest{AccessionID: accession}
	return submit(ctx, &p.panelBase, "fetch",
		func(ctx context.Context) (*backend.NCBISequence, error) {
			resp, err := p.backend.FetchNCBI(ctx, req)
			if err == nil && !resp.Success {
				return nil, resultError(resp.Message, "Sequence not found")
			}
			return resp, err
		},
		func(resp *backend.NCBISequence) {
			seq := sequence.Sanitize(resp.Sequence)
			p.view.Sequence = resp
			p.view.Composition = sequence.Count(seq)
			p.view.GCPercent = sequence.GCPercent(seq)
			p.view.Charts = nil
			if seq != "" {
				p.view.Charts = toolcalls.SequenceCharts(resp.Accession, seq)
			}
		})
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
